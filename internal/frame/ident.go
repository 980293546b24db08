package frame

import (
	"fmt"
	"strings"
)

// Ident safely quotes an engine identifier using double quotes, escaping ".
func Ident(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// Literal quotes s as a SQL string literal, escaping '.
func Literal(s string) string { return `'` + strings.ReplaceAll(s, `'`, `''`) + `'` }

// LiteralList renders values as a comma-separated list of string literals.
func LiteralList(values []string) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = Literal(v)
	}
	return strings.Join(out, ", ")
}

// Derived is one output column of a projection: Expr AS Name.
type Derived struct {
	Name string
	Expr string
}

// Projection builds a SELECT list over the table's columns with the given
// derived columns applied. A derived column whose name already exists replaces
// that column in place; new names are appended in order. This matches the
// "with column" semantics of dataframe engines.
func (t *Table) Projection(derived ...Derived) string {
	byName := make(map[string]string, len(derived))
	for _, d := range derived {
		byName[d.Name] = d.Expr
	}

	parts := make([]string, 0, len(t.columns)+len(derived))
	seen := make(map[string]bool, len(derived))
	for _, c := range t.columns {
		if expr, ok := byName[c.Name]; ok {
			parts = append(parts, fmt.Sprintf("%s AS %s", expr, Ident(c.Name)))
			seen[c.Name] = true
			continue
		}
		parts = append(parts, Ident(c.Name))
	}
	for _, d := range derived {
		if seen[d.Name] {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s AS %s", d.Expr, Ident(d.Name)))
		seen[d.Name] = true
	}
	return strings.Join(parts, ", ")
}
