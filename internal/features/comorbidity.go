package features

import (
	"context"
	"fmt"
	"strings"

	"claimsfe/internal/frame"
)

// AddComorbidities adds previous_comorbidities: the distinct diagnosis codes
// of every strictly earlier claim of the same patient, sorted. A patient's
// first claim gets an empty list.
func (p *Pipeline) AddComorbidities(ctx context.Context) error {
	return p.step(ctx, "comorbidities", "Initial DataFrame", "DataFrame After Window Function",
		func(ctx context.Context, t *frame.Table) (*frame.Table, error) {
			if err := t.Require(frame.PatientColumn, frame.DateColumn, frame.DiagnosisColumn); err != nil {
				return nil, err
			}
			dx, _ := t.Column(frame.DiagnosisColumn)

			expr := fmt.Sprintf(
				"coalesce(list_sort(list_distinct(flatten(list_filter(list(%s) OVER %s, lambda l: l IS NOT NULL)))), CAST([] AS VARCHAR[]))",
				codeList(dx), previousRows(t))
			q := fmt.Sprintf("SELECT %s FROM %s",
				t.Projection(frame.Derived{Name: ComorbiditiesColumn, Expr: expr}), t.Ref())
			return t.Replace(ctx, q)
		})
}

// codeList is an expression yielding the diagnosis codes of a claim as a
// VARCHAR list. Structured records contribute their diagnosis_code; plain
// lists are used as they are.
func codeList(c frame.Column) string {
	col := frame.Ident(c.Name)
	if isRecordList(c) {
		return fmt.Sprintf("list_transform(%s, lambda d: CAST(d.%s AS VARCHAR))", col, frame.Ident(DiagnosisCodeField))
	}
	return fmt.Sprintf("CAST(%s AS VARCHAR[])", col)
}

func isRecordList(c frame.Column) bool {
	t := strings.ToUpper(c.Type)
	return strings.HasPrefix(t, "STRUCT") && strings.HasSuffix(t, "[]")
}
