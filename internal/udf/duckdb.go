package udf

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"

	"github.com/duckdb/duckdb-go/v2"
	"golang.org/x/text/unicode/norm"
)

// Engine function names.
const (
	// LatestPerKey reduces a list of {procedure, date} structs to a sorted
	// list of {key, value} structs keeping the greatest date per procedure.
	LatestPerKey = "latest_per_key"
	// LastPerKey does the same keeping the last date seen per procedure.
	LastPerKey = "last_per_key"
	// NormalizeCodeFunc applies NormalizeCode to a VARCHAR. NULL stays NULL.
	NormalizeCodeFunc = "normalize_code"
)

// Names of the struct fields the pair list carries.
const (
	PairKeyField   = "procedure"
	PairValueField = "date"
)

// Register installs the pipeline's scalar functions on conn. Functions are
// scoped to the connection, so every statement that uses them must run on
// the same *sql.Conn.
func Register(ctx context.Context, conn *sql.Conn) error {
	for name, keep := range map[string]Policy[string]{
		LatestPerKey: Max[string],
		LastPerKey:   Last[string],
	} {
		f, err := newPairReducer(keep)
		if err != nil {
			return fmt.Errorf("udf: %s: %w", name, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := duckdb.RegisterScalarUDF(conn, name, f); err != nil {
			return fmt.Errorf("udf: register %s: %w", name, err)
		}
	}

	n, err := newCodeNormalizer()
	if err != nil {
		return fmt.Errorf("udf: %s: %w", NormalizeCodeFunc, err)
	}
	if err := duckdb.RegisterScalarUDF(conn, NormalizeCodeFunc, n); err != nil {
		return fmt.Errorf("udf: register %s: %w", NormalizeCodeFunc, err)
	}
	return nil
}

// NormalizeCode trims and NFKC-normalizes a diagnosis code, so full-width
// and compatibility forms compare equal to their ASCII spelling.
func NormalizeCode(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

// codeNormalizer is the scalar function VARCHAR -> VARCHAR behind
// NormalizeCodeFunc.
type codeNormalizer struct {
	str duckdb.TypeInfo
}

func newCodeNormalizer() (*codeNormalizer, error) {
	str, err := duckdb.NewTypeInfo(duckdb.TYPE_VARCHAR)
	if err != nil {
		return nil, err
	}
	return &codeNormalizer{str: str}, nil
}

func (f *codeNormalizer) Config() duckdb.ScalarFuncConfig {
	return duckdb.ScalarFuncConfig{
		InputTypeInfos: []duckdb.TypeInfo{f.str},
		ResultTypeInfo: f.str,
	}
}

func (f *codeNormalizer) Executor() duckdb.ScalarFuncExecutor {
	return duckdb.ScalarFuncExecutor{RowExecutor: func(values []driver.Value) (any, error) {
		s, _ := values[0].(string)
		return NormalizeCode(s), nil
	}}
}

// pairReducer is a scalar function LIST(STRUCT(procedure, date)) ->
// LIST(STRUCT(key, value)).
type pairReducer struct {
	keep   Policy[string]
	input  duckdb.TypeInfo
	result duckdb.TypeInfo
}

func newPairReducer(keep Policy[string]) (*pairReducer, error) {
	str, err := duckdb.NewTypeInfo(duckdb.TYPE_VARCHAR)
	if err != nil {
		return nil, err
	}
	input, err := pairList(str, PairKeyField, PairValueField)
	if err != nil {
		return nil, err
	}
	result, err := pairList(str, "key", "value")
	if err != nil {
		return nil, err
	}
	return &pairReducer{keep: keep, input: input, result: result}, nil
}

func pairList(elem duckdb.TypeInfo, keyName, valueName string) (duckdb.TypeInfo, error) {
	k, err := duckdb.NewStructEntry(elem, keyName)
	if err != nil {
		return nil, err
	}
	v, err := duckdb.NewStructEntry(elem, valueName)
	if err != nil {
		return nil, err
	}
	st, err := duckdb.NewStructInfo(k, v)
	if err != nil {
		return nil, err
	}
	return duckdb.NewListInfo(st)
}

func (f *pairReducer) Config() duckdb.ScalarFuncConfig {
	return duckdb.ScalarFuncConfig{
		InputTypeInfos: []duckdb.TypeInfo{f.input},
		ResultTypeInfo: f.result,
		// NULL input must produce an empty list, not NULL.
		SpecialNullHandling: true,
	}
}

func (f *pairReducer) Executor() duckdb.ScalarFuncExecutor {
	return duckdb.ScalarFuncExecutor{RowExecutor: f.reduceRow}
}

func (f *pairReducer) reduceRow(values []driver.Value) (any, error) {
	reduced := ReduceByKey(Pairs(values[0]), f.keep)
	return Entries(reduced), nil
}

// Pairs converts an engine list of {procedure, date} structs into entries.
// NULL lists, NULL elements and pairs with a NULL side are skipped.
func Pairs(v any) []Entry[string, string] {
	list, _ := v.([]any)
	out := make([]Entry[string, string], 0, len(list))
	for _, el := range list {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		k, kok := m[PairKeyField].(string)
		d, dok := m[PairValueField].(string)
		if !kok || !dok {
			continue
		}
		out = append(out, Entry[string, string]{Key: k, Value: d})
	}
	return out
}

// Entries renders a reduced mapping as a key-sorted engine list of
// {key, value} structs, the input shape of map_from_entries.
func Entries(m map[string]string) []any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = map[string]any{"key": k, "value": m[k]}
	}
	return out
}
