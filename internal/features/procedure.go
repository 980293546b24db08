package features

import (
	"context"
	"fmt"

	"claimsfe/internal/frame"
	"claimsfe/internal/udf"
)

const pairsColumn = "__procedure_pairs"

// AddProcedureArray adds two maps from procedure code to date, built from
// the strictly earlier claims of the same patient:
//
//   - procedure_date_map keeps, for a repeated procedure, the date of the
//     most recent claim (last write wins);
//   - updated_procedure_date_map keeps the greatest date per procedure.
//
// Only claims where both procedureColumn and dateColumn are non-null
// contribute. Keys and values are VARCHAR; dates are rendered in ISO form so
// that string order is date order. Claims with no earlier pairs get empty
// maps.
func (p *Pipeline) AddProcedureArray(ctx context.Context, procedureColumn, dateColumn string) error {
	return p.step(ctx, "procedure_array",
		"Initial DataFrame for "+procedureColumn,
		"DataFrame After Window Function for "+procedureColumn,
		func(ctx context.Context, t *frame.Table) (*frame.Table, error) {
			if err := t.Require(frame.PatientColumn, frame.DateColumn, procedureColumn, dateColumn); err != nil {
				return nil, err
			}

			proc, date := frame.Ident(procedureColumn), frame.Ident(dateColumn)
			pair := fmt.Sprintf(
				"CASE WHEN %[1]s IS NOT NULL AND %[2]s IS NOT NULL THEN {%[3]s: CAST(%[1]s AS VARCHAR), %[4]s: CAST(%[2]s AS VARCHAR)} END",
				proc, date, frame.Literal(udf.PairKeyField), frame.Literal(udf.PairValueField))
			pairs := frame.Ident(pairsColumn)

			q := fmt.Sprintf(
				"WITH paired AS (SELECT *, list(%s) OVER %s AS %s FROM %s) SELECT %s FROM paired",
				pair, previousRows(t), pairs, t.Ref(),
				t.Projection(
					frame.Derived{Name: ProcedureMapColumn, Expr: fmt.Sprintf("map_from_entries(%s(%s))", udf.LastPerKey, pairs)},
					frame.Derived{Name: UpdatedProcedureMapColumn, Expr: fmt.Sprintf("map_from_entries(%s(%s))", udf.LatestPerKey, pairs)},
				))
			return t.Replace(ctx, q)
		})
}
