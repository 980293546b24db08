package features

import (
	"context"
	"fmt"

	"claimsfe/internal/frame"
)

// CalculateFirstVisitAndDuration adds first_visit_date, the patient's
// earliest claim date, and days_since_first_visit, the whole days between
// that date and the claim's own date. The latter is 0 on the patient's first
// claim and never negative.
func (p *Pipeline) CalculateFirstVisitAndDuration(ctx context.Context) error {
	return p.step(ctx, "first_visit", "", "DataFrame After Calculating First Visit Date and Duration",
		func(ctx context.Context, t *frame.Table) (*frame.Table, error) {
			if err := t.Require(frame.PatientColumn, frame.DateColumn); err != nil {
				return nil, err
			}
			date := frame.Ident(frame.DateColumn)
			w := fmt.Sprintf("(PARTITION BY %s ORDER BY %s)", frame.Ident(frame.PatientColumn), patientOrder(t))

			q := fmt.Sprintf("SELECT %s FROM %s", t.Projection(
				frame.Derived{
					Name: FirstVisitColumn,
					Expr: fmt.Sprintf("first_value(%s) OVER %s", date, w),
				},
				frame.Derived{
					Name: DaysSinceFirstVisitColumn,
					Expr: fmt.Sprintf("date_diff('day', CAST(first_value(%[1]s) OVER %[2]s AS DATE), CAST(%[1]s AS DATE))", date, w),
				},
			), t.Ref())
			return t.Replace(ctx, q)
		})
}
