package features

import (
	"context"
	"fmt"

	"claimsfe/internal/frame"
)

// Head materializes the first n claims in patient, date order. n <= 0 means
// DefaultHead.
func (p *Pipeline) Head(ctx context.Context, n int) (frame.Rows, error) {
	if n <= 0 {
		n = DefaultHead
	}
	rows, err := p.table.Head(ctx, n)
	if err != nil {
		return frame.Rows{}, fmt.Errorf("features: head: %w", err)
	}
	return rows, nil
}

// RowsByColumnValue materializes every claim whose column equals value.
func (p *Pipeline) RowsByColumnValue(ctx context.Context, column string, value any) (frame.Rows, error) {
	rows, err := p.table.Where(ctx, column, value)
	if err != nil {
		return frame.Rows{}, fmt.Errorf("features: rows by %s: %w", column, err)
	}
	return rows, nil
}

// MinMax returns the global minimum and maximum of column and logs them.
// The table is not changed.
func (p *Pipeline) MinMax(ctx context.Context, column string) (frame.Bounds, error) {
	b, err := p.table.MinMax(ctx, column)
	if err != nil {
		return frame.Bounds{}, fmt.Errorf("features: min/max: %w", err)
	}
	p.logger.Printf("Min: %v, Max: %v", b.Min, b.Max)
	return b, nil
}
