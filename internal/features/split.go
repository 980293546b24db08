package features

import (
	"context"
	"fmt"
	"math"

	"github.com/zeebo/xxh3"

	"claimsfe/internal/frame"
)

// Split defaults.
const (
	DefaultTestSize = 0.2
	DefaultSeed     = 42
)

// Split labels.
const (
	LabelTrain = "train"
	LabelTest  = "test"
)

const testPatientsTable = "__test_patients"

// SplitOption configures AddTrainTestIndicator.
type SplitOption func(*splitConfig)

type splitConfig struct {
	seed uint64
}

// WithSeed sets the sampling seed.
func WithSeed(seed uint64) SplitOption {
	return func(c *splitConfig) { c.seed = seed }
}

// InTestSet reports whether patient id belongs to the test split. Each id is
// included independently with probability testSize; the decision depends
// only on id, seed and testSize.
func InTestSet(id string, seed uint64, testSize float64) bool {
	u := float64(xxh3.HashStringSeed(id, seed)>>11) / (1 << 53)
	return u < testSize
}

// AddTrainTestIndicator adds train_test, 'test' for every claim of a sampled
// patient and 'train' otherwise, and returns a preview of the result.
// Claims with a NULL patient_id are always 'train'.
func (p *Pipeline) AddTrainTestIndicator(ctx context.Context, testSize float64, opts ...SplitOption) (frame.Rows, error) {
	if math.IsNaN(testSize) || testSize < 0 || testSize > 1 {
		return frame.Rows{}, fmt.Errorf("features: train_test: test size %v outside [0, 1]", testSize)
	}
	cfg := splitConfig{seed: DefaultSeed}
	for _, o := range opts {
		o(&cfg)
	}

	err := p.step(ctx, "train_test", "", "",
		func(ctx context.Context, t *frame.Table) (*frame.Table, error) {
			if err := t.Require(frame.PatientColumn); err != nil {
				return nil, err
			}
			ids, err := distinctPatients(ctx, t)
			if err != nil {
				return nil, err
			}
			var test []string
			for _, id := range ids {
				if InTestSet(id, cfg.seed, testSize) {
					test = append(test, id)
				}
			}

			keys, err := frame.CreateKeyTable(ctx, t.Conn(), testPatientsTable, frame.PatientColumn, test)
			if err != nil {
				return nil, err
			}
			defer func() {
				if err := keys.Drop(context.WithoutCancel(ctx)); err != nil {
					p.logger.Printf("features: %v", err)
				}
			}()

			pid := frame.Ident(frame.PatientColumn)
			label := fmt.Sprintf("CASE WHEN CAST(%s AS VARCHAR) IN (SELECT %s FROM %s) THEN %s ELSE %s END",
				pid, pid, keys.Ref(), frame.Literal(LabelTest), frame.Literal(LabelTrain))
			q := fmt.Sprintf("SELECT %s FROM %s",
				t.Projection(frame.Derived{Name: TrainTestColumn, Expr: label}), t.Ref())
			return t.Replace(ctx, q)
		})
	if err != nil {
		return frame.Rows{}, err
	}
	return p.Head(ctx, DefaultHead)
}

func distinctPatients(ctx context.Context, t *frame.Table) ([]string, error) {
	pid := frame.Ident(frame.PatientColumn)
	rows, err := t.Conn().QueryContext(ctx, fmt.Sprintf(
		"SELECT DISTINCT CAST(%s AS VARCHAR) FROM %s WHERE %s IS NOT NULL", pid, t.Ref(), pid))
	if err != nil {
		return nil, fmt.Errorf("distinct patients: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("distinct patients: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
