// Package features implements the claims feature pipeline.
//
// A Pipeline owns one working table. Each transformation builds the next
// generation of that table from the current one and swaps its reference only
// once the new generation exists, so a failed call leaves the pipeline at its
// last good state. Operations can be called in any order; an operation that
// needs a column another one produces fails with a frame.MissingColumnError
// when the column is not there yet.
package features

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"claimsfe/internal/frame"
	"claimsfe/internal/metrics"
)

// Derived column names.
const (
	ComorbiditiesColumn       = "previous_comorbidities"
	ProcedureMapColumn        = "procedure_date_map"
	UpdatedProcedureMapColumn = "updated_procedure_date_map"
	FirstVisitColumn          = "first_visit_date"
	DaysSinceFirstVisitColumn = "days_since_first_visit"
	TrainTestColumn           = "train_test"

	// DiagnosisCodeField is the attribute of a diagnosis record holding the
	// code itself.
	DiagnosisCodeField = "diagnosis_code"
)

// DefaultHead is the preview size used when no positive n is given.
const DefaultHead = 5

// Pipeline holds the current working table.
type Pipeline struct {
	table    *frame.Table
	logger   *log.Logger
	job      string
	logShape bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for shape and min/max lines. A nil logger
// discards output.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		p.logger = l
	}
}

// WithJob sets the job label attached to metrics.
func WithJob(job string) Option {
	return func(p *Pipeline) { p.job = job }
}

// WithShapeLogging turns the before/after row and column counts on or off.
// Counting costs one scan per log line.
func WithShapeLogging(on bool) Option {
	return func(p *Pipeline) { p.logShape = on }
}

// New returns a pipeline over t. Shape logging is on by default and goes to
// the standard logger.
func New(t *frame.Table, opts ...Option) *Pipeline {
	p := &Pipeline{
		table:    t,
		logger:   log.Default(),
		job:      "features",
		logShape: true,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Table returns the current working table.
func (p *Pipeline) Table() *frame.Table { return p.table }

// step runs one transformation, records its metrics and commits its output.
func (p *Pipeline) step(ctx context.Context, name, before, after string, build func(context.Context, *frame.Table) (*frame.Table, error)) error {
	if before != "" {
		p.printShape(ctx, before, p.table)
	}

	start := time.Now()
	next, err := build(ctx, p.table)
	metrics.RecordStep(p.job, name, err, time.Since(start))
	if err != nil {
		return fmt.Errorf("features: %s: %w", name, err)
	}
	p.table = next

	if after != "" {
		if n := p.printShape(ctx, after, next); n > 0 {
			metrics.RecordRow(p.job, name, n)
		}
	}
	return nil
}

// printShape logs the table shape and returns the row count, or -1 when
// shape logging is off or counting failed.
func (p *Pipeline) printShape(ctx context.Context, message string, t *frame.Table) int64 {
	if !p.logShape {
		return -1
	}
	s, err := t.Shape(ctx)
	if err != nil {
		p.logger.Printf("%s - shape unavailable: %v", message, err)
		return -1
	}
	p.logger.Printf("%s - Shape: %d rows, %d columns", message, s.Rows, s.Columns)
	return s.Rows
}

// previousRows is the window over every strictly earlier claim of the same
// patient.
func previousRows(t *frame.Table) string {
	return fmt.Sprintf("(PARTITION BY %s ORDER BY %s ROWS BETWEEN UNBOUNDED PRECEDING AND 1 PRECEDING)",
		frame.Ident(frame.PatientColumn), patientOrder(t))
}

// patientOrder orders a patient's claims by date, then by the load sequence
// when the table carries one.
func patientOrder(t *frame.Table) string {
	order := frame.Ident(frame.DateColumn)
	if t.Has(frame.SeqColumn) {
		order += ", " + frame.Ident(frame.SeqColumn)
	}
	return order
}
