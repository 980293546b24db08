package features

import (
	"bytes"
	"context"
	"errors"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"claimsfe/internal/frame"
	"claimsfe/internal/session"
	"claimsfe/internal/synth"
)

// newPipeline writes claims to a parquet file, loads it into a fresh
// in-memory session and returns a pipeline with output discarded.
func newPipeline(tb testing.TB, claims []synth.Claim, opts ...Option) *Pipeline {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "claims.parquet")
	if err := synth.WriteParquet(path, claims); err != nil {
		tb.Fatalf("write fixture: %v", err)
	}

	ctx := context.Background()
	s, err := session.Open(ctx, session.Config{Threads: 2})
	if err != nil {
		tb.Fatalf("open session: %v", err)
	}
	tb.Cleanup(s.Close)

	t, err := s.Load(ctx, path)
	if err != nil {
		tb.Fatalf("load: %v", err)
	}
	return New(t, append([]Option{WithLogger(nil)}, opts...)...)
}

func day(y int, m time.Month, d int) int32 { return synth.Date(y, m, d) }

// scenario is patient A with three claims a month apart and a second
// patient with one claim.
func scenario() []synth.Claim {
	return []synth.Claim{
		{PatientID: "A", ClaimID: "A-1", StatementFrom: day(2020, time.January, 1), Diagnoses: synth.Codes("D1")},
		{PatientID: "B", ClaimID: "B-1", StatementFrom: day(2020, time.January, 15), Diagnoses: synth.Codes("D9")},
		{PatientID: "A", ClaimID: "A-2", StatementFrom: day(2020, time.February, 1), Diagnoses: synth.Codes("D2")},
		{PatientID: "A", ClaimID: "A-3", StatementFrom: day(2020, time.March, 1), Diagnoses: synth.Codes("D1", "D3")},
	}
}

// all materializes the whole table in patient, date order.
func all(tb testing.TB, p *Pipeline) frame.Rows {
	tb.Helper()
	n, err := p.Table().Count(context.Background())
	if err != nil {
		tb.Fatalf("count: %v", err)
	}
	rows, err := p.Table().Head(context.Background(), int(n))
	if err != nil {
		tb.Fatalf("head: %v", err)
	}
	return rows
}

// strs converts an engine VARCHAR list into a sorted Go slice.
func strs(tb testing.TB, v any) []string {
	tb.Helper()
	list, ok := v.([]any)
	if !ok {
		tb.Fatalf("value %T is not a list", v)
	}
	out := make([]string, 0, len(list))
	for _, el := range list {
		s, ok := el.(string)
		if !ok {
			tb.Fatalf("element %T is not a string", el)
		}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// diagnosisCodes extracts the diagnosis_code of every record in a list.
func diagnosisCodes(tb testing.TB, v any) []string {
	tb.Helper()
	list, ok := v.([]any)
	if !ok {
		tb.Fatalf("value %T is not a list", v)
	}
	out := make([]string, 0, len(list))
	for _, el := range list {
		rec, ok := el.(map[string]any)
		if !ok {
			tb.Fatalf("element %T is not a record", el)
		}
		out = append(out, rec[DiagnosisCodeField].(string))
	}
	return out
}

func TestPipeline_ShapeLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := newPipeline(t, scenario(), WithLogger(log.New(&buf, "", 0)), WithJob("test"))
	if err := p.AddComorbidities(context.Background()); err != nil {
		t.Fatalf("AddComorbidities: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Initial DataFrame - Shape: 4 rows, 7 columns",
		"DataFrame After Window Function - Shape: 4 rows, 8 columns",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output %q does not contain %q", out, want)
		}
	}
}

func TestPipeline_ShapeLoggingOff(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := newPipeline(t, scenario(), WithLogger(log.New(&buf, "", 0)), WithShapeLogging(false))
	if err := p.CalculateFirstVisitAndDuration(context.Background()); err != nil {
		t.Fatalf("CalculateFirstVisitAndDuration: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("log output = %q, want empty", buf.String())
	}
}

func TestPipeline_MissingColumnKeepsTable(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, scenario())
	before := p.Table()

	err := p.AddProcedureArray(context.Background(), "no_such_code", "no_such_date")
	if err == nil {
		t.Fatal("AddProcedureArray with unknown columns succeeded")
	}
	if !errors.Is(err, frame.ErrSchema) {
		t.Fatalf("err = %v, want ErrSchema", err)
	}
	var mc *frame.MissingColumnError
	if !errors.As(err, &mc) || mc.Column != "no_such_code" {
		t.Fatalf("err = %v, want missing no_such_code", err)
	}
	if p.Table() != before {
		t.Fatal("failed operation replaced the table")
	}
	if n, err := p.Table().Count(context.Background()); err != nil || n != 4 {
		t.Fatalf("table after failure: count = %d, err = %v", n, err)
	}
}

func TestPipeline_Chain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPipeline(t, synth.Generate(synth.Params{Patients: 30, MaxClaims: 6, ProcedureRate: 0.4, Seed: 3}))

	if err := p.RemoveDiagnosisCodes(ctx, []string{"I10"}); err != nil {
		t.Fatalf("RemoveDiagnosisCodes: %v", err)
	}
	if err := p.AddComorbidities(ctx); err != nil {
		t.Fatalf("AddComorbidities: %v", err)
	}
	if err := p.AddProcedureArray(ctx, "procedure_code", "procedure_date"); err != nil {
		t.Fatalf("AddProcedureArray: %v", err)
	}
	if err := p.CalculateFirstVisitAndDuration(ctx); err != nil {
		t.Fatalf("CalculateFirstVisitAndDuration: %v", err)
	}
	if _, err := p.AddTrainTestIndicator(ctx, DefaultTestSize); err != nil {
		t.Fatalf("AddTrainTestIndicator: %v", err)
	}

	for _, c := range []string{
		ComorbiditiesColumn, ProcedureMapColumn, UpdatedProcedureMapColumn,
		FirstVisitColumn, DaysSinceFirstVisitColumn, TrainTestColumn,
	} {
		if !p.Table().Has(c) {
			t.Fatalf("column %s missing after chain", c)
		}
	}
	if p.Table().Has(pairsColumn) {
		t.Fatalf("helper column %s leaked into the table", pairsColumn)
	}
}

func sortedCopy(s []string) []string {
	out := append([]string{}, s...)
	sort.Strings(out)
	return out
}
