package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validPipeline() Pipeline {
	return Pipeline{
		Job:    "test-job",
		Source: Source{Kind: "parquet", File: SourceFile{Path: "claims.parquet"}},
		Steps: []Step{
			{Kind: StepRemoveDiagnosisCodes, Options: Options{"codes": []any{"I10"}}},
			{Kind: StepComorbidities},
			{Kind: StepProcedureArray, Options: Options{"procedure_column": "procedure_code", "date_column": "procedure_date"}},
			{Kind: StepFirstVisit},
			{Kind: StepMinMax, Options: Options{"column": "days_since_first_visit"}},
			{Kind: StepTrainTest, Options: Options{"test_size": 0.2}},
			{Kind: StepHead},
			{Kind: StepRowsByValue, Options: Options{"column": "patient_id", "value": "p1"}},
		},
		Output: Output{Kind: "parquet", Path: "out.parquet"},
		Storage: Storage{
			Kind: "sqlite",
			DB:   DBConfig{DSN: "file:out.db", Table: "features"},
		},
		Runtime: RuntimeConfig{BatchSize: 1000, ChannelBuffer: 100},
	}
}

func TestValidatePipeline_Valid(t *testing.T) {
	t.Parallel()

	if issues := ValidatePipeline(validPipeline()); len(issues) != 0 {
		t.Fatalf("expected no issues; got %+v", issues)
	}
}

func TestValidatePipeline_MissingJob(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Job = " "
	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityError, "job", "job must not be empty") {
		t.Fatalf("expected SeverityError for job; got issues: %+v", issues)
	}
	if !HasErrors(issues) {
		t.Fatal("HasErrors = false")
	}
}

func TestValidatePipeline_Steps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		step Step
		sev  IssueSeverity
		path string
		msg  string
	}{
		{"unknown kind", Step{Kind: "pivot"}, SeverityError, "steps[0].kind", "unknown step kind"},
		{"empty kind", Step{}, SeverityError, "steps[0].kind", "must not be empty"},
		{"procedure without date", Step{Kind: StepProcedureArray, Options: Options{"procedure_column": "p"}},
			SeverityError, "steps[0].options.date_column", "requires date_column"},
		{"min_max without column", Step{Kind: StepMinMax}, SeverityError, "steps[0].options.column", "requires column"},
		{"rows_by_value without value", Step{Kind: StepRowsByValue, Options: Options{"column": "c"}},
			SeverityError, "steps[0].options.value", "requires value"},
		{"test size too big", Step{Kind: StepTrainTest, Options: Options{"test_size": 1.5}},
			SeverityError, "steps[0].options.test_size", "within [0, 1]"},
		{"negative seed", Step{Kind: StepTrainTest, Options: Options{"seed": float64(-1)}},
			SeverityError, "steps[0].options.seed", "negative"},
		{"bad merge", Step{Kind: StepRemoveDiagnosisCodes, Options: Options{"codes": []any{"x"}, "merge": "squash"}},
			SeverityError, "steps[0].options.merge", "unknown merge policy"},
		{"no codes", Step{Kind: StepRemoveDiagnosisCodes}, SeverityWarning, "steps[0].options.codes", "no codes"},
		{"negative head", Step{Kind: StepHead, Options: Options{"n": float64(-2)}}, SeverityWarning, "steps[0].options.n", "negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := validPipeline()
			p.Steps = []Step{tt.step}
			if issues := ValidatePipeline(p); !hasIssue(t, issues, tt.sev, tt.path, tt.msg) {
				t.Fatalf("expected %s at %s (%q); got %+v", tt.sev, tt.path, tt.msg, issues)
			}
		})
	}
}

func TestValidatePipeline_NoSteps(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Steps = nil
	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityWarning, "steps", "no steps") {
		t.Fatalf("expected warning for steps; got %+v", issues)
	}
	if HasErrors(issues) {
		t.Fatalf("no steps should not be an error; got %+v", issues)
	}
}

func TestValidatePipeline_SourceOutputStorage(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Source = Source{Kind: "avro"}
	p.Output = Output{Kind: "xlsx"}
	p.Storage = Storage{Kind: "oracle", DB: DBConfig{Columns: []string{"a", "a"}}}
	p.Runtime = RuntimeConfig{ChannelBuffer: -1}
	issues := ValidatePipeline(p)

	for _, want := range []struct {
		sev  IssueSeverity
		path string
		msg  string
	}{
		{SeverityError, "source.kind", "unknown source kind"},
		{SeverityError, "source.file.path", "non-empty path"},
		{SeverityError, "output.kind", "unknown output kind"},
		{SeverityError, "output.path", "non-empty path"},
		{SeverityWarning, "storage.kind", "unknown storage kind"},
		{SeverityError, "storage.db.dsn", "must not be empty"},
		{SeverityError, "storage.db.table", "must not be empty"},
		{SeverityError, "storage.db.columns[1]", "duplicate column"},
		{SeverityWarning, "runtime.batch_size", "default batch size"},
		{SeverityError, "runtime.channel_buffer", "must not be negative"},
	} {
		if !hasIssue(t, issues, want.sev, want.path, want.msg) {
			t.Fatalf("expected %s at %s; got %+v", want.sev, want.path, issues)
		}
	}
}

func TestValidatePipeline_OptionalSinks(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Output = Output{}
	p.Storage = Storage{}
	p.Runtime = RuntimeConfig{}
	if issues := ValidatePipeline(p); len(issues) != 0 {
		t.Fatalf("expected no issues without sinks; got %+v", issues)
	}
}

func TestIssue_Error(t *testing.T) {
	t.Parallel()

	iss := Issue{Severity: SeverityError, Path: "job", Message: "empty"}
	if got := iss.Error(); got != "error at job: empty" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestValidatePipeline_KnownStorageKinds(t *testing.T) {
	t.Parallel()

	for _, kind := range []string{"postgres", "mssql", "mysql", "sqlite"} {
		p := validPipeline()
		p.Storage.Kind = kind
		if issues := ValidatePipeline(p); hasIssue(t, issues, SeverityWarning, "storage.kind", "unknown storage kind") {
			t.Fatalf("kind %q reported as unknown: %+v", kind, issues)
		}
	}
}
