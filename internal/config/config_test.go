package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const sampleJSON = `{
  "job": "claims_features",
  "source":  { "kind": "parquet", "file": { "path": "testdata/claims.parquet" } },
  "session": { "threads": 8, "memory_limit": "4GB", "temp_directory": "/tmp/spill",
               "preserve_insertion_order": false, "settings": { "enable_progress_bar": "false" } },
  "steps": [
    { "kind": "remove_diagnosis_codes", "options": { "codes": ["Z00.00", "I10"], "merge": "merge_duplicates" } },
    { "kind": "comorbidities" },
    { "kind": "procedure_array", "options": { "procedure_column": "procedure_code", "date_column": "procedure_date" } },
    { "kind": "train_test", "options": { "test_size": 0.25, "seed": 7 } },
    { "kind": "head", "options": null }
  ],
  "output":  { "kind": "csv", "path": "out.csv" },
  "storage": { "kind": "postgres", "db": { "dsn": "postgres://u@h/db", "table": "public.features",
               "columns": ["patient_id", "train_test"], "auto_create_table": true } },
  "runtime": { "batch_size": 5000, "channel_buffer": 1000 }
}`

func TestPipeline_Decode(t *testing.T) {
	t.Parallel()

	var p Pipeline
	if err := json.Unmarshal([]byte(sampleJSON), &p); err != nil {
		t.Fatalf("json.Unmarshal(Pipeline): %v", err)
	}

	if p.Job != "claims_features" {
		t.Fatalf("job = %q", p.Job)
	}
	if p.Source.Kind != "parquet" || p.Source.File.Path != "testdata/claims.parquet" {
		t.Fatalf("source decoded = %#v", p.Source)
	}
	s := p.Session
	if s.Threads != 8 || s.MemoryLimit != "4GB" || s.TempDirectory != "/tmp/spill" {
		t.Fatalf("session decoded = %#v", s)
	}
	if s.PreserveInsertionOrder == nil || *s.PreserveInsertionOrder {
		t.Fatalf("preserve_insertion_order = %v, want false", s.PreserveInsertionOrder)
	}
	if s.Settings["enable_progress_bar"] != "false" {
		t.Fatalf("settings = %v", s.Settings)
	}

	if len(p.Steps) != 5 || p.Steps[1].Kind != StepComorbidities {
		t.Fatalf("steps decoded = %#v", p.Steps)
	}
	if got := p.Steps[0].Options.StringSlice("codes"); !reflect.DeepEqual(got, []string{"Z00.00", "I10"}) {
		t.Fatalf("codes = %v", got)
	}
	if got := p.Steps[3].Options.Float("test_size", 0); got != 0.25 {
		t.Fatalf("test_size = %v, want 0.25", got)
	}
	if got := p.Steps[3].Options.Int("seed", 42); got != 7 {
		t.Fatalf("seed = %d, want 7", got)
	}
	if p.Steps[4].Options == nil {
		t.Fatal("null options decoded to a nil map")
	}

	if p.Output.Kind != "csv" || p.Output.Path != "out.csv" {
		t.Fatalf("output = %#v", p.Output)
	}
	db := p.Storage.DB
	if p.Storage.Kind != "postgres" || db.Table != "public.features" || !db.AutoCreateTable {
		t.Fatalf("storage = %#v", p.Storage)
	}
	if !reflect.DeepEqual(db.Columns, []string{"patient_id", "train_test"}) {
		t.Fatalf("columns = %v", db.Columns)
	}
	if p.Runtime.BatchSize != 5000 || p.Runtime.ChannelBuffer != 1000 {
		t.Fatalf("runtime = %#v", p.Runtime)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.json")
	if err := os.WriteFile(path, []byte(sampleJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Job != "claims_features" {
		t.Fatalf("job = %q", p.Job)
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("Load of a missing file succeeded")
	}
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"job": 1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatal("Load of an invalid file succeeded")
	}
}

func TestOptions_Accessors(t *testing.T) {
	t.Parallel()

	o := Options{
		"s":    "x",
		"b":    true,
		"f":    float64(2.5),
		"i":    3,
		"list": []any{"a", 1, "b"},
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"String", o.String("s", "d"), "x"},
		{"String wrong type", o.String("b", "d"), "d"},
		{"Bool", o.Bool("b", false), true},
		{"Bool missing", o.Bool("nope", true), true},
		{"Int from float", o.Int("f", 0), 2},
		{"Int from int", o.Int("i", 0), 3},
		{"Float", o.Float("f", 0), 2.5},
		{"Float from int", o.Float("i", 0), 3.0},
		{"Float missing", o.Float("nope", 0.2), 0.2},
		{"StringSlice", o.StringSlice("list"), []string{"a", "b"}},
		{"Any", o.Any("s"), "x"},
		{"Has", o.Has("s"), true},
		{"Has missing", o.Has("nope"), false},
	}
	for _, tt := range tests {
		if !reflect.DeepEqual(tt.got, tt.want) {
			t.Fatalf("%s = %#v, want %#v", tt.name, tt.got, tt.want)
		}
	}

	var nilOpts Options
	if nilOpts.String("x", "d") != "d" || nilOpts.StringSlice("x") != nil {
		t.Fatal("nil Options accessors did not return defaults")
	}
}
