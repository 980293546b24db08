// Package config defines the JSON pipeline file consumed by cmd/features.
//
// A pipeline file names the claims source, the engine settings, the ordered
// feature steps and where the result goes. Decoding is done with the standard
// library; step-specific settings live in a free-form Options bag read with
// typed accessors.
//
// Example (trimmed):
//
//	{
//	  "job":     "claims_features",
//	  "source":  { "kind": "parquet", "file": { "path": "claims.parquet" } },
//	  "session": { "threads": 16, "memory_limit": "4GB" },
//	  "steps": [
//	    { "kind": "comorbidities" },
//	    { "kind": "train_test", "options": { "test_size": 0.2 } }
//	  ],
//	  "output":  { "kind": "parquet", "path": "features.parquet" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Step kinds.
const (
	StepRemoveDiagnosisCodes = "remove_diagnosis_codes"
	StepComorbidities        = "comorbidities"
	StepProcedureArray       = "procedure_array"
	StepFirstVisit           = "first_visit"
	StepMinMax               = "min_max"
	StepTrainTest            = "train_test"
	StepHead                 = "head"
	StepRowsByValue          = "rows_by_value"
)

// Pipeline is the top-level object of a pipeline file.
type Pipeline struct {
	// Job labels metrics and log lines of a run.
	Job string `json:"job"`

	Source  Source        `json:"source"`
	Session SessionConfig `json:"session"`

	// Steps run in order against the working table.
	Steps []Step `json:"steps"`

	// Output optionally exports the final table to a file.
	Output Output `json:"output"`

	// Storage optionally copies the final table into a database.
	Storage Storage       `json:"storage"`
	Runtime RuntimeConfig `json:"runtime"`
}

// Source identifies the claims input.
type Source struct {
	// Kind is the file format: "parquet" or "json". Empty means parquet.
	Kind string `json:"kind"`

	File SourceFile `json:"file"`
}

// SourceFile holds the input location.
type SourceFile struct {
	// Path is a file, or a directory of parquet files.
	Path string `json:"path"`
}

// SessionConfig holds engine resource settings.
type SessionConfig struct {
	Database               string            `json:"database"`
	Threads                int               `json:"threads"`
	MemoryLimit            string            `json:"memory_limit"`
	TempDirectory          string            `json:"temp_directory"`
	PreserveInsertionOrder *bool             `json:"preserve_insertion_order"`
	Settings               map[string]string `json:"settings"`
}

// Step is one feature operation and its options.
type Step struct {
	Kind    string  `json:"kind"`
	Options Options `json:"options"`
}

// Output configures the file export of the final table.
type Output struct {
	// Kind is "parquet", "csv" or "json".
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// Storage selects the database sink. An empty Kind disables it.
type Storage struct {
	// Kind selects the backend: "postgres", "sqlite", "mssql" or "mysql".
	Kind string `json:"kind"`

	DB DBConfig `json:"db"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	// DSN is the driver connection string.
	DSN string `json:"dsn"`

	// Table is the destination table, optionally schema qualified.
	Table string `json:"table"`

	// Columns restricts the copy to these columns of the final table, in this
	// order. Empty means every column.
	Columns []string `json:"columns"`

	// AutoCreateTable creates the destination table when it does not exist,
	// with column types derived from the engine schema.
	AutoCreateTable bool `json:"auto_create_table"`
}

// RuntimeConfig controls sink batching.
type RuntimeConfig struct {
	BatchSize     int `json:"batch_size"`
	ChannelBuffer int `json:"channel_buffer"`
}

// Load reads and decodes the pipeline file at path.
func Load(path string) (Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read config: %w", err)
	}
	var p Pipeline
	if err := json.Unmarshal(b, &p); err != nil {
		return Pipeline{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return p, nil
}

// Options fetches typed values from a step's JSON options. Accessors return
// def when a key is absent or holds a value of another type.
type Options map[string]any

// Has reports whether key is present.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. encoding/json decodes numbers as
// float64, which is truncated.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Float returns the float64 value for key or def.
func (o Options) Float(key string, def float64) float64 {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

// StringSlice returns the strings of an array value. Non-string elements are
// skipped. Returns nil when key is missing or not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Any returns the raw value for key, or nil.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON decodes a missing or null options object to an empty,
// non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
