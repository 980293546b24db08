package config

import (
	"fmt"
	"math"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is a dotted path into the
// config, e.g. "steps[2].options.date_column".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static checks over p. It does not touch the
// filesystem or the database; a valid pipeline can still fail at run time.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateSession(p.Session)...)
	issues = append(issues, validateSteps(p.Steps)...)
	issues = append(issues, validateOutput(p.Output)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateRuntime(p.Runtime, p.Storage.Kind != "")...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue
	switch s.Kind {
	case "", "parquet", "json":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; want parquet or json", s.Kind),
		})
	}
	if strings.TrimSpace(s.File.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.file.path",
			Message:  "source requires a non-empty path",
		})
	}
	return issues
}

func validateSession(s SessionConfig) []Issue {
	var issues []Issue
	if s.Threads < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "session.threads",
			Message:  "threads must not be negative",
		})
	}
	if s.MemoryLimit != "" && s.TempDirectory == "" && s.Database == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "session.temp_directory",
			Message:  "memory_limit is set without temp_directory; large windows may fail instead of spilling",
		})
	}
	return issues
}

func validateSteps(steps []Step) []Issue {
	var issues []Issue

	if len(steps) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "steps",
			Message:  "no steps configured; the source will be written as-is",
		})
		return issues
	}

	for i, s := range steps {
		path := fmt.Sprintf("steps[%d]", i)
		opt := func(name string) string { return fmt.Sprintf("%s.options.%s", path, name) }
		requireString := func(name string) {
			if strings.TrimSpace(s.Options.String(name, "")) == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     opt(name),
					Message:  fmt.Sprintf("%s step requires %s", s.Kind, name),
				})
			}
		}

		switch s.Kind {
		case "":
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".kind",
				Message:  "step kind must not be empty",
			})
		case StepComorbidities, StepFirstVisit:
		case StepRemoveDiagnosisCodes:
			if len(s.Options.StringSlice("codes")) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Path:     opt("codes"),
					Message:  "no codes given; the step only replaces NULL lists with empty ones",
				})
			}
			switch m := s.Options.String("merge", ""); m {
			case "", "preserve_rows", "merge_duplicates":
			default:
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     opt("merge"),
					Message:  fmt.Sprintf("unknown merge policy %q; want preserve_rows or merge_duplicates", m),
				})
			}
		case StepProcedureArray:
			requireString("procedure_column")
			requireString("date_column")
		case StepMinMax:
			requireString("column")
		case StepRowsByValue:
			requireString("column")
			if !s.Options.Has("value") {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     opt("value"),
					Message:  "rows_by_value step requires value",
				})
			}
		case StepTrainTest:
			size := s.Options.Float("test_size", 0.2)
			if math.IsNaN(size) || size < 0 || size > 1 {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     opt("test_size"),
					Message:  fmt.Sprintf("test_size=%v must be within [0, 1]", size),
				})
			}
			if s.Options.Int("seed", 0) < 0 {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     opt("seed"),
					Message:  "seed must not be negative",
				})
			}
		case StepHead:
			if s.Options.Int("n", 5) < 0 {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Path:     opt("n"),
					Message:  "negative n falls back to the default preview size",
				})
			}
		default:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".kind",
				Message:  fmt.Sprintf("unknown step kind %q", s.Kind),
			})
		}
	}

	return issues
}

func validateOutput(o Output) []Issue {
	var issues []Issue
	if o.Kind == "" && o.Path == "" {
		return nil
	}
	switch o.Kind {
	case "", "parquet", "csv", "json":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.kind",
			Message:  fmt.Sprintf("unknown output kind %q; want parquet, csv or json", o.Kind),
		})
	}
	if strings.TrimSpace(o.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.path",
			Message:  "output requires a non-empty path",
		})
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		return nil
	}

	known := map[string]struct{}{
		"postgres": {},
		"mssql":    {},
		"mysql":    {},
		"sqlite":   {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage.db.dsn must not be empty",
		})
	}
	if strings.TrimSpace(s.DB.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.table",
			Message:  "storage.db.table must not be empty",
		})
	}
	seen := map[string]bool{}
	for i, c := range s.DB.Columns {
		if seen[c] {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("storage.db.columns[%d]", i),
				Message:  fmt.Sprintf("duplicate column %q", c),
			})
		}
		seen[c] = true
	}

	return issues
}

func validateRuntime(r RuntimeConfig, sink bool) []Issue {
	var issues []Issue

	if sink && r.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; the sink falls back to its default batch size", r.BatchSize),
		})
	}
	if r.ChannelBuffer < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.channel_buffer",
			Message:  "channel_buffer must not be negative",
		})
	}

	return issues
}
