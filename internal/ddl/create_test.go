package ddl

import (
	"strings"
	"testing"

	"claimsfe/internal/frame"
)

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		wantSQL     string
		errContains string
	}{
		{
			name:        "empty FQN returns error",
			def:         TableDef{Columns: []ColumnDef{{Name: "id", SQLType: "INT"}}},
			errContains: "table FQN must not be empty",
		},
		{
			name:        "no columns returns error",
			def:         TableDef{FQN: "public.t"},
			errContains: "at least one column is required",
		},
		{
			name:        "column with empty name returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{SQLType: "INT"}}},
			errContains: "column with empty name",
		},
		{
			name:        "column with empty type returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id"}}},
			errContains: "missing SQLType",
		},
		{
			name: "duplicate column returns error",
			def: TableDef{FQN: "t", Columns: []ColumnDef{
				{Name: "id", SQLType: "INT"}, {Name: "id", SQLType: "TEXT"},
			}},
			errContains: "duplicate column id",
		},
		{
			name: "schema qualified with quoting",
			def: TableDef{FQN: "public.claim_features", Columns: []ColumnDef{
				{Name: "patient_id", SQLType: "TEXT"},
				{Name: `odd"name`, SQLType: "JSONB"},
			}},
			wantSQL: "CREATE TABLE IF NOT EXISTS \"public\".\"claim_features\" (\n" +
				"  \"patient_id\" TEXT,\n  \"odd\"\"name\" JSONB\n);",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := BuildCreateTableSQL(tt.def, QuoteDouble)
			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("err = %v, want containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildCreateTableSQL: %v", err)
			}
			if got != tt.wantSQL {
				t.Fatalf("sql = %q, want %q", got, tt.wantSQL)
			}
		})
	}
}

func TestQuoteFQN(t *testing.T) {
	t.Parallel()

	if got := QuoteFQN("a. b..c", QuoteDouble); got != `"a"."b"."c"` {
		t.Fatalf("QuoteFQN = %s", got)
	}
}

func TestFromColumns(t *testing.T) {
	t.Parallel()

	cols := []frame.Column{{Name: "patient_id", Type: "VARCHAR"}, {Name: "comorbidities", Type: "VARCHAR[]"}}
	def := FromColumns("f", cols, func(c frame.Column) string {
		if c.Nested() {
			return "JSON"
		}
		return "TEXT"
	})
	if def.FQN != "f" || len(def.Columns) != 2 {
		t.Fatalf("def = %+v", def)
	}
	if def.Columns[0] != (ColumnDef{Name: "patient_id", SQLType: "TEXT"}) ||
		def.Columns[1] != (ColumnDef{Name: "comorbidities", SQLType: "JSON"}) {
		t.Fatalf("columns = %+v", def.Columns)
	}
}
