package ddl

import (
	"testing"

	"claimsfe/internal/frame"
)

func TestMapType(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"VARCHAR":                  "LONGTEXT",
		"BIGINT":                   "BIGINT",
		"UBIGINT":                  "BIGINT UNSIGNED",
		"HUGEINT":                  "DECIMAL(38, 0)",
		"DOUBLE":                   "DOUBLE",
		"DECIMAL(10,2)":            "DECIMAL(10,2)",
		"BOOLEAN":                  "BOOLEAN",
		"DATE":                     "DATE",
		"TIMESTAMP WITH TIME ZONE": "DATETIME(6)",
		"BLOB":                     "LONGBLOB",
		"VARCHAR[]":                "JSON",
		"MAP(VARCHAR, VARCHAR)":    "JSON",
	}
	for typ, want := range tests {
		if got := MapType(frame.Column{Name: "c", Type: typ}); got != want {
			t.Errorf("MapType(%q) = %q, want %q", typ, got, want)
		}
	}
}

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := BuildCreateTableSQL("claims.features", []frame.Column{
		{Name: "patient_id", Type: "VARCHAR"},
		{Name: "comorbidities", Type: "VARCHAR[]"},
	})
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS `claims`.`features` (\n  `patient_id` LONGTEXT,\n  `comorbidities` JSON\n);"
	if got != want {
		t.Fatalf("sql = %q, want %q", got, want)
	}
	if _, err := BuildCreateTableSQL("features", nil); err == nil {
		t.Fatal("table without columns accepted")
	}
}
