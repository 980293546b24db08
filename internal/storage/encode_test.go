package storage

import (
	"math/big"
	"testing"
	"time"

	"github.com/duckdb/duckdb-go/v2"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	day := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"string", "A-1", "A-1"},
		{"int64", int64(7), int64(7)},
		{"int32", int32(7), int32(7)},
		{"date", day, day},
		{"bigint", big.NewInt(12), "12"},
		{"uint64", uint64(3), "3"},
		{"string list", []any{"D1", "D3"}, `["D1","D3"]`},
		{"empty list", []any{}, `[]`},
		{"struct", map[string]any{"diagnosis_code": "D1"}, `{"diagnosis_code":"D1"}`},
		{"struct list", []any{map[string]any{"diagnosis_code": "D1"}, nil}, `[{"diagnosis_code":"D1"},null]`},
		{"map", duckdb.Map{"P2": "2020-02-01", "P1": "2020-03-01"}, `{"P1":"2020-03-01","P2":"2020-02-01"}`},
		{"map with date values", duckdb.Map{"P1": day}, `{"P1":"2020-03-01"}`},
		{"list with timestamp", []any{time.Date(2020, 3, 1, 10, 30, 0, 0, time.UTC)}, `["2020-03-01T10:30:00Z"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := EncodeValue(tt.in)
			if err != nil {
				t.Fatalf("EncodeValue(%v): %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("EncodeValue(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeRow(t *testing.T) {
	t.Parallel()

	dst := make([]any, 2)
	if err := EncodeRow(dst, []any{"A", []any{"D1"}}); err != nil {
		t.Fatalf("EncodeRow: %v", err)
	}
	if dst[0] != "A" || dst[1] != `["D1"]` {
		t.Fatalf("EncodeRow = %v", dst)
	}
	if err := EncodeRow(dst, []any{"A"}); err == nil {
		t.Fatal("EncodeRow with short values succeeded")
	}
}
