package storage

import (
	"fmt"
	"math/big"
	"time"

	"github.com/duckdb/duckdb-go/v2"
	json "github.com/goccy/go-json"
)

// EncodeValue converts an engine value into something every SQL driver
// accepts. Lists, structs and maps become JSON text; scalars pass through.
func EncodeValue(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool, int64, int32, int16, int8, float64, float32, []byte, time.Time:
		return v, nil
	case uint8, uint16, uint32, int:
		return v, nil
	case uint64:
		return fmt.Sprint(x), nil
	case *big.Int:
		return x.String(), nil
	case duckdb.Decimal:
		return x.Float64(), nil
	case []any, map[string]any, duckdb.Map:
		tree, err := jsonTree(v)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(tree)
		if err != nil {
			return nil, fmt.Errorf("encode %T: %w", v, err)
		}
		return string(b), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// EncodeRow encodes values into dst, which must have the same length.
func EncodeRow(dst, values []any) error {
	if len(dst) != len(values) {
		return fmt.Errorf("encode row: %d values for %d columns", len(values), len(dst))
	}
	for i, v := range values {
		e, err := EncodeValue(v)
		if err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
		dst[i] = e
	}
	return nil
}

// jsonTree rewrites engine nested values into types json.Marshal handles.
// Map keys are stringified. Dates render as YYYY-MM-DD.
func jsonTree(v any) (any, error) {
	switch x := v.(type) {
	case duckdb.Map:
		out := make(map[string]any, len(x))
		for k, val := range x {
			tv, err := jsonTree(val)
			if err != nil {
				return nil, err
			}
			out[mapKey(k)] = tv
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			tv, err := jsonTree(val)
			if err != nil {
				return nil, err
			}
			out[k] = tv
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			tv, err := jsonTree(val)
			if err != nil {
				return nil, err
			}
			out[i] = tv
		}
		return out, nil
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly), nil
		}
		return x.Format(time.RFC3339Nano), nil
	case *big.Int:
		return x.String(), nil
	case duckdb.Decimal:
		return x.Float64(), nil
	default:
		return v, nil
	}
}

func mapKey(k any) string {
	switch x := k.(type) {
	case string:
		return x
	case time.Time:
		return x.Format(time.DateOnly)
	default:
		return fmt.Sprint(k)
	}
}
