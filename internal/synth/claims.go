// Package synth builds synthetic claims and writes them as parquet in the
// layout the feature pipeline reads.
package synth

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// Diagnosis is one structured diagnosis record of a claim.
type Diagnosis struct {
	Code     string  `parquet:"diagnosis_code"`
	Sequence int32   `parquet:"diagnosis_sequence"`
	POA      *string `parquet:"present_on_admission,optional"` // Present on admission indicator
}

// Claim is one row of the claims file.
type Claim struct {
	PatientID     string      `parquet:"patient_id"`
	ClaimID       string      `parquet:"claim_id"`
	StatementFrom int32       `parquet:"claim_statement_from_date,date"`
	Diagnoses     []Diagnosis `parquet:"claim_all_diagnosis_codes,list"`
	ProcedureCode *string     `parquet:"procedure_code,optional"`
	ProcedureDate *time.Time  `parquet:"procedure_date,optional,date"`
}

var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// Date converts a calendar date to the parquet DATE representation (days
// since the Unix epoch).
func Date(year int, month time.Month, day int) int32 {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf converts t to days since the Unix epoch, ignoring the time of day.
func DateOf(t time.Time) int32 {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int32(d.Sub(epoch).Hours() / 24)
}

// Time converts a parquet DATE back to a UTC time.
func Time(days int32) time.Time { return epoch.AddDate(0, 0, int(days)) }

// Codes builds diagnosis records for codes, numbered from 1.
func Codes(codes ...string) []Diagnosis {
	out := make([]Diagnosis, len(codes))
	for i, c := range codes {
		out[i] = Diagnosis{Code: c, Sequence: int32(i + 1)}
	}
	return out
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// WriteParquet writes claims to path, replacing any existing file.
func WriteParquet(path string, claims []Claim) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet: %w", err)
	}

	w := parquet.NewGenericWriter[Claim](f, parquet.Compression(&zstd.Codec{}))
	if _, err := w.Write(claims); err != nil {
		_ = f.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	if err := w.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("close writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}

// ReadParquet reads every claim from path.
func ReadParquet(path string) ([]Claim, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	defer f.Close()

	r := parquet.NewGenericReader[Claim](f)
	defer r.Close()

	const readBatch = 1024
	out := make([]Claim, 0, r.NumRows())
	for {
		// Fresh buffer per batch: the reader may reuse nested slices.
		buf := make([]Claim, readBatch)
		n, readErr := r.Read(buf)
		out = append(out, buf[:n]...)
		if readErr == io.EOF {
			return out, nil
		}
		if readErr != nil {
			return nil, fmt.Errorf("read rows: %w", readErr)
		}
	}
}
