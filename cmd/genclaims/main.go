// Command genclaims writes a synthetic claims parquet file for trying out
// and benchmarking the feature pipeline.
//
//	genclaims -out claims.parquet -patients 1000 -seed 7
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"claimsfe/internal/synth"
)

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("genclaims", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		out       = fs.String("out", "claims.parquet", "output parquet path")
		patients  = fs.Int("patients", 1000, "number of distinct patients")
		maxClaims = fs.Int("max-claims", 8, "maximum claims per patient")
		start     = fs.String("start", "2020-01-01", "earliest claim date (YYYY-MM-DD)")
		spanDays  = fs.Int("span-days", 730, "claims fall within this many days of -start")
		procRate  = fs.Float64("procedure-rate", 0.4, "probability that a claim carries a procedure")
		seed      = fs.Uint64("seed", 1, "random seed; equal seeds produce equal files")
		verbose   = fs.Bool("v", false, "enable verbose logs")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	from, err := time.Parse(time.DateOnly, *start)
	if err != nil {
		return fmt.Errorf("bad -start: %w", err)
	}
	if *patients <= 0 {
		return fmt.Errorf("-patients must be > 0")
	}
	if *procRate < 0 || *procRate > 1 {
		return fmt.Errorf("-procedure-rate must be within [0, 1]")
	}

	t0 := time.Now()
	claims := synth.Generate(synth.Params{
		Patients:      *patients,
		MaxClaims:     *maxClaims,
		Start:         from,
		SpanDays:      *spanDays,
		ProcedureRate: *procRate,
		Seed:          *seed,
	})
	if err := synth.WriteParquet(*out, claims); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	if *verbose {
		log.Printf("wrote %d claims for %d patients to %s in %s",
			len(claims), *patients, *out, time.Since(t0).Truncate(time.Millisecond))
	}
	return nil
}
