package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"claimsfe/internal/config"
	"claimsfe/internal/features"
	"claimsfe/internal/frame"
	"claimsfe/internal/metrics"
	"claimsfe/internal/session"
	"claimsfe/internal/storage"
)

const defaultChannelBuffer = 1000

// run executes p end to end. Step results that return rows (head,
// rows_by_value, train_test) and min_max bounds are printed to w.
func run(ctx context.Context, p config.Pipeline, w io.Writer) error {
	s, err := session.Open(ctx, sessionConfig(p.Session))
	if err != nil {
		return err
	}
	defer s.Close()

	format, err := sourceFormat(p.Source.Kind)
	if err != nil {
		return err
	}
	t, err := s.LoadFormat(ctx, p.Source.File.Path, format)
	if err != nil {
		return err
	}

	pl := features.New(t, features.WithJob(jobName(p)))
	for i, st := range p.Steps {
		if err := runStep(ctx, pl, st, w); err != nil {
			return fmt.Errorf("steps[%d] %s: %w", i, st.Kind, err)
		}
	}

	final := pl.Table()
	if p.Output.Kind != "" {
		if err := export(ctx, p, final); err != nil {
			return err
		}
	}
	if p.Storage.Kind != "" {
		n, err := sink(ctx, p, final)
		if err != nil {
			return fmt.Errorf("storage %s: %w", p.Storage.Kind, err)
		}
		log.Printf("storage: copied %d rows into %s", n, p.Storage.DB.Table)
	}
	return nil
}

func sessionConfig(c config.SessionConfig) session.Config {
	return session.Config{
		Database:               c.Database,
		Threads:                c.Threads,
		MemoryLimit:            c.MemoryLimit,
		TempDirectory:          c.TempDirectory,
		PreserveInsertionOrder: c.PreserveInsertionOrder,
		Settings:               c.Settings,
	}
}

func sourceFormat(kind string) (frame.Format, error) {
	switch strings.ToLower(kind) {
	case "", "parquet":
		return frame.FormatParquet, nil
	case "json", "ndjson":
		return frame.FormatJSON, nil
	}
	return "", fmt.Errorf("unknown source kind %q", kind)
}

// runStep dispatches one configured step to the pipeline.
func runStep(ctx context.Context, pl *features.Pipeline, st config.Step, w io.Writer) error {
	o := st.Options
	switch st.Kind {
	case config.StepRemoveDiagnosisCodes:
		merge, err := features.ParseMergePolicy(o.String("merge", ""))
		if err != nil {
			return err
		}
		return pl.RemoveDiagnosisCodes(ctx, o.StringSlice("codes"), features.WithMerge(merge))

	case config.StepComorbidities:
		return pl.AddComorbidities(ctx)

	case config.StepProcedureArray:
		return pl.AddProcedureArray(ctx,
			o.String("procedure_column", "procedure_code"),
			o.String("date_column", "procedure_date"))

	case config.StepFirstVisit:
		return pl.CalculateFirstVisitAndDuration(ctx)

	case config.StepMinMax:
		col := o.String("column", "")
		b, err := pl.MinMax(ctx, col)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: min=%s max=%s\n", col, formatValue(b.Min), formatValue(b.Max))
		return nil

	case config.StepTrainTest:
		seed := o.Int("seed", features.DefaultSeed)
		if seed < 0 {
			return fmt.Errorf("seed must not be negative")
		}
		rows, err := pl.AddTrainTestIndicator(ctx,
			o.Float("test_size", features.DefaultTestSize),
			features.WithSeed(uint64(seed)))
		if err != nil {
			return err
		}
		return printRows(w, rows)

	case config.StepHead:
		rows, err := pl.Head(ctx, o.Int("n", features.DefaultHead))
		if err != nil {
			return err
		}
		return printRows(w, rows)

	case config.StepRowsByValue:
		rows, err := pl.RowsByColumnValue(ctx, o.String("column", ""), o.Any("value"))
		if err != nil {
			return err
		}
		return printRows(w, rows)
	}
	return fmt.Errorf("unknown step kind %q", st.Kind)
}

func export(ctx context.Context, p config.Pipeline, t *frame.Table) error {
	format, err := frame.ParseFormat(p.Output.Kind)
	if err != nil {
		return err
	}
	start := time.Now()
	if err := t.Export(ctx, p.Output.Path, format); err != nil {
		return err
	}
	n, err := t.Count(ctx)
	if err != nil {
		return err
	}
	metrics.RecordRow(jobName(p), "exported", n)
	log.Printf("output: wrote %d rows to %s (%s) in %s", n, p.Output.Path, format, time.Since(start).Truncate(time.Millisecond))
	return nil
}

// sink copies t into the configured database. One goroutine streams the
// table and encodes rows; LoadBatches drains them into the repository.
func sink(ctx context.Context, p config.Pipeline, t *frame.Table) (int64, error) {
	cols, err := storage.SelectColumns(t, p.Storage.DB.Columns)
	if err != nil {
		return 0, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	repo, err := storage.New(ctx, storage.Config{
		Kind:    p.Storage.Kind,
		DSN:     p.Storage.DB.DSN,
		Table:   p.Storage.DB.Table,
		Columns: names,
	})
	if err != nil {
		return 0, err
	}
	defer repo.Close()

	if p.Storage.DB.AutoCreateTable {
		if err := storage.EnsureTable(ctx, p.Storage.Kind, repo, p.Storage.DB.Table, cols); err != nil {
			return 0, fmt.Errorf("apply DDL: %w", err)
		}
	}

	idx := columnIndexes(t.ColumnNames(), names)
	rowsCh := make(chan []any, pickInt(p.Runtime.ChannelBuffer, defaultChannelBuffer))
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(rowsCh)
		return t.Stream(gctx, func(values []any) error {
			picked := make([]any, len(idx))
			for j, k := range idx {
				picked[j] = values[k]
			}
			row := make([]any, len(idx))
			if err := storage.EncodeRow(row, picked); err != nil {
				return err
			}
			select {
			case rowsCh <- row:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	var inserted int64
	g.Go(func() error {
		n, err := storage.LoadBatches(gctx, jobName(p), names, rowsCh,
			pickInt(p.Runtime.BatchSize, storage.DefaultBatchSize), repo.CopyFrom)
		inserted = n
		return err
	})

	if err := g.Wait(); err != nil {
		return inserted, err
	}
	return inserted, nil
}

// columnIndexes maps each of names to its position in all.
func columnIndexes(all, names []string) []int {
	pos := make(map[string]int, len(all))
	for i, c := range all {
		pos[c] = i
	}
	out := make([]int, len(names))
	for i, n := range names {
		out[i] = pos[n]
	}
	return out
}

// printRows renders rows as an aligned text table.
func printRows(w io.Writer, rows frame.Rows) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(rows.Columns, "\t"))
	for _, r := range rows.Values {
		cells := make([]string, len(r))
		for i, v := range r {
			cells[i] = formatValue(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// formatValue prints dates as YYYY-MM-DD and nested values as JSON.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339)
	}
	enc, err := storage.EncodeValue(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return fmt.Sprint(enc)
}

// pickInt chooses the first positive value a, otherwise returns b.
func pickInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}
