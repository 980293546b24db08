package features

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"claimsfe/internal/frame"
	"claimsfe/internal/udf"
)

// MergePolicy decides what RemoveDiagnosisCodes does with claims that
// become identical once codes are removed.
type MergePolicy int

const (
	// MergePreserveRows keeps every claim; only its diagnosis list changes.
	MergePreserveRows MergePolicy = iota
	// MergeDuplicateRows collapses claims that are equal on every column but
	// the diagnosis list (and claim_seq). Their lists are concatenated in
	// load order and the smallest claim_seq is kept.
	MergeDuplicateRows
)

func (m MergePolicy) String() string {
	switch m {
	case MergePreserveRows:
		return "preserve_rows"
	case MergeDuplicateRows:
		return "merge_duplicates"
	}
	return fmt.Sprintf("MergePolicy(%d)", int(m))
}

// ParseMergePolicy maps a config value to a MergePolicy. Empty means
// MergePreserveRows.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "preserve_rows":
		return MergePreserveRows, nil
	case "merge_duplicates":
		return MergeDuplicateRows, nil
	}
	return 0, fmt.Errorf("features: unknown merge policy %q", s)
}

// RemoveOption configures RemoveDiagnosisCodes.
type RemoveOption func(*removeConfig)

type removeConfig struct {
	merge MergePolicy
}

// WithMerge selects the merge policy.
func WithMerge(m MergePolicy) RemoveOption {
	return func(c *removeConfig) { c.merge = m }
}

// NormalizeCodes trims and NFKC-normalizes codes, dropping empties and
// duplicates. The result is sorted.
func NormalizeCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = udf.NormalizeCode(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// RemoveDiagnosisCodes drops every diagnosis whose code is in codes from
// claim_all_diagnosis_codes. Both sides are compared after NormalizeCode.
// Diagnoses with a NULL code are dropped too. A claim whose list ends up
// empty stays, with an empty list.
func (p *Pipeline) RemoveDiagnosisCodes(ctx context.Context, codes []string, opts ...RemoveOption) error {
	cfg := removeConfig{merge: MergePreserveRows}
	for _, o := range opts {
		o(&cfg)
	}
	excluded := NormalizeCodes(codes)

	return p.step(ctx, "remove_diagnosis_codes", "", "DataFrame After Removing Diagnosis Codes",
		func(ctx context.Context, t *frame.Table) (*frame.Table, error) {
			if err := t.Require(frame.DiagnosisColumn); err != nil {
				return nil, err
			}
			dx, _ := t.Column(frame.DiagnosisColumn)
			filtered := t.Projection(frame.Derived{Name: dx.Name, Expr: filterCodes(dx, excluded)})

			switch cfg.merge {
			case MergePreserveRows:
				return t.Replace(ctx, fmt.Sprintf("SELECT %s FROM %s", filtered, t.Ref()))
			case MergeDuplicateRows:
				return t.Replace(ctx, mergeDuplicates(t, filtered))
			}
			return nil, fmt.Errorf("unknown merge policy %v", cfg.merge)
		})
}

// filterCodes is the filtered diagnosis list expression. A NULL list
// becomes an empty one. A NULL code makes the lambda NULL, which
// list_filter treats as false.
func filterCodes(c frame.Column, excluded []string) string {
	col := frame.Ident(c.Name)
	empty := fmt.Sprintf("CAST([] AS %s)", c.Type)
	if len(excluded) == 0 {
		return fmt.Sprintf("coalesce(%s, %s)", col, empty)
	}

	code := "d"
	if isRecordList(c) {
		code = "d." + frame.Ident(DiagnosisCodeField)
	}
	return fmt.Sprintf("coalesce(list_filter(%s, lambda d: %s(CAST(%s AS VARCHAR)) NOT IN (%s)), %s)",
		col, udf.NormalizeCodeFunc, code, frame.LiteralList(excluded), empty)
}

// mergeDuplicates groups the filtered rows by every column except the
// diagnosis list and claim_seq, then restores the original column order.
func mergeDuplicates(t *frame.Table, filtered string) string {
	dx := frame.Ident(frame.DiagnosisColumn)
	seq := frame.Ident(frame.SeqColumn)
	hasSeq := t.Has(frame.SeqColumn)

	var keys, order []string
	for _, name := range t.ColumnNames() {
		order = append(order, frame.Ident(name))
		if name == frame.DiagnosisColumn || name == frame.SeqColumn {
			continue
		}
		keys = append(keys, frame.Ident(name))
	}

	aggs := []string{fmt.Sprintf("flatten(list(%s)) AS %s", dx, dx)}
	if hasSeq {
		aggs = []string{
			fmt.Sprintf("min(%s) AS %s", seq, seq),
			fmt.Sprintf("flatten(list(%s ORDER BY %s)) AS %s", dx, seq, dx),
		}
	}
	inner := strings.Join(append(keys, aggs...), ", ")

	return fmt.Sprintf(
		"WITH filtered AS (SELECT %s FROM %s), merged AS (SELECT %s FROM filtered GROUP BY ALL) SELECT %s FROM merged",
		filtered, t.Ref(), inner, strings.Join(order, ", "))
}
