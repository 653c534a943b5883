// Package temporal sorts a dataset by its designated timestamp column and
// proves the result is non-decreasing. The post-sort check deliberately does
// not trust the sort primitive: its purpose is to catch normalization
// defects (mixed time zones, parsing edge cases) a sort alone would hide.
package temporal

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"meteoval/internal/dataset"
	apperrors "meteoval/internal/errors"
	"meteoval/pkg/contracts/domain"
)

// Canonicalizer orders datasets on their time axis.
type Canonicalizer struct {
	logger *slog.Logger
	column string
}

// NewCanonicalizer creates a canonicalizer for the designated timestamp column.
func NewCanonicalizer(logger *slog.Logger, column string) *Canonicalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Canonicalizer{logger: logger, column: column}
}

// Canonicalize converts the timestamp column to a normalized temporal
// representation, proves the pre-sort state, sorts stably ascending, and
// proves the post-sort state. The input table is not mutated; the returned
// table is a new value. An empty or single-row dataset is trivially
// monotonic and valid.
func (c *Canonicalizer) Canonicalize(t *dataset.Table) (*dataset.Table, domain.CanonicalizationReport, error) {
	report := domain.CanonicalizationReport{Column: c.column, Rows: t.NumRows()}

	normalized, err := c.normalize(t)
	if err != nil {
		return nil, report, err
	}

	col, _ := normalized.Column(c.column)

	// Null event times cannot be placed in the temporal order and must not
	// be silently dropped.
	if nulls := col.NullCount(); nulls > 0 {
		first := -1
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				first = i
				break
			}
		}
		return nil, report, apperrors.NewNullTimestampError(c.column, nulls).
			WithContext("first_null_row", first)
	}

	report.Before = proveOrder(col)
	c.logger.Info("temporal state before sort",
		slog.String("column", c.column),
		slog.Time("min", report.Before.Min),
		slog.Time("max", report.Before.Max),
		slog.Int("duplicate_timestamps", report.Before.DuplicateCount),
		slog.Bool("monotonic", report.Before.Monotonic))

	// Stable: rows sharing a timestamp keep their relative pre-sort order
	// so repeated runs reproduce byte-identical output.
	perm := make([]int, col.Len())
	for i := range perm {
		perm[i] = i
	}
	times := col.Times
	sort.SliceStable(perm, func(i, j int) bool {
		return times[perm[i]].Before(times[perm[j]])
	})

	sorted, err := normalized.Reorder(perm)
	if err != nil {
		return nil, report, apperrors.NewResourceError("failed to reorder dataset", err)
	}

	sortedCol, _ := sorted.Column(c.column)

	// Independent adjacency verification of the entire sorted axis.
	for i := 0; i+1 < sortedCol.Len(); i++ {
		if sortedCol.Times[i+1].Before(sortedCol.Times[i]) {
			return nil, report, apperrors.NewMonotonicityError(c.column, i+1)
		}
	}

	report.After = proveOrder(sortedCol)
	report.SortedAt = time.Now().UTC()

	c.logger.Info("temporal state after sort",
		slog.String("column", c.column),
		slog.Time("min", report.After.Min),
		slog.Time("max", report.After.Max),
		slog.Int("duplicate_timestamps", report.After.DuplicateCount),
		slog.Bool("monotonic", report.After.Monotonic))

	return sorted, report, nil
}

// normalize returns a table whose designated column is a timestamp column.
// Textual columns are parsed row by row; a single unparsable value is fatal
// because an unparsable time axis invalidates every downstream temporal
// claim.
func (c *Canonicalizer) normalize(t *dataset.Table) (*dataset.Table, error) {
	col, ok := t.Column(c.column)
	if !ok {
		return nil, apperrors.NewConversionError(c.column, fmt.Errorf("column not present in dataset"))
	}

	switch col.Type {
	case dataset.TypeTimestamp:
		return t, nil
	case dataset.TypeString:
		times := make([]time.Time, col.Len())
		nulls := make([]bool, col.Len())
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				nulls[i] = true
				continue
			}
			parsed, err := dataset.ParseTimestamp(col.Strings[i])
			if err != nil {
				return nil, apperrors.NewConversionError(c.column, err).
					WithContext("row", i)
			}
			times[i] = parsed
		}
		converted := dataset.Column{
			Type:  dataset.TypeTimestamp,
			Times: times,
			Nulls: nulls,
		}
		out, err := t.ReplaceColumn(c.column, converted)
		if err != nil {
			return nil, apperrors.NewConversionError(c.column, err)
		}
		c.logger.Info("converted column to timestamps",
			slog.String("column", c.column),
			slog.Int("rows", col.Len()))
		return out, nil
	default:
		return nil, apperrors.NewConversionError(c.column,
			fmt.Errorf("column has type %s, expected timestamp or text", col.Type))
	}
}

// proveOrder computes the order proof for a fully non-null timestamp column.
func proveOrder(col *dataset.Column) domain.TemporalOrderProof {
	proof := domain.TemporalOrderProof{Monotonic: true}
	if col.Len() == 0 {
		return proof
	}

	proof.Min = col.Times[0]
	proof.Max = col.Times[0]
	seen := make(map[int64]struct{}, col.Len())
	seen[col.Times[0].UnixNano()] = struct{}{}

	for i := 1; i < col.Len(); i++ {
		ts := col.Times[i]
		if ts.Before(proof.Min) {
			proof.Min = ts
		}
		if ts.After(proof.Max) {
			proof.Max = ts
		}
		if ts.Before(col.Times[i-1]) {
			proof.Monotonic = false
		}
		seen[ts.UnixNano()] = struct{}{}
	}

	// Rows minus distinct values: every repeat of an earlier timestamp
	// counts once, matching the duplicated-row convention of the evidence
	// reports. Duplicates are legitimate (co-located sensors) and reported,
	// never rejected.
	proof.DuplicateCount = col.Len() - len(seen)

	return proof
}
