// Package profile computes the statistical evidence for a dataset: per
// numeric column descriptive statistics, configurable quantiles, duplicate
// row counts and min/max range anomaly flags.
package profile

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"meteoval/internal/dataset"
	apperrors "meteoval/internal/errors"
	"meteoval/pkg/contracts/domain"
)

// Config tunes the profiler.
type Config struct {
	// Quantiles are the probability points evaluated per numeric column.
	Quantiles []float64
	// SampleThreshold and SampleSeed bound the size of sampling-based
	// consumers. The seed is fixed so repeated runs on the same data draw
	// the same sample.
	SampleThreshold int
	SampleSeed      int64
	// HighRangeQuantile is the sibling-range percentile above which a
	// column's span is flagged high_range. Advisory only.
	HighRangeQuantile float64
}

// Profiler computes ProfileReports over datasets.
type Profiler struct {
	logger *slog.Logger
	cfg    Config
}

// NewProfiler creates a profiler. Zero config fields fall back to the
// reference defaults.
func NewProfiler(logger *slog.Logger, cfg Config) *Profiler {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Quantiles) == 0 {
		cfg.Quantiles = []float64{0.01, 0.05, 0.95, 0.99}
	}
	if cfg.SampleThreshold <= 0 {
		cfg.SampleThreshold = 200000
	}
	if cfg.SampleSeed == 0 {
		cfg.SampleSeed = 42
	}
	if cfg.HighRangeQuantile <= 0 || cfg.HighRangeQuantile >= 1 {
		cfg.HighRangeQuantile = 0.95
	}
	return &Profiler{logger: logger, cfg: cfg}
}

// Profile computes the full statistical evidence for t. Datasets with no
// numeric columns yield an empty profile; that is not an error.
func (p *Profiler) Profile(ctx context.Context, t *dataset.Table) (domain.ProfileReport, error) {
	report := domain.ProfileReport{}

	var numeric []*dataset.Column
	for i, col := range t.Columns() {
		if col.Type.Numeric() {
			numeric = append(numeric, &t.Columns()[i])
			report.NumericColumns = append(report.NumericColumns, col.Name)
		}
	}

	if len(numeric) == 0 {
		p.logger.Info("no numeric columns, profile is empty")
		return report, nil
	}

	// Column statistics are independent of each other; compute them
	// concurrently. Results land in pre-sized slices so output order never
	// depends on scheduling.
	stats := make([]domain.ColumnStats, len(numeric))
	quantiles := make([][]float64, len(numeric))

	g, gctx := errgroup.WithContext(ctx)
	for i, col := range numeric {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			values := gatherNonNull(col)
			stats[i] = describe(col.Name, values)
			quantiles[i] = quantilesOf(values, p.cfg.Quantiles)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, apperrors.NewResourceError("column statistics aborted", err)
	}

	report.Describe = stats

	report.Quantiles = make([]domain.QuantileRow, len(p.cfg.Quantiles))
	for qi, q := range p.cfg.Quantiles {
		row := domain.QuantileRow{Q: q, Values: make(map[string]float64, len(numeric))}
		for i, col := range numeric {
			row.Values[col.Name] = quantiles[i][qi]
		}
		report.Quantiles[qi] = row
	}

	report.RangeFlags = p.rangeFlags(stats)

	p.logger.Info("computed statistical profile",
		slog.Int("numeric_columns", len(numeric)),
		slog.Int("quantile_points", len(p.cfg.Quantiles)))

	return report, nil
}

// rangeFlags derives the per-column span audit from the describe set.
func (p *Profiler) rangeFlags(stats []domain.ColumnStats) []domain.RangeFlag {
	flags := make([]domain.RangeFlag, len(stats))
	ranges := make([]float64, 0, len(stats))
	for i, s := range stats {
		flags[i] = domain.RangeFlag{
			Column:   s.Column,
			Min:      s.Min,
			Max:      s.Max,
			Range:    s.Max - s.Min,
			Inverted: s.Max < s.Min,
		}
		ranges = append(ranges, flags[i].Range)
	}

	sort.Float64s(ranges)
	threshold := interpolate(ranges, p.cfg.HighRangeQuantile)
	for i := range flags {
		flags[i].HighRange = flags[i].Range > threshold
		if flags[i].Inverted {
			p.logger.Error("inverted range detected, data corruption upstream",
				slog.String("column", flags[i].Column),
				slog.Float64("min", flags[i].Min),
				slog.Float64("max", flags[i].Max))
		}
	}
	return flags
}

// DuplicateRows counts rows that repeat an earlier row across all columns,
// recording the elapsed scan time for the evidence report.
func (p *Profiler) DuplicateRows(t *dataset.Table) domain.DuplicateReport {
	start := time.Now()

	seen := make(map[string]struct{}, t.NumRows())
	cols := t.Columns()
	var b strings.Builder
	for i := 0; i < t.NumRows(); i++ {
		b.Reset()
		for j := range cols {
			b.WriteString(cols[j].Render(i))
			b.WriteByte(0x1f)
		}
		seen[b.String()] = struct{}{}
	}

	report := domain.DuplicateReport{
		DuplicateRows: t.NumRows() - len(seen),
		ElapsedSec:    time.Since(start).Seconds(),
	}

	p.logger.Info("counted duplicate rows",
		slog.Int("duplicate_rows", report.DuplicateRows),
		slog.Float64("elapsed_s", report.ElapsedSec))

	return report
}

// Sample returns t unchanged when it fits the threshold, otherwise a
// fixed-seed uniform row sample of threshold size. Row order is preserved
// so sampled output remains temporally ordered.
func (p *Profiler) Sample(t *dataset.Table) (*dataset.Table, bool, error) {
	if t.NumRows() <= p.cfg.SampleThreshold {
		return t, false, nil
	}

	rng := rand.New(rand.NewSource(p.cfg.SampleSeed))
	indices := rng.Perm(t.NumRows())[:p.cfg.SampleThreshold]
	sort.Ints(indices)

	sampled, err := t.Take(indices)
	if err != nil {
		return nil, false, apperrors.NewResourceError("failed to sample dataset", err)
	}

	p.logger.Info("sampled dataset for bounded-memory consumers",
		slog.Int("rows", t.NumRows()),
		slog.Int("sampled_rows", sampled.NumRows()),
		slog.Int64("seed", p.cfg.SampleSeed))

	return sampled, true, nil
}

// Seed exposes the configured sample seed for provenance records.
func (p *Profiler) Seed() int64 {
	return p.cfg.SampleSeed
}

// gatherNonNull extracts the column's non-null values widened to float64.
func gatherNonNull(col *dataset.Column) []float64 {
	values := make([]float64, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		if v, ok := col.Float(i); ok {
			values = append(values, v)
		}
	}
	return values
}

// describe computes the count/mean/std/min/quartile/max set. Std is the
// sample standard deviation, matching the conventional describe() output.
func describe(name string, values []float64) domain.ColumnStats {
	stats := domain.ColumnStats{Column: name, Count: len(values)}
	if len(values) == 0 {
		stats.Std = math.NaN()
		return stats
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	stats.Mean = sum / float64(len(values))

	if len(values) > 1 {
		ss := 0.0
		for _, v := range values {
			d := v - stats.Mean
			ss += d * d
		}
		stats.Std = math.Sqrt(ss / float64(len(values)-1))
	} else {
		stats.Std = math.NaN()
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	stats.Min = sorted[0]
	stats.Max = sorted[len(sorted)-1]
	stats.Q25 = interpolate(sorted, 0.25)
	stats.Median = interpolate(sorted, 0.50)
	stats.Q75 = interpolate(sorted, 0.75)

	return stats
}

// quantilesOf evaluates the configured probability points over values.
func quantilesOf(values []float64, qs []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	out := make([]float64, len(qs))
	for i, q := range qs {
		out[i] = interpolate(sorted, q)
	}
	return out
}

// interpolate is the linear-interpolation quantile over a sorted slice.
func interpolate(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
