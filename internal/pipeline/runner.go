package pipeline

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"meteoval/internal/config"
	"meteoval/internal/dataset"
	apperrors "meteoval/internal/errors"
	"meteoval/internal/evidence"
	"meteoval/internal/infrastructure"
	"meteoval/internal/integrity"
	"meteoval/internal/profile"
	"meteoval/internal/schema"
	"meteoval/internal/temporal"
	"meteoval/pkg/contracts"
	"meteoval/pkg/contracts/domain"
)

// Runner executes the full validation pipeline: integrity, schema
// comparison, temporal canonicalization, statistical profiling, evidence.
// Stages run in a fixed order because each consumes the previous stage's
// output; a fatal stage error aborts the run before metadata is written, so
// a metadata file existing is itself proof the run completed.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	tracer trace.Tracer
	probe  infrastructure.EnvironmentProbe
	clock  func() time.Time
}

// NewRunner wires a runner from loaded configuration. The probe may be nil,
// in which case no environment observations are recorded.
func NewRunner(cfg *config.Config, logger *slog.Logger, tracer trace.Tracer, probe infrastructure.EnvironmentProbe) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if probe == nil {
		probe = infrastructure.NopProbe{}
	}
	return &Runner{
		cfg:    cfg,
		logger: logger,
		tracer: tracer,
		probe:  probe,
		clock:  time.Now,
	}
}

// Run executes one complete validation run under the given path set and
// returns its metadata. The returned metadata is also persisted as the
// final artifact.
func (r *Runner) Run(ctx context.Context, paths *config.Paths) (domain.RunMetadata, error) {
	start := r.clock().UTC()
	if err := paths.EnsureDirectories(); err != nil {
		return domain.RunMetadata{}, err
	}

	logger := r.logger.With(slog.String("run_id", paths.RunID))
	logger.InfoContext(ctx, "run started",
		slog.String("version", contracts.Version),
		slog.String("evidence_dir", paths.EvidenceDir))

	writer := evidence.NewWriter(logger, paths)
	outputs := map[string]string{"run_log": paths.RunLogPath()}

	// Stage 1: integrity.
	verifier, err := integrity.NewVerifier(logger, domain.HashAlgorithm(r.cfg.Inputs.Hash))
	if err != nil {
		return domain.RunMetadata{}, err
	}
	parquetPath, err := r.resolveParquet(ctx, verifier)
	if err != nil {
		return domain.RunMetadata{}, err
	}
	var csvRecord, parquetRecord domain.IntegrityRecord
	err = r.stage(ctx, "integrity", func(ctx context.Context) error {
		var err error
		if csvRecord, err = verifier.Verify(r.cfg.Inputs.CSVPath); err != nil {
			return err
		}
		parquetRecord, err = verifier.Verify(parquetPath)
		return err
	})
	if err != nil {
		return domain.RunMetadata{}, err
	}

	// Stage 2: load both encodings.
	var csvTable, parquetTable *dataset.Table
	loadStart := r.clock()
	err = r.stage(ctx, "load", func(ctx context.Context) error {
		var err error
		if csvTable, err = dataset.LoadCSV(r.cfg.Inputs.CSVPath, logger); err != nil {
			return err
		}
		parquetTable, err = dataset.LoadParquet(parquetPath, logger)
		return err
	})
	if err != nil {
		return domain.RunMetadata{}, err
	}
	loadSec := r.clock().Sub(loadStart).Seconds()

	// Stage 3: schema comparison. A mismatch is a recorded finding, not a
	// failure: both encodings stay inspectable either way.
	inspector := schema.NewInspector(logger)
	var csvSchema, parquetSchema domain.SchemaRecord
	var comparison domain.SchemaComparison
	err = r.stage(ctx, "schema", func(ctx context.Context) error {
		csvSchema = inspector.Inspect(csvTable)
		parquetSchema = inspector.Inspect(parquetTable)
		comparison = inspector.Compare(parquetSchema, csvSchema)
		if !comparison.SameShape || !comparison.SameColumns {
			logger.WarnContext(ctx, "schema mismatch between encodings",
				slog.Bool("same_shape", comparison.SameShape),
				slog.Bool("same_columns", comparison.SameColumns),
				slog.Int("drift_count", len(comparison.Drift)))
		}
		path, err := writer.WriteSchemaComparison(csvSchema, parquetSchema)
		if err != nil {
			return err
		}
		outputs["schema_comparison"] = path
		return nil
	})
	if err != nil {
		return domain.RunMetadata{}, err
	}

	// Stage 4: temporal canonicalization of the parquet encoding, which is
	// the one downstream consumers read.
	canonicalizer := temporal.NewCanonicalizer(logger, r.cfg.Temporal.DateColumn)
	var canonical *dataset.Table
	var temporalReport domain.CanonicalizationReport
	err = r.stage(ctx, "temporal", func(ctx context.Context) error {
		var err error
		canonical, temporalReport, err = canonicalizer.Canonicalize(parquetTable)
		if err != nil {
			return err
		}
		path, err := writer.WriteTemporalProof(temporalReport)
		if err != nil {
			return err
		}
		outputs["temporal_proof"] = path
		return nil
	})
	if err != nil {
		return domain.RunMetadata{}, err
	}

	// Stage 5: statistical profile over the canonical table.
	profiler := profile.NewProfiler(logger, profile.Config{
		Quantiles:         r.cfg.Profile.Quantiles,
		SampleThreshold:   r.cfg.Profile.SampleThreshold,
		SampleSeed:        r.cfg.Profile.SampleSeed,
		HighRangeQuantile: r.cfg.Profile.HighRangeQuantile,
	})
	var profileReport domain.ProfileReport
	var duplicates domain.DuplicateReport
	err = r.stage(ctx, "profile", func(ctx context.Context) error {
		duplicates = profiler.DuplicateRows(canonical)
		dupPath, err := writer.WriteDuplicates(duplicates)
		if err != nil {
			return err
		}
		outputs["duplicates"] = dupPath

		sampled, wasSampled, err := profiler.Sample(canonical)
		if err != nil {
			return err
		}
		if profileReport, err = profiler.Profile(ctx, sampled); err != nil {
			return err
		}
		if wasSampled {
			profileReport.SampledRows = sampled.NumRows()
			profileReport.SampleSeed = r.cfg.Profile.SampleSeed
		}
		for name, write := range map[string]func(domain.ProfileReport) (string, error){
			"describe":    writer.WriteDescribe,
			"quantiles":   writer.WriteQuantiles,
			"range_flags": writer.WriteRangeFlags,
		} {
			path, err := write(profileReport)
			if err != nil {
				return err
			}
			if path != "" {
				outputs[name] = path
			}
		}
		return nil
	})
	if err != nil {
		return domain.RunMetadata{}, err
	}

	// Stage 6: human-readable summary plus optional workbook.
	err = r.stage(ctx, "evidence", func(ctx context.Context) error {
		summaryPath, err := writer.WriteSummary(evidence.SummaryInput{
			CSVRecord:     csvRecord,
			ParquetRecord: parquetRecord,
			CSVSchema:     csvSchema,
			ParquetSchema: parquetSchema,
			Comparison:    comparison,
			Head:          canonical.Head(5),
			Tail:          canonical.Tail(5),
		})
		if err != nil {
			return err
		}
		outputs["summary"] = summaryPath

		if r.cfg.Output.Workbook {
			workbookPath, err := writer.WriteWorkbook(evidence.WorkbookInput{
				CSVSchema:     csvSchema,
				ParquetSchema: parquetSchema,
				Profile:       profileReport,
				Duplicates:    duplicates,
				Temporal:      temporalReport,
			})
			if err != nil {
				return err
			}
			outputs["workbook"] = workbookPath
		}
		return nil
	})
	if err != nil {
		return domain.RunMetadata{}, err
	}

	// Metadata last: its presence marks a completed run.
	meta := domain.RunMetadata{
		RunID:        paths.RunID,
		TimestampUTC: start,
		Version:      contracts.Version,
		Environment:  r.probe.Collect(ctx),
		InputHashes: map[string]string{
			"csv":     csvRecord.Hash,
			"parquet": parquetRecord.Hash,
		},
		Rows:       canonical.NumRows(),
		Cols:       canonical.NumCols(),
		LoadSec:    loadSec,
		ElapsedSec: r.clock().UTC().Sub(start).Seconds(),
		Outputs:    outputs,
		Success:    true,
	}
	metaPath, err := writer.WriteMetadata(meta)
	if err != nil {
		return domain.RunMetadata{}, err
	}
	outputs["metadata"] = metaPath

	logger.InfoContext(ctx, "run completed",
		slog.Int("rows", meta.Rows),
		slog.Int("cols", meta.Cols),
		slog.Float64("elapsed_s", meta.ElapsedSec))
	return meta, nil
}

// resolveParquet tries the configured candidate locations in order and falls
// back to the configured parquet path. Missing everywhere is fatal.
func (r *Runner) resolveParquet(ctx context.Context, verifier *integrity.Verifier) (string, error) {
	candidates := append([]string{}, r.cfg.Inputs.Candidates...)
	candidates = append(candidates, r.cfg.Inputs.ParquetPath)
	path, err := verifier.ResolveFirst(candidates)
	if err != nil {
		return "", err
	}
	if path != r.cfg.Inputs.ParquetPath {
		r.logger.InfoContext(ctx, "parquet input resolved from candidate location",
			slog.String("path", path))
	}
	return path, nil
}

// stage wraps one pipeline stage in a span and uniform timing logs.
func (r *Runner) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if r.tracer != nil {
		var span trace.Span
		ctx, span = r.tracer.Start(ctx, "pipeline."+name,
			trace.WithAttributes(attribute.String("stage", name)))
		defer span.End()
	}
	start := r.clock()
	err := fn(ctx)
	elapsed := r.clock().Sub(start)
	if err != nil {
		r.logger.ErrorContext(ctx, "stage failed",
			slog.String("stage", name),
			slog.String("error_type", string(apperrors.TypeOf(err))),
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err))
		return err
	}
	r.logger.InfoContext(ctx, "stage completed",
		slog.String("stage", name),
		slog.Duration("elapsed", elapsed))
	return nil
}
