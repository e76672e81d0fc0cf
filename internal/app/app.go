package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ephcli/internal/analytics"
	"ephcli/internal/branches"
	"ephcli/internal/cleaning"
	"ephcli/internal/cohort"
	"ephcli/internal/config"
	"ephcli/internal/deflation"
	"ephcli/internal/exporter"
	"ephcli/internal/infrastructure"
	"ephcli/internal/loader"
	"ephcli/pkg/contracts/domain"
)

// Results holds every summary a pipeline run produces.
type Results struct {
	RunID          string
	CompletedAt    time.Time
	Rates          []domain.RateSummary
	GeneralIncome  []domain.IncomeSummary
	PeriodicIncome []domain.PeriodicIncomeSummary
	Univariate     []domain.UnivariateIncomeSummary
	Participation  []domain.BranchParticipation
}

// Options tunes a single run.
type Options struct {
	// Force reloads from the raw extracts even when a clean file exists.
	Force bool
	// SkipExport computes results without writing output tables.
	SkipExport bool
}

// Runner executes the analysis pipeline.
type Runner struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
	tracer  trace.Tracer
}

// NewRunner creates a Runner. metrics may be nil when observability is not
// initialized.
func NewRunner(cfg *config.Config, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer(infrastructure.MeterName),
	}
}

// Run executes the full pipeline and returns the computed summaries.
func (r *Runner) Run(ctx context.Context, opts Options) (*Results, error) {
	runID := uuid.New().String()
	ctx, span := r.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	logger := r.logger.With(slog.String("run_id", runID))
	logger.InfoContext(ctx, "pipeline run starting",
		slog.String("base_period", r.cfg.Analysis.BasePeriodKey()),
		slog.Bool("force", opts.Force))

	records, err := r.loadStage(ctx, logger, opts)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	deflated, err := r.deflateStage(ctx, logger, records)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	results, err := r.aggregateStage(ctx, logger, deflated)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	results.RunID = runID
	results.CompletedAt = time.Now()

	if !opts.SkipExport {
		if err := r.exportStage(ctx, logger, results); err != nil {
			infrastructure.RecordError(ctx, err)
			return nil, err
		}
	}

	if r.metrics != nil {
		r.metrics.RunsTotal.Add(ctx, 1)
	}
	logger.InfoContext(ctx, "pipeline run complete",
		slog.Int("records", len(deflated)),
		slog.Int("rate_cells", len(results.Rates)))
	return results, nil
}

// loadStage produces normalized records restricted to the target regions.
// When a clean file from an earlier run exists it is reused unless Force is
// set.
func (r *Runner) loadStage(ctx context.Context, logger *slog.Logger, opts Options) ([]domain.SurveyRecord, error) {
	start := time.Now()

	cleanFile := r.cfg.Paths.CleanFile()
	if !opts.Force && config.FileExists(cleanFile) {
		records, err := ReadCleanFile(cleanFile)
		r.recordStage(ctx, "load_clean", start, err)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "reusing clean survey file",
			slog.String("path", cleanFile),
			slog.Int("records", len(records)))
		return r.trimRegions(ctx, logger, records)
	}

	l := loader.NewLoader(logger)
	rows, err := l.LoadRawDir(ctx, r.cfg.Paths.RawDir)
	if err != nil {
		r.recordStage(ctx, "load_raw", start, err)
		return nil, err
	}
	if r.metrics != nil {
		r.metrics.RecordsLoaded.Add(ctx, int64(len(rows)))
	}

	normalizer := cleaning.NewNormalizer(logger, cleaning.DefaultConfig())
	if len(rows) > 0 {
		headers := make([]string, 0, len(rows[0]))
		for col := range rows[0] {
			headers = append(headers, col)
		}
		if err := normalizer.CheckSchema(headers); err != nil {
			r.recordStage(ctx, "load_raw", start, err)
			return nil, err
		}
	}
	records := normalizer.NormalizeAll(ctx, rows)
	if r.metrics != nil {
		r.metrics.RecordsNormalized.Add(ctx, int64(len(records)))
	}

	if _, err := WriteCleanFile(cleanFile, records); err != nil {
		r.recordStage(ctx, "load_raw", start, err)
		return nil, err
	}
	r.recordStage(ctx, "load_raw", start, nil)
	return r.trimRegions(ctx, logger, records)
}

func (r *Runner) trimRegions(ctx context.Context, logger *slog.Logger, records []domain.SurveyRecord) ([]domain.SurveyRecord, error) {
	targets := r.cfg.Analysis.TargetRegions
	if len(targets) == 0 {
		return records, nil
	}
	allowed := make(map[int]bool, len(targets))
	for _, region := range targets {
		allowed[region] = true
	}
	trimmed := make([]domain.SurveyRecord, 0, len(records))
	for _, rec := range records {
		if allowed[rec.Region] {
			trimmed = append(trimmed, rec)
		}
	}
	if _, err := WriteCleanFile(r.cfg.Paths.TrimmedFile(), trimmed); err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "trimmed to target regions",
		slog.Int("before", len(records)),
		slog.Int("after", len(trimmed)))
	return trimmed, nil
}

func (r *Runner) deflateStage(ctx context.Context, logger *slog.Logger, records []domain.SurveyRecord) ([]domain.DeflatedRecord, error) {
	start := time.Now()

	l := loader.NewLoader(logger)
	index, err := l.LoadPriceIndex(ctx, r.cfg.Paths.IndexFile)
	if err != nil {
		r.recordStage(ctx, "deflate", start, err)
		return nil, err
	}

	deflator, err := deflation.NewDeflator(logger, index, r.cfg.Analysis.BaseYear, r.cfg.Analysis.BaseQuarter)
	if err != nil {
		r.recordStage(ctx, "deflate", start, err)
		return nil, err
	}

	deflated := deflator.Deflate(ctx, records)
	if r.metrics != nil {
		r.metrics.RecordsDeflated.Add(ctx, int64(len(deflated)))
	}
	r.recordStage(ctx, "deflate", start, nil)
	return deflated, nil
}

func (r *Runner) aggregateStage(ctx context.Context, logger *slog.Logger, deflated []domain.DeflatedRecord) (*Results, error) {
	start := time.Now()

	calc := analytics.NewCalculator(r.cfg.Analysis.MinAge, logger)
	results := &Results{}

	results.Rates = calc.LaborForceRates(deflated)

	// The mean-income tables cover every employed adult: zero incomes count,
	// missing incomes and non-positive weights are masked inside the mean
	// itself. Only the distribution statistics use the stricter
	// positive-income, outlier-trimmed cohort.
	meanCohort := cohort.Chain(
		cohort.Adults(r.cfg.Analysis.MinAge),
		cohort.Employed(),
	)(deflated)
	univariateCohort := cohort.EmployedAdults(r.cfg.Analysis.MinAge, r.cfg.Analysis.OutlierPercentile)(deflated)
	logger.InfoContext(ctx, "income cohorts selected",
		slog.Int("mean_records", len(meanCohort)),
		slog.Int("univariate_records", len(univariateCohort)))

	var err error
	if results.GeneralIncome, err = calc.GeneralIncome(ctx, meanCohort); err != nil {
		r.recordStage(ctx, "aggregate", start, err)
		return nil, err
	}
	if results.PeriodicIncome, err = calc.PeriodicIncome(ctx, meanCohort); err != nil {
		r.recordStage(ctx, "aggregate", start, err)
		return nil, err
	}
	if results.Univariate, err = calc.UnivariateIncome(ctx, univariateCohort); err != nil {
		r.recordStage(ctx, "aggregate", start, err)
		return nil, err
	}

	classifier := branches.NewClassifier(nil, r.cfg.Analysis.MinAge, logger)
	results.Participation = classifier.Participation(ctx, deflated)

	r.recordStage(ctx, "aggregate", start, nil)
	return results, nil
}

func (r *Runner) exportStage(ctx context.Context, logger *slog.Logger, results *Results) error {
	start := time.Now()

	csvWriter := exporter.NewCSVWriter(logger)
	opts := exporter.WriteOptions{BOMPrefix: true, Version: true}

	writes := []struct {
		path  string
		table exporter.Table
	}{
		{filepath.Join(r.cfg.Paths.RatesDir(), "rates.csv"), exporter.RatesTable(results.Rates)},
		{filepath.Join(r.cfg.Paths.IncomeDir(), "income_general.csv"), exporter.GeneralIncomeTable(results.GeneralIncome)},
		{filepath.Join(r.cfg.Paths.IncomeDir(), "income_periodic.csv"), exporter.PeriodicIncomeTable(results.PeriodicIncome)},
		{filepath.Join(r.cfg.Paths.IncomeDir(), "income_univariate.csv"), exporter.UnivariateIncomeTable(results.Univariate)},
		{filepath.Join(r.cfg.Paths.OutputDir, "branch_participation.csv"), exporter.ParticipationTable(results.Participation)},
	}

	tables := make([]exporter.Table, 0, len(writes))
	for _, wr := range writes {
		if _, err := csvWriter.WriteTable(wr.path, wr.table, opts); err != nil {
			r.recordStage(ctx, "export", start, err)
			return err
		}
		tables = append(tables, wr.table)
	}

	excelWriter := exporter.NewExcelWriter(logger)
	if _, err := excelWriter.WriteWorkbook(filepath.Join(r.cfg.Paths.OutputDir, "results.xlsx"), tables); err != nil {
		r.recordStage(ctx, "export", start, err)
		return err
	}

	r.recordStage(ctx, "export", start, nil)
	return nil
}

func (r *Runner) recordStage(ctx context.Context, stage string, start time.Time, err error) {
	r.metrics.RecordStage(ctx, stage, time.Since(start), err)
}
