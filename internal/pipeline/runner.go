package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/observability"
	"distribution-sizer/internal/reporting"
	"distribution-sizer/internal/storage"
)

// Output file names written by the runner.
const (
	ReportFile      = "report.md"
	ResultsFile     = "results.csv"
	AggregatesFile  = "aggregates.csv"
	DiagnosticsFile = "diagnostics.csv"
)

// Runner reads a batch, runs the engine and hands the report to the
// configured writers.
type Runner struct {
	engine    *Engine
	reader    storage.CircuitReader
	writer    storage.ResultWriter // optional, model write-back
	archive   storage.RunArchive   // optional, result history
	metrics   *observability.Metrics
	reportGen *reporting.Generator
	outputDir string // empty disables file output
	logger    *zap.Logger
}

// NewRunner creates a new runner.
func NewRunner(engine *Engine, reader storage.CircuitReader, outputDir string, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		engine:    engine,
		reader:    reader,
		reportGen: reporting.NewGenerator(nil),
		outputDir: outputDir,
		logger:    logger.Named("runner"),
	}
}

// WithWriter sets the store the run is written back to.
func (r *Runner) WithWriter(w storage.ResultWriter) *Runner {
	r.writer = w
	return r
}

// WithArchive sets the run archive.
func (r *Runner) WithArchive(a storage.RunArchive) *Runner {
	r.archive = a
	return r
}

// WithMetrics sets the metrics recorded for every run.
func (r *Runner) WithMetrics(m *observability.Metrics) *Runner {
	r.metrics = m
	return r
}

// WithClock sets a custom clock function for deterministic output.
func (r *Runner) WithClock(clock func() time.Time) *Runner {
	r.engine = r.engine.WithClock(clock)
	r.reportGen = r.reportGen.WithClock(clock)
	return r
}

// Run executes one run for projectID and writes output files:
// - report.md
// - results.csv
// - aggregates.csv
// - diagnostics.csv
func (r *Runner) Run(ctx context.Context, projectID string) (*domain.Report, error) {
	start := time.Now()
	report, err := r.run(ctx, projectID)
	if r.metrics != nil {
		r.metrics.RecordRun(report, time.Since(start))
	}
	if err != nil {
		r.logger.Error("run failed", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	return report, nil
}

func (r *Runner) run(ctx context.Context, projectID string) (*domain.Report, error) {
	batch, err := r.reader.ReadBatch(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}

	report, err := r.engine.Run(batch)
	if err != nil {
		return nil, err
	}

	// Write-back is all or nothing; the archive follows only after it.
	if r.writer != nil {
		if err := r.timed(ctx, "results", "write_run", func(ctx context.Context) error {
			return r.writer.WriteRun(ctx, report)
		}); err != nil {
			return nil, fmt.Errorf("write run: %w", err)
		}
	}
	if r.archive != nil {
		if err := r.timed(ctx, "archive", "append", func(ctx context.Context) error {
			return r.archive.Append(ctx, report)
		}); err != nil {
			return nil, fmt.Errorf("archive run: %w", err)
		}
	}

	if err := r.writeOutputs(report); err != nil {
		return nil, err
	}
	return report, nil
}

func (r *Runner) timed(ctx context.Context, database, operation string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	if r.metrics != nil {
		r.metrics.RecordDBQuery(database, operation, time.Since(start), err)
	}
	return err
}

// Render builds the presentation form of a report.
func (r *Runner) Render(report *domain.Report) *reporting.Report {
	return r.reportGen.Build(report)
}

func (r *Runner) writeOutputs(report *domain.Report) error {
	if r.outputDir == "" {
		return nil
	}
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	view := r.Render(report)
	results, err := reporting.RenderResultsCSV(view.Results)
	if err != nil {
		return err
	}
	aggs, err := reporting.RenderAggregatesCSV(view.Aggregates, view.Factors)
	if err != nil {
		return err
	}
	diags, err := reporting.RenderDiagnosticsCSV(view.Diagnostics)
	if err != nil {
		return err
	}

	files := []struct {
		name    string
		content string
	}{
		{ReportFile, reporting.RenderMarkdown(view)},
		{ResultsFile, results},
		{AggregatesFile, aggs},
		{DiagnosticsFile, diags},
	}
	for _, f := range files {
		path := filepath.Join(r.outputDir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	r.logger.Info("outputs written", zap.String("dir", r.outputDir), zap.String("run_id", report.RunID))
	return nil
}
