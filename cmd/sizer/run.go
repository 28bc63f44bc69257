package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"distribution-sizer/internal/observability"
	"distribution-sizer/internal/pipeline"
	"distribution-sizer/internal/reporting"
)

func runCmd(a *app) *cobra.Command {
	var demo bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Size every circuit of a project and write the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runRun(cmd.Context(), cmd.OutOrStdout(), demo)
		},
	}

	cmd.Flags().BoolVar(&demo, "demo", false, "size the built-in demonstration board")
	return cmd
}

func (a *app) runRun(ctx context.Context, out io.Writer, demo bool) error {
	engine, _, err := a.newEngine()
	if err != nil {
		return err
	}

	b, err := a.openBackends(ctx, demo)
	if err != nil {
		return err
	}
	defer b.Close()

	metrics := observability.NewMetrics(a.cfg.Metrics.Namespace)
	runner := pipeline.NewRunner(engine, b.reader, a.cfg.OutputDir, a.logger).
		WithWriter(b.writer).
		WithArchive(b.archive).
		WithMetrics(metrics)

	projectID := a.cfg.ProjectID
	if demo {
		projectID = pipeline.DemoProjectID
	}

	report, runErr := runner.Run(ctx, projectID)
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			a.logger.Warn("metrics textfile not written", zap.String("path", path), zap.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	view := runner.Render(report)
	reporting.RenderTable(out, view)
	reporting.RenderChecks(out, view.Checks)
	if a.cfg.OutputDir != "" {
		_, _ = fmt.Fprintf(out, "\nOutputs written to %s/\n", a.cfg.OutputDir)
	}

	if n := report.Summary.Unresolvable; n > 0 {
		return fmt.Errorf("%d circuits unresolvable", n)
	}
	return nil
}
