package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"distribution-sizer/internal/reporting"
	chstore "distribution-sizer/internal/storage/clickhouse"
	"distribution-sizer/internal/storage/postgres"
)

func historyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <circuit-id>",
		Short: "Show the archived sizing results of a circuit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, err := a.openClickHouse(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			history, err := chstore.NewRunArchive(conn).History(ctx, a.cfg.ProjectID, args[0])
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}
			reporting.RenderHistory(cmd.OutOrStdout(), args[0], history)
			return nil
		},
	}
}

func reportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report <run-id>",
		Short: "Render the markdown report of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := a.openPostgres(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			report, err := reporting.NewGenerator(postgres.NewRunStore(pool)).Generate(ctx, args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), reporting.RenderMarkdown(report))
			return nil
		},
	}
}
