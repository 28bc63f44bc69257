package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"distribution-sizer/internal/storage/file"
	"distribution-sizer/internal/storage/postgres"
)

func importCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Load the circuits of the input file into PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Input == "" {
				return errors.New("import needs an input file")
			}
			ctx := cmd.Context()

			batch, err := file.NewReader(a.cfg.Input).ReadBatch(ctx, a.cfg.ProjectID)
			if err != nil {
				return fmt.Errorf("read %s: %w", a.cfg.Input, err)
			}

			pool, err := a.openPostgres(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.NewCircuitStore(pool).InsertBatch(ctx, batch); err != nil {
				return fmt.Errorf("insert batch: %w", err)
			}
			a.logger.Info("circuits imported",
				zap.String("project_id", batch.ProjectID),
				zap.Int("circuits", len(batch.Circuits)),
				zap.Int("risers", len(batch.Risers)))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d circuits and %d risers into project %s\n",
				len(batch.Circuits), len(batch.Risers), batch.ProjectID)
			return nil
		},
	}
}
