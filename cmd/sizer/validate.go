package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"distribution-sizer/internal/domain"
	"distribution-sizer/internal/reporting"
	"distribution-sizer/internal/storage/file"
	"distribution-sizer/internal/tables"
)

func validateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check tables and configuration; dry-run the input file when one is set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runValidate(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func tablesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the loaded lookup tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := a.cfg.LoadTables()
			if err != nil {
				return err
			}
			printTables(cmd.OutOrStdout(), set)
			return nil
		},
	}
}

func (a *app) runValidate(ctx context.Context, out io.Writer) error {
	engine, set, err := a.newEngine()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Configuration valid: %d demand tables, %d aggregates, %d factors\n",
		len(set.DemandTables), len(a.cfg.Aggregates), len(a.cfg.Factors))

	if a.cfg.Input == "" {
		return nil
	}

	// Dry run: nothing is written or archived.
	batch, err := file.NewReader(a.cfg.Input).ReadBatch(ctx, a.cfg.ProjectID)
	if err != nil {
		return fmt.Errorf("read %s: %w", a.cfg.Input, err)
	}
	report, err := engine.Run(batch)
	if err != nil {
		return err
	}

	view := reporting.NewGenerator(nil).Build(report)
	reporting.RenderChecks(out, view.Checks)
	for _, d := range report.Diagnostics {
		_, _ = fmt.Fprintf(out, "%s %s [%s] %s\n", d.Severity, d.Code, d.Subject, d.Message)
	}
	if !view.AllChecksPassed {
		return fmt.Errorf("%s: some checks failed", a.cfg.Input)
	}
	return nil
}

func printTables(w io.Writer, set *tables.Set) {
	_, _ = fmt.Fprintf(w, "Sections, mm2: %v\n", set.Series.SectionsMM2)
	_, _ = fmt.Fprintf(w, "Ratings, A:    %v\n", set.Series.RatingsA)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Demand tables")
	t.AppendHeader(table.Row{"Name", "Dimension", "Keys", "Range", "Rows", "Kind"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	for _, d := range set.DemandTables {
		t.AppendRow(table.Row{d.Name, d.Dimension, len(d.Keys), keyRange(d), len(d.Rows), demandKind(d)})
	}
	t.Render()

	lines := table.NewWriter()
	lines.SetOutputMirror(w)
	lines.SetStyle(table.StyleLight)
	lines.SetTitle("Product lines")
	lines.AppendHeader(table.Row{"Line", "Brand", "Material", "Geometry", "Sections"})
	for _, pl := range set.ProductLines {
		for _, b := range pl.Brands {
			lines.AppendRow(table.Row{pl.Name, b.Brand, b.Material, b.Geometry, len(b.SectionsMM2)})
		}
	}
	lines.Render()
}

func keyRange(d domain.DemandTable) string {
	if len(d.Keys) == 0 {
		return ""
	}
	return fmt.Sprintf("%g..%g", d.Keys[0], d.Keys[len(d.Keys)-1])
}

func demandKind(d domain.DemandTable) string {
	switch {
	case d.Specific:
		return "kW per consumer"
	case d.WeightDependent():
		return "factor by " + d.DependsOn + " share"
	}
	return "factor"
}
