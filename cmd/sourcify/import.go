package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chrishsmith/sourcify-sub007/internal/cli"
	"github.com/chrishsmith/sourcify-sub007/internal/hierarchy"
	"github.com/chrishsmith/sourcify-sub007/internal/tariff"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import schedule snapshots and layer catalogs",
	}

	cmd.AddCommand(importScheduleCmd())
	cmd.AddCommand(importLayersCmd())

	return cmd
}

func importScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule <file.csv>",
		Short: "Import a tariff schedule extract",
		Long: `Import a tariff schedule CSV, replacing any previously loaded snapshot.
The whole snapshot is validated before it is swapped in; a corrupt file
never replaces a working schedule.`,
		Args: cobra.ExactArgs(1),
		RunE: runImportSchedule,
	}

	cmd.Flags().String("revision", "", "schedule revision identifier (e.g. 2025-rev-7)")
	_ = cmd.MarkFlagRequired("revision")

	return cmd
}

func runImportSchedule(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	revision := mustString(cmd, "revision")

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open schedule file: %w", err)
	}
	defer func() { _ = f.Close() }()

	nodes, err := hierarchy.LoadScheduleCSV(f)
	if err != nil {
		return err
	}

	// Reject corrupt snapshots before touching the database.
	for i := range nodes {
		nodes[i].Revision = revision
	}
	if _, err = hierarchy.NewStore(nodes); err != nil {
		return err
	}

	db, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeStorage(db)

	if err = db.SaveNodes(ctx, nodes, revision); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("imported %d nodes at revision %s", len(nodes), revision)))
	return nil
}

func importLayersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layers <catalog.yaml>",
		Short: "Import a tariff layer catalog",
		Long: `Import a versioned YAML layer catalog, replacing the stored catalog.
Without an imported catalog, commands fall back to the embedded default.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			layers, catalogVersion, err := tariff.LoadCatalogFile(args[0])
			if err != nil {
				return err
			}

			db, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer closeStorage(db)

			if err = db.SaveLayers(ctx, layers); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("imported %d layers from catalog %s", len(layers), catalogVersion)))
			return nil
		},
	}
}
