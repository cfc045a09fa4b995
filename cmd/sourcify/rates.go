package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chrishsmith/sourcify-sub007/internal/cli"
)

func ratesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates <hts-code>",
		Short: "Resolve the effective duty rate for a code and origin",
		Long: `Stack every applicable duty program for an HTS code and origin country
into one effective rate: base MFN rate, additional duty programs net of
exclusions, and FTA preferences.

Examples:
  sourcify rates 6109.10.00.10 --origin CN
  sourcify rates 6109100010 --origin MX --as-of 2025-01-15`,
		Args: cobra.ExactArgs(1),
		RunE: runRates,
	}

	cmd.Flags().String("origin", "", "country of origin (ISO code)")
	cmd.Flags().String("as-of", "", "rate date (YYYY-MM-DD, default today)")
	_ = cmd.MarkFlagRequired("origin")

	return cmd
}

func runRates(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	asOf, err := parseAsOf(mustString(cmd, "as-of"))
	if err != nil {
		return err
	}

	db, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeStorage(db)

	resolver, _, err := newResolver(ctx, db)
	if err != nil {
		return err
	}

	result, err := resolver.Resolve(ctx, args[0], mustString(cmd, "origin"), asOf)
	if err != nil {
		return err
	}

	fmt.Println(cli.RenderTariffResult(result))
	return nil
}
