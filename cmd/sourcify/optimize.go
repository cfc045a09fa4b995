package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/chrishsmith/sourcify-sub007/internal/cli"
	"github.com/chrishsmith/sourcify-sub007/internal/optimize"
)

func optimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize <product description>",
		Short: "Rank plausible codes by total landed cost",
		Long: `Evaluate every plausible classification for a product and rank the codes
by total landed cost, surfacing legitimate savings against the primary pick.

The output is a starting point for a broker conversation, not legal advice:
only codes the product genuinely satisfies may be used on an entry.

Examples:
  sourcify optimize "men's cotton t-shirt" --origin CN --unit-value 4.20 --quantity 5000
  sourcify optimize "LED desk lamp" --origin VN --unit-value 14.50 --quantity 1200 --max 10`,
		Args: cobra.MinimumNArgs(1),
		RunE: runOptimize,
	}

	cmd.Flags().String("origin", "", "country of origin (ISO code)")
	cmd.Flags().Float64("unit-value", 0, "unit value in USD")
	cmd.Flags().Int("quantity", 0, "number of units")
	cmd.Flags().Int("max", 0, "maximum codes to show (default 20, cap 50)")
	cmd.Flags().String("as-of", "", "rate date (YYYY-MM-DD, default today)")
	_ = cmd.MarkFlagRequired("origin")
	_ = cmd.MarkFlagRequired("unit-value")
	_ = cmd.MarkFlagRequired("quantity")

	return cmd
}

func runOptimize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	description := args[0]
	for _, arg := range args[1:] {
		description += " " + arg
	}

	asOf, err := parseAsOf(mustString(cmd, "as-of"))
	if err != nil {
		return err
	}

	db, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeStorage(db)

	ranker, inferer, err := newRanker(ctx, db)
	if err != nil {
		return err
	}
	if inferer != nil {
		defer func() { _ = inferer.Close() }()
	}
	resolver, _, err := newResolver(ctx, db)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	cfg := optimize.DefaultConfig()
	cfg.OnProgress = func(completed, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("resolving rates"),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(completed)
	}

	optimizer := optimize.New(ranker, resolver, cfg)
	result, err := optimizer.Optimize(ctx, optimize.Request{
		ProductDescription: description,
		CountryOfOrigin:    mustString(cmd, "origin"),
		UnitValue:          mustFloat(cmd, "unit-value"),
		Quantity:           mustInt(cmd, "quantity"),
		MaxResults:         mustInt(cmd, "max"),
		AsOf:               asOf,
	})
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatTitle("Duty optimization"))
	fmt.Println(cli.RenderOptimizerTable(result))
	return nil
}
