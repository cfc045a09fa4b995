package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/chrishsmith/sourcify-sub007/internal/classify"
	"github.com/chrishsmith/sourcify-sub007/internal/cli"
	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <product description>",
		Short: "Rank HTS codes for a product description",
		Long: `Score and rank candidate HTS codes for a free-text product description.

Structured hints narrow the search and raise confidence. When the top
candidate stays below the confidence threshold, sourcify asks targeted
clarifying questions instead of guessing.

Examples:
  sourcify classify "men's cotton t-shirt"
  sourcify classify "stainless steel water bottle" --material steel --origin CN
  sourcify classify "LED desk lamp" --origin VN --unit-value 14.50 --verbose`,
		Args: cobra.MinimumNArgs(1),
		RunE: runClassify,
	}

	cmd.Flags().String("origin", "", "country of origin (ISO code)")
	cmd.Flags().String("material", "", "primary material")
	cmd.Flags().String("use", "", "intended use")
	cmd.Flags().Float64("unit-value", 0, "unit value in USD")
	cmd.Flags().String("as-of", "", "rate date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolP("verbose", "v", false, "show scoring factor breakdown")
	cmd.Flags().Bool("no-save", false, "skip recording the classification in history")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
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

	req := classify.Request{
		Description: description,
		Hints: model.ClassificationHints{
			CountryOfOrigin: mustString(cmd, "origin"),
			Material:        mustString(cmd, "material"),
			IntendedUse:     mustString(cmd, "use"),
			UnitValue:       mustFloat(cmd, "unit-value"),
		},
		AsOf: asOf,
	}

	result, err := ranker.Classify(ctx, req)
	if err != nil {
		return err
	}

	printClassification(result, mustBool(cmd, "verbose"))

	if !mustBool(cmd, "no-save") {
		record := classify.BuildRecord(req, result)
		if saveErr := db.SaveClassificationRecord(ctx, record); saveErr != nil {
			slog.Warn("Failed to record classification history", "error", saveErr)
		}
	}
	return nil
}

func printClassification(result *model.ClassificationResult, verbose bool) {
	fmt.Println(cli.FormatTitle("Classification"))
	fmt.Println(cli.RenderCandidate(result.Primary, verbose))

	if len(result.Alternatives) > 0 {
		fmt.Println()
		fmt.Println(cli.SubtleStyle.Render("Alternatives:"))
		for i := range result.Alternatives {
			fmt.Println(cli.RenderCandidate(&result.Alternatives[i], verbose))
		}
	}

	if result.DetectedMaterial != "" {
		fmt.Println()
		fmt.Println(cli.FormatInfo("detected material: " + result.DetectedMaterial))
	}
	if result.OracleDegraded {
		fmt.Println(cli.FormatWarning("inference oracle unavailable; keyword-only ranking"))
	}
	if result.ConditionalClassification {
		fmt.Println(cli.FormatWarning("classification is conditional on: " + joinList(result.MissingFacts)))
	}

	if result.NeedsClarification {
		fmt.Println()
		fmt.Println(cli.FormatWarning("confidence is low; answering these would help:"))
		for _, q := range result.Questions {
			fmt.Printf("  • %s\n", q.Question)
		}
	}
}

func joinList(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ", "
		}
		out += item
	}
	return out
}
