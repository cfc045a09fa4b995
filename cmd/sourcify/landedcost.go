package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chrishsmith/sourcify-sub007/internal/cli"
	"github.com/chrishsmith/sourcify-sub007/internal/landedcost"
	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

func landedCostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "landed-cost <hts-code>",
		Short: "Compute the full landed cost of a shipment",
		Long: `Compute the total cost of importing a shipment: product value, resolved
duties, merchandise processing fee, harbor maintenance fee (ocean only),
shipping, and insurance.

Examples:
  sourcify landed-cost 6109.10.00.10 --origin VN --value 10000 --quantity 500 --shipping 300 --insurance 50
  sourcify landed-cost 6109.10.00.10 --origin VN --value 10000 --quantity 500 --ocean=false`,
		Args: cobra.ExactArgs(1),
		RunE: runLandedCost,
	}

	cmd.Flags().String("origin", "", "country of origin (ISO code)")
	cmd.Flags().Float64("value", 0, "total product value in USD")
	cmd.Flags().Int("quantity", 0, "number of units")
	cmd.Flags().Float64("shipping", 0, "shipping cost in USD")
	cmd.Flags().Float64("insurance", 0, "insurance cost in USD")
	cmd.Flags().Bool("ocean", true, "shipment arrives by ocean freight (--ocean=false for air)")
	cmd.Flags().String("as-of", "", "rate date (YYYY-MM-DD, default today)")
	_ = cmd.MarkFlagRequired("origin")
	_ = cmd.MarkFlagRequired("value")
	_ = cmd.MarkFlagRequired("quantity")

	return cmd
}

func runLandedCost(cmd *cobra.Command, args []string) error {
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

	calc := landedcost.New(resolver)
	result, err := calc.Calculate(ctx, model.LandedCostInput{
		HTSCode:       args[0],
		CountryCode:   mustString(cmd, "origin"),
		ProductValue:  mustFloat(cmd, "value"),
		Quantity:      mustInt(cmd, "quantity"),
		ShippingCost:  mustFloat(cmd, "shipping"),
		InsuranceCost: mustFloat(cmd, "insurance"),
		IsOcean:       mustBool(cmd, "ocean"),
	}, asOf)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatTitle("Landed cost"))
	fmt.Println(cli.RenderLandedCost(result))
	return nil
}
