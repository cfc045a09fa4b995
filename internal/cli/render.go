package cli

import (
	"fmt"
	"strings"

	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

// FormatCode renders an HTS code with dotted separators for readability:
// 6109100010 -> 6109.10.00.10.
func FormatCode(code string) string {
	if len(code) <= 4 {
		return code
	}
	var parts []string
	parts = append(parts, code[:4])
	for i := 4; i < len(code); i += 2 {
		end := i + 2
		if end > len(code) {
			end = len(code)
		}
		parts = append(parts, code[i:end])
	}
	return strings.Join(parts, ".")
}

// RenderCandidate renders one scored candidate with its factor breakdown.
func RenderCandidate(c *model.ClassificationCandidate, verbose bool) string {
	var b strings.Builder

	b.WriteString(BoldStyle.Render(FormatCode(c.Code)))
	b.WriteString("  ")
	b.WriteString(c.Description)
	b.WriteString("  ")
	b.WriteString(confidenceStyle(c.Confidence).Render(fmt.Sprintf("%.0f%%", c.Confidence*100)))

	if c.IsOther {
		b.WriteString("\n")
		b.WriteString(WarningStyle.Render("  residual basket code"))
		if len(c.OtherExclusions) > 0 {
			excluded := make([]string, len(c.OtherExclusions))
			for i, code := range c.OtherExclusions {
				excluded[i] = FormatCode(code)
			}
			b.WriteString(SubtleStyle.Render(", only valid if not: " + strings.Join(excluded, ", ")))
		}
	}

	if verbose {
		for _, f := range c.ScoringFactors {
			b.WriteString("\n")
			b.WriteString(SubtleStyle.Render(fmt.Sprintf("    %-18s %+.3f", f.Name, f.Weight)))
		}
		if c.Rationale != "" {
			b.WriteString("\n")
			b.WriteString(SubtleStyle.Render("    " + c.Rationale))
		}
	}

	if c.Duty != nil {
		b.WriteString("\n")
		b.WriteString(InfoStyle.Render(fmt.Sprintf("    effective duty %.1f%%", c.Duty.EffectiveRate)))
		if c.Duty.Stale {
			b.WriteString(WarningStyle.Render(" (stale)"))
		}
	}

	return b.String()
}

// RenderTariffResult renders a full rate-stacking breakdown.
func RenderTariffResult(r *model.EffectiveTariffResult) string {
	var lines []string

	country := r.Country
	if r.CountryName != "" {
		country = fmt.Sprintf("%s (%s)", r.CountryName, r.Country)
	}
	lines = append(lines, fmt.Sprintf("%s from %s as of %s",
		BoldStyle.Render(FormatCode(r.Code)), country, r.AsOf.Format("2006-01-02")))
	lines = append(lines, "")

	base := fmt.Sprintf("  %-28s %6.1f%%", "Base MFN rate", r.BaseMFNRate)
	if r.RateUnparsed {
		base += WarningStyle.Render("  (non-ad-valorem components omitted)")
	}
	lines = append(lines, base)

	for _, d := range r.AdditionalDuties {
		line := fmt.Sprintf("  %-28s %+6.1f%%", d.ProgramID, d.Rate)
		if d.Stale {
			line += WarningStyle.Render("  (stale)")
		}
		lines = append(lines, line)
	}

	if r.FTAProgram != "" {
		lines = append(lines, SuccessStyle.Render(
			fmt.Sprintf("  %-28s %+6.1f%%", r.FTAProgram+" preference", -r.FTADiscount)))
	}

	lines = append(lines, strings.Repeat("  ─", 14))
	lines = append(lines, BoldStyle.Render(fmt.Sprintf("  %-28s %6.1f%%", "Effective rate", r.EffectiveRate)))

	return strings.Join(lines, "\n")
}

// RenderLandedCost renders the landed-cost breakdown.
func RenderLandedCost(r *model.LandedCostResult) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("%s from %s, %d units",
		BoldStyle.Render(FormatCode(r.HTSCode)), r.CountryCode, r.Quantity))
	lines = append(lines, "")
	lines = append(lines, costLine("Product value", r.ProductValue))
	lines = append(lines, costLine(fmt.Sprintf("Duties (%.1f%%)", r.EffectiveRate), r.Duties))
	lines = append(lines, costLine("Merchandise processing fee", r.MPF))
	if r.HMF > 0 {
		lines = append(lines, costLine("Harbor maintenance fee", r.HMF))
	}
	lines = append(lines, costLine("Shipping", r.ShippingCost))
	lines = append(lines, costLine("Insurance", r.InsuranceCost))
	lines = append(lines, strings.Repeat("  ─", 14))
	lines = append(lines, BoldStyle.Render(costLine("Total landed cost", r.TotalLandedCost)))
	lines = append(lines, SubtleStyle.Render(costLine("Per unit", r.PerUnitCost)))

	if r.RateUnparsed {
		lines = append(lines, "")
		lines = append(lines, FormatWarning("duty rate has non-ad-valorem components; duties shown are a lower bound"))
	}
	if r.Stale {
		lines = append(lines, "")
		lines = append(lines, FormatWarning("computed from a cached rate; live source was unavailable"))
	}

	return strings.Join(lines, "\n")
}

// RenderOptimizerTable renders the savings-ranked code table.
func RenderOptimizerTable(r *model.OptimizerResult) string {
	var b strings.Builder

	b.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-16s %-34s %6s %9s %12s %10s",
		"Code", "Description", "Conf", "Rate", "Landed cost", "Savings")))
	b.WriteString("\n")

	for _, c := range r.ApplicableCodes {
		desc := truncate(c.Description, 32)
		row := fmt.Sprintf("%-16s %-34s %5.0f%% %8.1f%% %12.2f %10.2f",
			FormatCode(c.Code), desc, c.Confidence*100, c.EffectiveRate, c.LandedCost, c.SavingsVsBaseline)
		switch {
		case c.Code == r.RecommendedCode:
			row = SuccessStyle.Render(row)
		case c.Code == r.BaselineCode:
			row = InfoStyle.Render(row)
		}
		if c.Stale {
			row += WarningStyle.Render(" *")
		}
		b.WriteString(row)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render(fmt.Sprintf("evaluated %d, dropped %d; baseline %s, recommended %s",
		r.Evaluated, r.Dropped, FormatCode(r.BaselineCode), FormatCode(r.RecommendedCode))))

	return b.String()
}

func costLine(label string, amount float64) string {
	return fmt.Sprintf("  %-28s %12.2f", label, amount)
}

// truncate shortens s to at most max runes, ending with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func confidenceStyle(confidence float64) interface{ Render(...string) string } {
	switch {
	case confidence >= 0.75:
		return SuccessStyle
	case confidence >= 0.55:
		return WarningStyle
	default:
		return ErrorStyle
	}
}
