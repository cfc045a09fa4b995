package tariff

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/chrishsmith/sourcify-sub007/internal/hierarchy"
	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

// ftaPrograms maps origin countries to the FTA program column of the
// schedule's special-rate table.
var ftaPrograms = map[string]string{
	"MX": "USMCA",
	"CA": "USMCA",
	"KR": "KORUS",
	"AU": "AUFTA",
	"SG": "SGFTA",
	"CL": "CLFTA",
	"PE": "PEFTA",
	"CO": "COFTA",
	"PA": "PAFTA",
	"IL": "ILFTA",
	"JO": "JOFTA",
	"BH": "BHFTA",
	"OM": "OMFTA",
	"MA": "MAFTA",
}

var countryNames = map[string]string{
	"CN": "China", "VN": "Vietnam", "MX": "Mexico", "CA": "Canada",
	"KR": "South Korea", "JP": "Japan", "DE": "Germany", "IN": "India",
	"TW": "Taiwan", "TH": "Thailand", "MY": "Malaysia", "ID": "Indonesia",
	"BD": "Bangladesh", "IT": "Italy", "GB": "United Kingdom", "FR": "France",
	"AU": "Australia", "SG": "Singapore", "CL": "Chile", "PE": "Peru",
	"CO": "Colombia", "IL": "Israel", "TR": "Turkey", "BR": "Brazil",
}

// Resolver stacks every applicable duty program into one effective rate.
// Pure over its two immutable inputs; safe for concurrent use.
type Resolver struct {
	store    *hierarchy.Store
	registry *Registry
}

// NewResolver creates a resolver over a hierarchy snapshot and layer registry.
func NewResolver(store *hierarchy.Store, registry *Registry) *Resolver {
	return &Resolver{store: store, registry: registry}
}

// Resolve computes the effective duty rate for a (code, country, asOf) tuple.
// The result is bit-for-bit reproducible for fixed inputs and dataset: asOf
// affects only which layers match, never the stacking math itself.
func (r *Resolver) Resolve(ctx context.Context, code, country string, asOf time.Time) (*model.EffectiveTariffResult, error) {
	node, err := r.store.Lookup(code)
	if err != nil {
		return nil, err
	}

	base, rateUnparsed, err := r.baseRate(node)
	if err != nil {
		return nil, err
	}

	result := &model.EffectiveTariffResult{
		Code:         node.Code,
		Country:      country,
		CountryName:  countryName(country),
		AsOf:         asOf,
		BaseMFNRate:  base,
		RateUnparsed: rateUnparsed,
	}

	matched := r.registry.MatchLayers(ctx, node.Code, country, asOf)

	// Net each program's duty rate against its exclusion carve-out, floored
	// at zero per program, never globally.
	type programState struct {
		rate      float64
		exclusion float64
		stale     bool
		matched   bool
	}
	programs := make(map[string]*programState)
	for _, m := range matched {
		st := programs[m.Layer.ProgramID]
		if st == nil {
			st = &programState{}
			programs[m.Layer.ProgramID] = st
		}
		if m.Layer.ExclusionFlag {
			st.exclusion += m.Rate
		} else {
			st.rate += m.Rate
			st.matched = true
			st.stale = st.stale || m.Stale
		}
	}

	ids := make([]string, 0, len(programs))
	for id := range programs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		st := programs[id]
		if !st.matched {
			continue
		}
		applied := st.rate - st.exclusion
		if applied < 0 {
			applied = 0
		}
		result.AdditionalDuties = append(result.AdditionalDuties, model.AppliedDuty{
			ProgramID: id,
			Rate:      applied,
			Stale:     st.stale,
		})
		result.TotalAdditionalDuties += applied
		result.Stale = result.Stale || st.stale
	}

	// FTA special rates discount the base MFN rate only: trade-remedy
	// programs are never waived by an FTA. Documented policy, not an
	// oversight.
	if program, discount, ok := r.ftaDiscount(node, country, base); ok {
		result.FTAProgram = program
		result.FTADiscount = discount
	}

	effective := result.BaseMFNRate + result.TotalAdditionalDuties - result.FTADiscount
	if effective < 0 {
		effective = 0
	}
	result.EffectiveRate = effective

	return result, nil
}

// baseRate finds the node's general rate, walking up the ancestor chain when
// a statistical line inherits its rate from the tariff line above it.
func (r *Resolver) baseRate(node *model.HtsNode) (pct float64, unparsed bool, err error) {
	chain, err := r.store.Ancestors(node.Code)
	if err != nil {
		return 0, false, err
	}

	for i := len(chain) - 1; i >= 0; i-- {
		raw := chain[i].GeneralRate
		if raw == "" {
			continue
		}
		expr := ParseRate(raw)
		pct, parsed := expr.Percent()
		if !parsed {
			slog.Debug("general rate not fully parseable, flagging result",
				"code", node.Code, "rate", raw, "kind", expr.Kind)
		}
		return pct, !parsed, nil
	}

	// No rate anywhere in the chain: best-effort zero, flagged.
	return 0, true, nil
}

// ftaDiscount returns the FTA program and discount applicable to the node
// for the origin country, if any. The discount is clamped to the base MFN
// rate so it can never reach into trade-remedy duties.
func (r *Resolver) ftaDiscount(node *model.HtsNode, country string, base float64) (string, float64, bool) {
	program, ok := ftaPrograms[country]
	if !ok {
		return "", 0, false
	}

	chain, err := r.store.Ancestors(node.Code)
	if err != nil {
		return "", 0, false
	}

	for i := len(chain) - 1; i >= 0; i-- {
		raw, ok := chain[i].SpecialRates[program]
		if !ok {
			continue
		}
		expr := ParseRate(raw)
		special, parsed := expr.Percent()
		if !parsed {
			slog.Debug("FTA special rate not parseable, skipping discount",
				"code", node.Code, "program", program, "rate", raw)
			return "", 0, false
		}
		discount := base - special
		if discount <= 0 {
			return "", 0, false
		}
		if discount > base {
			discount = base
		}
		return program, discount, true
	}

	return "", 0, false
}

func countryName(code string) string {
	if name, ok := countryNames[code]; ok {
		return name
	}
	return code
}
