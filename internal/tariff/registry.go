package tariff

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/chrishsmith/sourcify-sub007/internal/model"
	"github.com/chrishsmith/sourcify-sub007/internal/service"
)

// MatchedLayer is a layer that applies to a (code, country, asOf) tuple,
// carrying the rate actually in force (live-fetched when the program is
// tracked live, static otherwise).
type MatchedLayer struct {
	Layer *model.TariffLayer
	Rate  float64
	Stale bool
}

// Registry catalogs every duty-program layer and resolves the set applicable
// to a given tuple. Layers are indexed by scope-pattern length so the
// optimizer's broad fan-out never degenerates into a linear scan.
type Registry struct {
	layers  []model.TariffLayer
	buckets map[int]map[string][]*model.TariffLayer // pattern length -> pattern -> layers

	fetcher service.LiveRateFetcher // nil disables live fetching
	cache   service.RateCache
	group   singleflight.Group
}

// NewRegistry builds a registry over a validated layer snapshot. fetcher may
// be nil; cache must be non-nil when fetcher is set.
func NewRegistry(layers []model.TariffLayer, fetcher service.LiveRateFetcher, cache service.RateCache) (*Registry, error) {
	r := &Registry{
		layers:  layers,
		buckets: make(map[int]map[string][]*model.TariffLayer),
		fetcher: fetcher,
		cache:   cache,
	}
	if fetcher != nil && cache == nil {
		return nil, fmt.Errorf("live rate fetcher requires a cache")
	}

	for i := range r.layers {
		l := &r.layers[i]
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("invalid tariff layer: %w", err)
		}
		plen := len(l.ScopePattern)
		if r.buckets[plen] == nil {
			r.buckets[plen] = make(map[string][]*model.TariffLayer)
		}
		r.buckets[plen][l.ScopePattern] = append(r.buckets[plen][l.ScopePattern], l)
	}

	return r, nil
}

// Len returns the number of layers in the catalog.
func (r *Registry) Len() int {
	return len(r.layers)
}

// MatchLayers returns every duty program applicable to the tuple, one layer
// per program: the most specific scope match, and within equal specificity
// the latest matching effective window. Reduction across programs is the
// stacking resolver's job, not ours.
func (r *Registry) MatchLayers(ctx context.Context, code, country string, asOf time.Time) []MatchedLayer {
	// Exclusion carve-outs are tracked separately from the program's duty
	// layer: the resolver nets them against each other per program.
	perProgram := make(map[string]*model.TariffLayer)
	perExclusion := make(map[string]*model.TariffLayer)

	for plen := 4; plen <= len(code); plen += 2 {
		bucket := r.buckets[plen]
		if bucket == nil {
			continue
		}
		for _, l := range bucket[code[:plen]] {
			if !l.Countries.Contains(country) || !l.InWindow(asOf) {
				continue
			}
			target := perProgram
			if l.ExclusionFlag {
				target = perExclusion
			}
			cur := target[l.ProgramID]
			if cur == nil || preferLayer(l, cur) {
				target[l.ProgramID] = l
			}
		}
	}

	out := make([]MatchedLayer, 0, len(perProgram)+len(perExclusion))
	for _, l := range perProgram {
		rate, stale := r.layerRate(ctx, l, code)
		out = append(out, MatchedLayer{Layer: l, Rate: rate, Stale: stale})
	}
	for _, l := range perExclusion {
		out = append(out, MatchedLayer{Layer: l, Rate: l.Rate})
	}

	// Deterministic ordering regardless of map iteration.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Layer.ProgramID != out[j].Layer.ProgramID {
			return out[i].Layer.ProgramID < out[j].Layer.ProgramID
		}
		return !out[i].Layer.ExclusionFlag
	})
	return out
}

// preferLayer reports whether candidate should replace current as a
// program's effective layer: longer scope wins, then the later effective
// window, then precedence class.
func preferLayer(candidate, current *model.TariffLayer) bool {
	if len(candidate.ScopePattern) != len(current.ScopePattern) {
		return len(candidate.ScopePattern) > len(current.ScopePattern)
	}
	cf, uf := windowStart(candidate), windowStart(current)
	if !cf.Equal(uf) {
		return cf.After(uf)
	}
	return candidate.PrecedenceClass > current.PrecedenceClass
}

func windowStart(l *model.TariffLayer) time.Time {
	if l.EffectiveFrom == nil {
		return time.Time{}
	}
	return *l.EffectiveFrom
}

// layerRate returns the rate in force for a matched layer. Programs tracked
// by the live collaborator go through the TTL cache; concurrent misses for
// the same key coalesce into a single upstream fetch, and an unavailable
// upstream degrades to the last-known or static value flagged stale.
func (r *Registry) layerRate(ctx context.Context, l *model.TariffLayer, code string) (rate float64, stale bool) {
	if !l.LiveRate || r.fetcher == nil {
		return l.Rate, false
	}

	key := l.ProgramID + ":" + l.ScopePattern

	if cached, fresh, known := r.cache.Get(key); known && fresh {
		return cached, false
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		fetched, fetchErr := r.fetcher.FetchLiveRate(ctx, l.ProgramID, code)
		if fetchErr != nil {
			return 0.0, fetchErr
		}
		r.cache.Put(key, fetched)
		return fetched, nil
	})
	if err == nil {
		return v.(float64), false
	}

	if cached, _, known := r.cache.Get(key); known {
		slog.Warn("live rate fetch failed, serving stale cached rate",
			"program", l.ProgramID, "code", code, "error", err)
		return cached, true
	}

	slog.Warn("live rate fetch failed with no cached value, using static rate",
		"program", l.ProgramID, "code", code, "error", err)
	return l.Rate, true
}
