package model

import (
	"fmt"
	"time"
)

// CountryScope restricts a tariff layer to a set of origin countries.
// All=true with a non-empty Exclude set means "every country except these".
type CountryScope struct {
	All     bool
	Include []string
	Exclude []string
}

// Contains reports whether the given ISO country code falls inside the scope.
func (s CountryScope) Contains(country string) bool {
	for _, c := range s.Exclude {
		if c == country {
			return false
		}
	}
	if s.All {
		return true
	}
	for _, c := range s.Include {
		if c == country {
			return true
		}
	}
	return false
}

// TariffLayer is one duty-program rule: a code-prefix scope, a country scope,
// an effective window, and a rate. Layers are append-only; new legislation is
// a new layer with a later effective window, never an edit.
type TariffLayer struct {
	ProgramID       string
	ScopePattern    string // HTS code prefix, 4-10 digits
	Countries       CountryScope
	Rate            float64 // percentage points
	EffectiveFrom   *time.Time
	EffectiveTo     *time.Time // nil = open-ended
	PrecedenceClass int        // tie-break between overlapping layers of different programs
	ExclusionFlag   bool       // layer carves codes out of a broader program
	LiveRate        bool       // rate tracked by the live fetch collaborator
	Source          string
}

// InWindow reports whether asOf falls within [EffectiveFrom, EffectiveTo).
func (l *TariffLayer) InWindow(asOf time.Time) bool {
	if l.EffectiveFrom != nil && asOf.Before(*l.EffectiveFrom) {
		return false
	}
	if l.EffectiveTo != nil && !asOf.Before(*l.EffectiveTo) {
		return false
	}
	return true
}

// Validate ensures the layer is structurally sound.
func (l *TariffLayer) Validate() error {
	if l.ProgramID == "" {
		return fmt.Errorf("layer program id is required")
	}
	if len(l.ScopePattern) < 4 || len(l.ScopePattern) > 10 || len(l.ScopePattern)%2 != 0 {
		return fmt.Errorf("layer %s scope pattern %q must be 4-10 digits", l.ProgramID, l.ScopePattern)
	}
	for _, r := range l.ScopePattern {
		if r < '0' || r > '9' {
			return fmt.Errorf("layer %s scope pattern %q contains non-digit characters", l.ProgramID, l.ScopePattern)
		}
	}
	if !l.Countries.All && len(l.Countries.Include) == 0 {
		return fmt.Errorf("layer %s has an empty country scope", l.ProgramID)
	}
	if l.EffectiveFrom != nil && l.EffectiveTo != nil && !l.EffectiveFrom.Before(*l.EffectiveTo) {
		return fmt.Errorf("layer %s effective window is empty", l.ProgramID)
	}
	return nil
}
