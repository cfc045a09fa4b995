// Package model defines the core domain models used throughout the application.
package model

import "fmt"

// HtsLevel identifies the depth of a node in the tariff schedule hierarchy.
type HtsLevel string

// Hierarchy level constants, ordered by code length.
const (
	LevelChapter     HtsLevel = "CHAPTER"     // 2 digits
	LevelHeading     HtsLevel = "HEADING"     // 4 digits
	LevelSubheading  HtsLevel = "SUBHEADING"  // 6 digits
	LevelTariffLine  HtsLevel = "TARIFF_LINE" // 8 digits
	LevelStatistical HtsLevel = "STATISTICAL" // 10 digits
)

// LevelForLength maps a canonical code length to its hierarchy level.
func LevelForLength(n int) (HtsLevel, error) {
	switch n {
	case 2:
		return LevelChapter, nil
	case 4:
		return LevelHeading, nil
	case 6:
		return LevelSubheading, nil
	case 8:
		return LevelTariffLine, nil
	case 10:
		return LevelStatistical, nil
	default:
		return "", fmt.Errorf("no hierarchy level for code length %d", n)
	}
}

// HtsNode is one entry in the harmonized tariff schedule taxonomy.
// Codes are canonical digit strings with no separators.
type HtsNode struct {
	Code         string
	Level        HtsLevel
	Description  string
	ParentCode   string            // empty for chapters
	GeneralRate  string            // legal rate expression, e.g. "5.3%" or "Free"
	SpecialRates map[string]string // FTA program id -> rate expression
	Revision     string
}

// IsChapter reports whether the node is a 2-digit chapter root.
func (n *HtsNode) IsChapter() bool {
	return n.Level == LevelChapter
}

// Chapter returns the 2-digit chapter prefix of the node's code.
func (n *HtsNode) Chapter() string {
	if len(n.Code) < 2 {
		return n.Code
	}
	return n.Code[:2]
}

// Validate ensures the node satisfies the hierarchy invariants: a canonical
// even-length code, a matching level, and a parent whose code is a strict
// prefix of its own (chapters excepted).
func (n *HtsNode) Validate() error {
	if n.Code == "" {
		return fmt.Errorf("node code is required")
	}
	for _, r := range n.Code {
		if r < '0' || r > '9' {
			return fmt.Errorf("node code %q contains non-digit characters", n.Code)
		}
	}
	if len(n.Code)%2 != 0 || len(n.Code) < 2 || len(n.Code) > 10 {
		return fmt.Errorf("node code %q has invalid length %d", n.Code, len(n.Code))
	}

	level, err := LevelForLength(len(n.Code))
	if err != nil {
		return err
	}
	if n.Level != level {
		return fmt.Errorf("node %s declares level %s but code length implies %s", n.Code, n.Level, level)
	}

	if n.IsChapter() {
		if n.ParentCode != "" {
			return fmt.Errorf("chapter %s must not have a parent, got %q", n.Code, n.ParentCode)
		}
		return nil
	}

	if n.ParentCode == "" {
		return fmt.Errorf("non-chapter node %s is missing a parent", n.Code)
	}
	if len(n.ParentCode) != len(n.Code)-2 {
		return fmt.Errorf("node %s parent %s must be exactly 2 digits shorter", n.Code, n.ParentCode)
	}
	if n.Code[:len(n.ParentCode)] != n.ParentCode {
		return fmt.Errorf("node %s parent %s is not a prefix of its code", n.Code, n.ParentCode)
	}

	return nil
}
