// Package format encodes per-format deck construction rules and evaluates
// decks against them.
package format

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownFormat is returned when a format name is not supported.
var ErrUnknownFormat = errors.New("unknown format")

// Format is a supported deck-construction ruleset.
type Format string

const (
	Commander Format = "commander"
	Standard  Format = "standard"
	Modern    Format = "modern"
	Pioneer   Format = "pioneer"
	Legacy    Format = "legacy"
	Vintage   Format = "vintage"
	Pauper    Format = "pauper"
	Limited   Format = "limited"
)

// Unlimited is the copy limit of formats without one.
const Unlimited = math.MaxInt

// Rules describes the construction constraints of one format.
type Rules struct {
	MinDeckSize             int  `json:"min_deck_size"`
	MaxDeckSize             int  `json:"max_deck_size,omitempty"`   // 0 = no maximum
	ExactDeckSize           int  `json:"exact_deck_size,omitempty"` // 0 = not fixed
	MaxCopies               int  `json:"max_copies"`                // Excludes basic lands
	AllowsSideboard         bool `json:"allows_sideboard"`
	MaxSideboardSize        int  `json:"max_sideboard_size,omitempty"` // 0 = no maximum
	RequiresCommander       bool `json:"requires_commander"`
	AllowsPartnerCommanders bool `json:"allows_partner_commanders"`
}

var constructed = Rules{
	MinDeckSize:      60,
	MaxCopies:        4,
	AllowsSideboard:  true,
	MaxSideboardSize: 15,
}

var rules = map[Format]Rules{
	Commander: {
		MinDeckSize:             100,
		ExactDeckSize:           100,
		MaxCopies:               1,
		AllowsSideboard:         false,
		RequiresCommander:       true,
		AllowsPartnerCommanders: true,
	},
	Standard: constructed,
	Modern:   constructed,
	Pioneer:  constructed,
	Legacy:   constructed,
	Vintage:  constructed,
	Pauper:   constructed,
	Limited: {
		MinDeckSize:     40,
		MaxCopies:       Unlimited,
		AllowsSideboard: true,
	},
}

// All returns every supported format in a stable order.
func All() []Format {
	return []Format{Commander, Standard, Modern, Pioneer, Legacy, Vintage, Pauper, Limited}
}

// Parse converts a format name into a Format.
func Parse(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := rules[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

// Rules returns the construction rules of f. It panics for a Format that did
// not come from Parse or the declared constants.
func (f Format) Rules() Rules {
	r, ok := rules[f]
	if !ok {
		panic(fmt.Sprintf("format: no rules for %q", string(f)))
	}
	return r
}

// String implements fmt.Stringer.
func (f Format) String() string {
	return string(f)
}

// IsValidDeckSize reports whether count satisfies the format's size rule.
func (f Format) IsValidDeckSize(count int) bool {
	r := f.Rules()
	if r.ExactDeckSize > 0 {
		return count == r.ExactDeckSize
	}
	if r.MaxDeckSize > 0 {
		return count >= r.MinDeckSize && count <= r.MaxDeckSize
	}
	return count >= r.MinDeckSize
}
