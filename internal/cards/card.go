// Package cards defines the strict card value type consumed by the deck
// rules engine and the lookup boundary through which card data arrives.
package cards

import (
	"fmt"
	"strings"
)

// Color is one of the five Magic colors.
type Color string

const (
	White Color = "W"
	Blue  Color = "U"
	Black Color = "B"
	Red   Color = "R"
	Green Color = "G"
)

// AllColors lists the colors in canonical WUBRG order.
var AllColors = []Color{White, Blue, Black, Red, Green}

// ParseColor converts a single color letter into a Color.
func ParseColor(s string) (Color, error) {
	switch c := Color(strings.ToUpper(strings.TrimSpace(s))); c {
	case White, Blue, Black, Red, Green:
		return c, nil
	}
	return "", fmt.Errorf("unknown color %q", s)
}

// ParseColors converts a list of color letters, failing on the first
// unknown value. The result is sorted in WUBRG order with duplicates removed.
func ParseColors(values []string) ([]Color, error) {
	seen := make(map[Color]bool, len(values))
	for _, v := range values {
		c, err := ParseColor(v)
		if err != nil {
			return nil, err
		}
		seen[c] = true
	}
	return orderColors(seen), nil
}

func orderColors(set map[Color]bool) []Color {
	out := make([]Color, 0, len(set))
	for _, c := range AllColors {
		if set[c] {
			out = append(out, c)
		}
	}
	return out
}

// Legality is the status of a card in one format.
type Legality string

const (
	Legal      Legality = "legal"
	NotLegal   Legality = "not_legal"
	Restricted Legality = "restricted"
	Banned     Legality = "banned"
)

// ParseLegality validates a legality string.
func ParseLegality(s string) (Legality, error) {
	switch l := Legality(s); l {
	case Legal, NotLegal, Restricted, Banned:
		return l, nil
	}
	return "", fmt.Errorf("unknown legality %q", s)
}

// Card is a single printing of a Magic card.
type Card struct {
	ID            string              `json:"id"`        // Scryfall id, unique per printing
	OracleID      string              `json:"oracle_id"` // Shared by every printing of the card
	Name          string              `json:"name"`
	ManaCost      string              `json:"mana_cost"`
	CMC           float64             `json:"cmc"`
	TypeLine      string              `json:"type_line"`
	OracleText    string              `json:"oracle_text,omitempty"`
	Colors        []Color             `json:"colors,omitempty"`
	ColorIdentity []Color             `json:"color_identity"`
	Legalities    map[string]Legality `json:"legalities"`
	Keywords      []string            `json:"keywords,omitempty"`
	SetCode       string              `json:"set,omitempty"`
	Rarity        string              `json:"rarity,omitempty"`
	PriceUSD      *string             `json:"price_usd,omitempty"`
}

// IsBasicLand reports whether the card is a basic land and therefore exempt
// from copy limits.
func (c *Card) IsBasicLand() bool {
	return strings.Contains(c.TypeLine, "Basic Land")
}

// HasPartner reports whether the card carries a Partner-class keyword.
func (c *Card) HasPartner() bool {
	for _, k := range c.Keywords {
		if k == "Partner" || k == "Partner with" {
			return true
		}
	}
	return false
}

// LegalityIn returns the card's legality in the named format. Formats the
// provider did not report are treated as not legal.
func (c *Card) LegalityIn(format string) Legality {
	if l, ok := c.Legalities[format]; ok {
		return l
	}
	return NotLegal
}

// IsLegal reports whether the card is plainly legal in the format.
func (c *Card) IsLegal(format string) bool {
	return c.LegalityIn(format) == Legal
}

// GroupKey returns the key used to count copies across printings.
func (c *Card) GroupKey() string {
	if c.OracleID != "" {
		return c.OracleID
	}
	return c.ID
}

// WithinColorIdentity reports whether every color in identity appears in
// allowed.
func WithinColorIdentity(identity, allowed []Color) bool {
	for _, c := range identity {
		found := false
		for _, a := range allowed {
			if a == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// UnionIdentity merges several color identities in WUBRG order.
func UnionIdentity(identities ...[]Color) []Color {
	set := make(map[Color]bool)
	for _, id := range identities {
		for _, c := range id {
			set[c] = true
		}
	}
	return orderColors(set)
}

// Lookup resolves printing ids to cards. Implementations must be safe to
// read concurrently and are never mutated by consumers.
type Lookup interface {
	Card(id string) (*Card, bool)
}

// MapLookup is a Lookup backed by a map keyed by printing id.
type MapLookup map[string]*Card

// Card implements Lookup.
func (m MapLookup) Card(id string) (*Card, bool) {
	c, ok := m[id]
	return c, ok && c != nil
}

// NewMapLookup indexes cards by printing id.
func NewMapLookup(list ...*Card) MapLookup {
	m := make(MapLookup, len(list))
	for _, c := range list {
		if c != nil {
			m[c.ID] = c
		}
	}
	return m
}
