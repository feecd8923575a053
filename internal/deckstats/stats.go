// Package deckstats computes deck composition metrics such as the mana
// curve and color distribution.
package deckstats

import (
	"math"
	"strconv"
	"strings"

	"github.com/ramonehamilton/manaforge/internal/cards"
	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

// MaxCurveBucket is the highest mana value bucket; costlier cards are
// counted in it.
const MaxCurveBucket = 7

// TypeDistribution counts cards by their primary type. Each card counts once,
// under the first of creature, instant, sorcery, planeswalker, artifact,
// enchantment or land that its type line contains.
type TypeDistribution struct {
	Creatures     int `json:"creatures"`
	Instants      int `json:"instants"`
	Sorceries     int `json:"sorceries"`
	Planeswalkers int `json:"planeswalkers"`
	Artifacts     int `json:"artifacts"`
	Enchantments  int `json:"enchantments"`
	Lands         int `json:"lands"`
	Other         int `json:"other"`
}

// ColorDistribution counts cards per color identity color. Multicolor cards
// count once for each of their colors; colorless cards count under C.
type ColorDistribution struct {
	W int `json:"W"`
	U int `json:"U"`
	B int `json:"B"`
	R int `json:"R"`
	G int `json:"G"`
	C int `json:"C"`
}

// Stats holds the metrics of one deck. Curve, type and color metrics cover
// the mainboard only.
type Stats struct {
	MainboardCount  int `json:"mainboard_count"`
	SideboardCount  int `json:"sideboard_count"`
	MaybeboardCount int `json:"maybeboard_count"`
	CommanderCount  int `json:"commander_count"`

	ManaCurve  map[int]int `json:"mana_curve"`
	AverageCMC float64     `json:"average_cmc"`

	Types         TypeDistribution  `json:"types"`
	Colors        ColorDistribution `json:"colors"`
	ColorIdentity []cards.Color     `json:"color_identity"`

	// Unresolved lists printing ids with no card data. They are counted in
	// the category totals but not in any other metric.
	Unresolved []string `json:"unresolved,omitempty"`
}

// Calculate computes deck metrics from entries, resolving card data through
// lookup.
func Calculate(entries []*models.DeckCard, lookup cards.Lookup) Stats {
	stats := Stats{
		ManaCurve:     make(map[int]int),
		ColorIdentity: []cards.Color{},
	}

	var totalCMC float64
	var nonLand int
	identities := make([][]cards.Color, 0, len(entries))

	for _, e := range entries {
		switch e.Category {
		case models.CategorySideboard:
			stats.SideboardCount += e.Quantity
			continue
		case models.CategoryMaybeboard:
			stats.MaybeboardCount += e.Quantity
			continue
		case models.CategoryCommander:
			stats.CommanderCount += e.Quantity
			if card, ok := lookup.Card(e.CardID); ok {
				identities = append(identities, card.ColorIdentity)
			}
			continue
		}

		stats.MainboardCount += e.Quantity
		card, ok := lookup.Card(e.CardID)
		if !ok {
			stats.Unresolved = append(stats.Unresolved, e.CardID)
			continue
		}

		stats.ManaCurve[curveBucket(card.CMC)] += e.Quantity
		if !strings.Contains(card.TypeLine, "Land") {
			totalCMC += card.CMC * float64(e.Quantity)
			nonLand += e.Quantity
		}
		stats.Types.add(card.TypeLine, e.Quantity)
		stats.Colors.add(card.ColorIdentity, e.Quantity)
		identities = append(identities, card.ColorIdentity)
	}

	if nonLand > 0 {
		stats.AverageCMC = math.Round(totalCMC/float64(nonLand)*10) / 10
	}
	stats.ColorIdentity = cards.UnionIdentity(identities...)
	return stats
}

func curveBucket(cmc float64) int {
	return min(int(math.Floor(cmc)), MaxCurveBucket)
}

func (t *TypeDistribution) add(typeLine string, qty int) {
	switch tl := strings.ToLower(typeLine); {
	case strings.Contains(tl, "creature"):
		t.Creatures += qty
	case strings.Contains(tl, "instant"):
		t.Instants += qty
	case strings.Contains(tl, "sorcery"):
		t.Sorceries += qty
	case strings.Contains(tl, "planeswalker"):
		t.Planeswalkers += qty
	case strings.Contains(tl, "artifact"):
		t.Artifacts += qty
	case strings.Contains(tl, "enchantment"):
		t.Enchantments += qty
	case strings.Contains(tl, "land"):
		t.Lands += qty
	default:
		t.Other += qty
	}
}

func (d *ColorDistribution) add(identity []cards.Color, qty int) {
	if len(identity) == 0 {
		d.C += qty
		return
	}
	for _, c := range identity {
		switch c {
		case cards.White:
			d.W += qty
		case cards.Blue:
			d.U += qty
		case cards.Black:
			d.B += qty
		case cards.Red:
			d.R += qty
		case cards.Green:
			d.G += qty
		}
	}
}

// CurvePoint is one bar of the mana curve.
type CurvePoint struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CurvePoints returns the mana curve as a dense series from 0 to 7+.
func (s Stats) CurvePoints() []CurvePoint {
	points := make([]CurvePoint, MaxCurveBucket+1)
	for i := range points {
		label := strconv.Itoa(i)
		if i == MaxCurveBucket {
			label += "+"
		}
		points[i] = CurvePoint{Label: label, Count: s.ManaCurve[i]}
	}
	return points
}

// Percentage formats value as a whole percentage of total.
func Percentage(value, total int) string {
	if total == 0 {
		return "0%"
	}
	return strconv.Itoa(int(math.Round(float64(value)/float64(total)*100))) + "%"
}
