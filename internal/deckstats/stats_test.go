package deckstats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/manaforge/internal/cards"
	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

func testLookup() cards.MapLookup {
	return cards.NewMapLookup(
		&cards.Card{ID: "bolt", Name: "Lightning Bolt", CMC: 1, TypeLine: "Instant", ColorIdentity: []cards.Color{cards.Red}},
		&cards.Card{ID: "goyf", Name: "Tarmogoyf", CMC: 2, TypeLine: "Creature — Lhurgoyf", ColorIdentity: []cards.Color{cards.Green}},
		&cards.Card{ID: "helix", Name: "Lightning Helix", CMC: 2, TypeLine: "Instant", ColorIdentity: []cards.Color{cards.White, cards.Red}},
		&cards.Card{ID: "titan", Name: "Ulamog", CMC: 10, TypeLine: "Legendary Creature — Eldrazi", ColorIdentity: []cards.Color{}},
		&cards.Card{ID: "mountain", Name: "Mountain", CMC: 0, TypeLine: "Basic Land — Mountain", ColorIdentity: []cards.Color{}},
		&cards.Card{ID: "wurmcoil", Name: "Wurmcoil Engine", CMC: 6, TypeLine: "Artifact Creature — Phyrexian Wurm"},
		&cards.Card{ID: "saga", Name: "Urza's Saga", CMC: 0, TypeLine: "Enchantment Land — Urza's Saga"},
		&cards.Card{ID: "cmdr", Name: "Omnath", CMC: 4, TypeLine: "Legendary Creature", ColorIdentity: []cards.Color{cards.Blue}},
	)
}

func entry(cardID string, qty int, cat models.Category) *models.DeckCard {
	return &models.DeckCard{CardID: cardID, Quantity: qty, Category: cat}
}

func TestCalculate(t *testing.T) {
	entries := []*models.DeckCard{
		entry("bolt", 4, models.CategoryMainboard),
		entry("goyf", 4, models.CategoryMainboard),
		entry("helix", 2, models.CategoryMainboard),
		entry("titan", 1, models.CategoryMainboard),
		entry("mountain", 10, models.CategoryMainboard),
		entry("bolt", 3, models.CategorySideboard),
		entry("helix", 1, models.CategoryMaybeboard),
		entry("cmdr", 1, models.CategoryCommander),
		entry("ghost", 2, models.CategoryMainboard),
	}

	stats := Calculate(entries, testLookup())

	assert.Equal(t, 23, stats.MainboardCount)
	assert.Equal(t, 3, stats.SideboardCount)
	assert.Equal(t, 1, stats.MaybeboardCount)
	assert.Equal(t, 1, stats.CommanderCount)

	assert.Equal(t, map[int]int{0: 10, 1: 4, 2: 6, 7: 1}, stats.ManaCurve)

	// (4*1 + 4*2 + 2*2 + 1*10) / 11 = 2.36
	assert.Equal(t, 2.4, stats.AverageCMC)

	assert.Equal(t, TypeDistribution{Creatures: 5, Instants: 6, Lands: 10}, stats.Types)
	assert.Equal(t, ColorDistribution{W: 2, R: 6, G: 4, C: 11}, stats.Colors)
	assert.Equal(t, []cards.Color{cards.White, cards.Blue, cards.Red, cards.Green}, stats.ColorIdentity)
	assert.Equal(t, []string{"ghost"}, stats.Unresolved)
}

func TestCalculate_TypePriority(t *testing.T) {
	stats := Calculate([]*models.DeckCard{
		entry("wurmcoil", 1, models.CategoryMainboard),
		entry("saga", 2, models.CategoryMainboard),
	}, testLookup())

	assert.Equal(t, 1, stats.Types.Creatures, "artifact creatures count as creatures")
	assert.Equal(t, 2, stats.Types.Enchantments, "enchantment lands count as enchantments")
	assert.Zero(t, stats.Types.Lands)
	assert.Equal(t, 6.0, stats.AverageCMC, "lands are excluded from the average")
}

func TestCalculate_Empty(t *testing.T) {
	stats := Calculate(nil, testLookup())
	assert.Zero(t, stats.MainboardCount)
	assert.Zero(t, stats.AverageCMC)
	assert.Empty(t, stats.ManaCurve)
	assert.NotNil(t, stats.ColorIdentity)
}

func TestCurvePoints(t *testing.T) {
	stats := Stats{ManaCurve: map[int]int{1: 4, 7: 2}}
	points := stats.CurvePoints()

	require.Len(t, points, 8)
	assert.Equal(t, CurvePoint{Label: "0", Count: 0}, points[0])
	assert.Equal(t, CurvePoint{Label: "1", Count: 4}, points[1])
	assert.Equal(t, CurvePoint{Label: "7+", Count: 2}, points[7])
}

func TestColorPoints(t *testing.T) {
	stats := Stats{Colors: ColorDistribution{R: 6, C: 2}}
	assert.Equal(t, []ColorPoint{
		{Color: "R", Name: "Red", Count: 6},
		{Color: "C", Name: "Colorless", Count: 2},
	}, stats.ColorPoints())
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, "0%", Percentage(5, 0))
	assert.Equal(t, "33%", Percentage(1, 3))
	assert.Equal(t, "100%", Percentage(4, 4))
}

func TestRenderHTML(t *testing.T) {
	stats := Calculate([]*models.DeckCard{entry("bolt", 4, models.CategoryMainboard)}, testLookup())

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, stats, DefaultChartConfig()))

	html := buf.String()
	assert.True(t, strings.Contains(html, "Mana Curve"))
	assert.True(t, strings.Contains(html, "Color Distribution"))
}

func TestCompareOwned(t *testing.T) {
	entries := []*models.DeckCard{
		entry("bolt", 4, models.CategoryMainboard),
		entry("bolt", 2, models.CategorySideboard),
		entry("mountain", 20, models.CategoryMainboard),
		entry("goyf", 1, models.CategoryMaybeboard),
		entry("helix", 0, models.CategoryMainboard),
		nil,
	}

	report := CompareOwned(entries, map[string]int{"bolt": 3, "mountain": 40})
	assert.Equal(t, 26, report.Needed)
	assert.Equal(t, 23, report.Owned)
	assert.False(t, report.Complete)
	require.Len(t, report.Missing, 1)
	assert.Equal(t, MissingCard{CardID: "bolt", Needed: 6, Owned: 3}, report.Missing[0])

	full := CompareOwned(entries, map[string]int{"bolt": 6, "mountain": 20})
	assert.True(t, full.Complete)
	assert.Empty(t, full.Missing)
	assert.Equal(t, full.Needed, full.Owned)
}
