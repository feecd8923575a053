package scryfall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/manaforge/internal/cards"
)

func TestToCard(t *testing.T) {
	price := "0.25"
	sc := &Card{
		ID:            "abc",
		OracleID:      "oracle-abc",
		Name:          "Thrasios, Triton Hero",
		ManaCost:      "{G}{U}",
		CMC:           2,
		TypeLine:      "Legendary Creature — Merfolk Wizard",
		Colors:        []string{"U", "G"},
		ColorIdentity: []string{"G", "U"},
		Keywords:      []string{"Partner"},
		Legalities:    map[string]string{"commander": "legal", "standard": "not_legal", "vintage": "restricted"},
		Prices:        Prices{USD: &price},
	}

	card, err := ToCard(sc)
	require.NoError(t, err)

	assert.Equal(t, "abc", card.ID)
	assert.Equal(t, "oracle-abc", card.GroupKey())
	assert.Equal(t, []cards.Color{cards.Blue, cards.Green}, card.ColorIdentity)
	assert.Equal(t, cards.Legal, card.LegalityIn("commander"))
	assert.Equal(t, cards.Restricted, card.LegalityIn("vintage"))
	assert.True(t, card.HasPartner())
	require.NotNil(t, card.PriceUSD)
	assert.Equal(t, "0.25", *card.PriceUSD)
}

func TestToCard_MultiFaced(t *testing.T) {
	sc := &Card{
		ID:            "dfc",
		Name:          "Delver of Secrets // Insectile Aberration",
		TypeLine:      "Creature — Human Wizard // Creature — Human Insect",
		ColorIdentity: []string{"U"},
		CardFaces: []CardFace{
			{Name: "Delver of Secrets", ManaCost: "{U}", OracleText: "Transform it."},
			{Name: "Insectile Aberration", OracleText: "Flying"},
		},
	}

	card, err := ToCard(sc)
	require.NoError(t, err)
	assert.Equal(t, "{U}", card.ManaCost)
	assert.Contains(t, card.OracleText, "Transform it.")
	assert.Contains(t, card.OracleText, "Flying")
}

func TestToCard_DerivesMissingIdentity(t *testing.T) {
	card, err := ToCard(&Card{ID: "x", ManaCost: "{1}{W}", OracleText: "{T}: Add {B}."})
	require.NoError(t, err)
	assert.Equal(t, []cards.Color{cards.White, cards.Black}, card.ColorIdentity)

	colorless, err := ToCard(&Card{ID: "y", ManaCost: "{1}{W}", ColorIdentity: []string{}})
	require.NoError(t, err)
	assert.Empty(t, colorless.ColorIdentity, "an explicit empty identity is kept")
}

func TestToCard_RejectsUnknownValues(t *testing.T) {
	_, err := ToCard(&Card{ID: "x", ColorIdentity: []string{"P"}})
	assert.Error(t, err)

	_, err = ToCard(&Card{ID: "x", Legalities: map[string]string{"modern": "sort_of"}})
	assert.Error(t, err)

	_, err = ToCard(&Card{})
	assert.Error(t, err)

	_, err = ToCard(nil)
	assert.Error(t, err)
}
