package scryfall

import (
	"fmt"
	"strings"

	"github.com/ramonehamilton/manaforge/internal/cards"
)

// ToCard converts a Scryfall card into the strict domain type. Unknown
// colors or legality values are rejected rather than passed through.
func ToCard(sc *Card) (*cards.Card, error) {
	if sc == nil || sc.ID == "" {
		return nil, fmt.Errorf("card has no id")
	}

	manaCost := sc.ManaCost
	oracleText := sc.OracleText
	if len(sc.CardFaces) > 0 {
		// Multi-faced cards keep cost and text on the faces
		if manaCost == "" {
			manaCost = sc.CardFaces[0].ManaCost
		}
		if oracleText == "" {
			texts := make([]string, 0, len(sc.CardFaces))
			for _, f := range sc.CardFaces {
				if f.OracleText != "" {
					texts = append(texts, f.OracleText)
				}
			}
			oracleText = strings.Join(texts, "\n//\n")
		}
	}

	colors, err := cards.ParseColors(sc.Colors)
	if err != nil {
		return nil, fmt.Errorf("card %s: %w", sc.ID, err)
	}

	var identity []cards.Color
	if sc.ColorIdentity == nil {
		identity = cards.ColorIdentityFrom(manaCost, oracleText)
	} else if identity, err = cards.ParseColors(sc.ColorIdentity); err != nil {
		return nil, fmt.Errorf("card %s color identity: %w", sc.ID, err)
	}

	legalities := make(map[string]cards.Legality, len(sc.Legalities))
	for f, v := range sc.Legalities {
		l, err := cards.ParseLegality(v)
		if err != nil {
			return nil, fmt.Errorf("card %s legality in %s: %w", sc.ID, f, err)
		}
		legalities[f] = l
	}

	return &cards.Card{
		ID:            sc.ID,
		OracleID:      sc.OracleID,
		Name:          sc.Name,
		ManaCost:      manaCost,
		CMC:           sc.CMC,
		TypeLine:      sc.TypeLine,
		OracleText:    oracleText,
		Colors:        colors,
		ColorIdentity: identity,
		Legalities:    legalities,
		Keywords:      sc.Keywords,
		SetCode:       sc.SetCode,
		Rarity:        sc.Rarity,
		PriceUSD:      sc.Prices.USD,
	}, nil
}
