package deckstats

import (
	"sort"

	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

// MissingCard is a printing the deck needs more copies of than are owned.
type MissingCard struct {
	CardID string `json:"scryfall_id"`
	Needed int    `json:"needed"`
	Owned  int    `json:"owned"`
}

// Ownership compares a deck against the cards a user owns.
type Ownership struct {
	Needed   int           `json:"needed"`
	Owned    int           `json:"owned"`
	Missing  []MissingCard `json:"missing"`
	Complete bool          `json:"complete"`
}

// CompareOwned checks every printing in the commander, mainboard and
// sideboard against owned copy counts. Copies are matched by printing id;
// maybeboard entries are not required.
func CompareOwned(entries []*models.DeckCard, owned map[string]int) Ownership {
	needed := make(map[string]int)
	for _, e := range entries {
		if e == nil || e.Quantity < 1 || e.Category == models.CategoryMaybeboard {
			continue
		}
		needed[e.CardID] += e.Quantity
	}

	report := Ownership{Missing: []MissingCard{}}
	for id, n := range needed {
		have := owned[id]
		report.Needed += n
		report.Owned += min(have, n)
		if have < n {
			report.Missing = append(report.Missing, MissingCard{CardID: id, Needed: n, Owned: have})
		}
	}
	sort.Slice(report.Missing, func(i, j int) bool {
		return report.Missing[i].CardID < report.Missing[j].CardID
	})
	report.Complete = len(report.Missing) == 0
	return report
}
