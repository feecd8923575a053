package cards

import (
	"regexp"
	"strconv"
	"strings"
)

var manaSymbolPattern = regexp.MustCompile(`\{([^}]+)\}`)

// ParseManaSymbols splits a mana cost into its symbols.
//
//	"{2}{U}{U}"   -> ["2", "U", "U"]
//	"{X}{2/W}{G}" -> ["X", "2/W", "G"]
func ParseManaSymbols(cost string) []string {
	if cost == "" {
		return nil
	}
	matches := manaSymbolPattern.FindAllStringSubmatch(cost, -1)
	symbols := make([]string, 0, len(matches))
	for _, m := range matches {
		symbols = append(symbols, m[1])
	}
	return symbols
}

// ManaValue computes the mana value of a cost string. Variable symbols count
// as zero, generic hybrids ("2/W") count their number and colored hybrids
// count one.
func ManaValue(cost string) int {
	total := 0
	for _, sym := range ParseManaSymbols(cost) {
		if n, err := strconv.Atoi(sym); err == nil {
			total += n
			continue
		}
		if parts := strings.Split(sym, "/"); len(parts) > 1 {
			if n, err := strconv.Atoi(parts[0]); err == nil {
				total += n
			} else {
				total++
			}
			continue
		}
		switch sym {
		case "X", "Y", "Z":
			continue
		}
		total++
	}
	return total
}

// ColorPips counts colored pips per color. Hybrid symbols count half for
// each of their colors.
func ColorPips(cost string) map[Color]float64 {
	pips := map[Color]float64{White: 0, Blue: 0, Black: 0, Red: 0, Green: 0}
	for _, sym := range ParseManaSymbols(cost) {
		if _, err := strconv.Atoi(sym); err == nil {
			continue
		}
		if strings.Contains(sym, "/") {
			for _, part := range strings.Split(sym, "/") {
				if _, ok := pips[Color(part)]; ok {
					pips[Color(part)] += 0.5
				}
			}
			continue
		}
		if _, ok := pips[Color(sym)]; ok {
			pips[Color(sym)]++
		}
	}
	return pips
}

// ColorsFromCost returns the colors present in a mana cost, in WUBRG order.
func ColorsFromCost(cost string) []Color {
	pips := ColorPips(cost)
	out := make([]Color, 0, len(AllColors))
	for _, c := range AllColors {
		if pips[c] > 0 {
			out = append(out, c)
		}
	}
	return out
}

// ColorIdentityFrom derives a color identity from the mana cost and any mana
// symbols in the rules text.
func ColorIdentityFrom(cost, oracleText string) []Color {
	set := make(map[Color]bool)
	for _, src := range []string{cost, oracleText} {
		for _, sym := range ParseManaSymbols(src) {
			for _, c := range AllColors {
				if strings.Contains(sym, string(c)) {
					set[c] = true
				}
			}
		}
	}
	return orderColors(set)
}
