package cards

import (
	"reflect"
	"testing"
)

func TestParseManaSymbols(t *testing.T) {
	tests := []struct {
		cost string
		want []string
	}{
		{"", nil},
		{"{2}{U}{U}", []string{"2", "U", "U"}},
		{"{X}{2/W}{G/P}", []string{"X", "2/W", "G/P"}},
	}

	for _, tt := range tests {
		got := ParseManaSymbols(tt.cost)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseManaSymbols(%q) = %v, want %v", tt.cost, got, tt.want)
		}
	}
}

func TestManaValue(t *testing.T) {
	tests := []struct {
		cost string
		want int
	}{
		{"", 0},
		{"{2}{U}{U}", 4},
		{"{X}{R}", 1},
		{"{2/W}{2/W}", 4},
		{"{W/U}{B}", 2},
		{"{10}", 10},
		{"{G/P}", 1},
	}

	for _, tt := range tests {
		if got := ManaValue(tt.cost); got != tt.want {
			t.Errorf("ManaValue(%q) = %d, want %d", tt.cost, got, tt.want)
		}
	}
}

func TestColorPips(t *testing.T) {
	pips := ColorPips("{1}{W}{W}{W/U}")

	if pips[White] != 2.5 {
		t.Errorf("expected 2.5 white pips, got %v", pips[White])
	}
	if pips[Blue] != 0.5 {
		t.Errorf("expected 0.5 blue pips, got %v", pips[Blue])
	}
	if pips[Red] != 0 {
		t.Errorf("expected no red pips, got %v", pips[Red])
	}
}

func TestColorsFromCost(t *testing.T) {
	got := ColorsFromCost("{G}{1}{W}")
	want := []Color{White, Green}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ColorsFromCost() = %v, want %v", got, want)
	}
}

func TestColorIdentityFrom(t *testing.T) {
	got := ColorIdentityFrom("{1}{G}", "{T}: Add {U}.")
	want := []Color{Blue, Green}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ColorIdentityFrom() = %v, want %v", got, want)
	}

	if got := ColorIdentityFrom("{3}", ""); len(got) != 0 {
		t.Errorf("expected colorless identity, got %v", got)
	}
}
