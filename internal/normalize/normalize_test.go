package normalize

import (
	"math"
	"testing"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"european with currency", "1.234,56 €", 1234.56, true},
		{"plain integer", "850", 850, true},
		{"currency prefix", "€1.200", 1200, true},
		{"dollar grouping", "$1,234.56", 1234.56, true},
		{"decimal comma", "12,5", 12.5, true},
		{"decimal point", "12.5", 12.5, true},
		{"grouped thousands", "1.234", 1234, true},
		{"number with unit", "85 m²", 85, true},
		{"number with trailing words", "3 Zimmer", 3, true},
		{"spaced grouping", "1 234,56", 1234.56, true},
		{"empty", "", 0, false},
		{"whitespace only", "   ", 0, false},
		{"no digits", "auf Anfrage", 0, false},
		{"lone separator", "a.b", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Number(tt.input)
			if ok != tt.ok {
				t.Fatalf("Number(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Number(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims edges", "  Schöne Wohnung  ", "Schöne Wohnung"},
		{"keeps internal whitespace", "3 Zimmer, Küche, Bad", "3 Zimmer, Küche, Bad"},
		{"empty stays empty", "", ""},
		{"whitespace collapses to empty", " \t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
