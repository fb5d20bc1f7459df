package receipt

import "testing"

func TestParseAmountBrazilianFormats(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"150,00", "150"},
		{"R$ 99", "99"},
		{"10.000", "10000"},
		{"R$1.234", "1234"},
	}
	for _, c := range cases {
		got, err := parseAmount(c.in)
		if err != nil {
			t.Errorf("parseAmount(%q): %v", c.in, err)
			continue
		}
		if got.String() != c.want {
			t.Errorf("parseAmount(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestBestAmountKeywordPriority(t *testing.T) {
	// R$50.000 is larger, but the TOTAL-marked candidate wins on score.
	matches := []string{"R$500,00", "TOTAL R$400,00"}
	amt, raw, ok := bestAmount(matches)
	if !ok {
		t.Fatal("no amount chosen")
	}
	if amt.String() != "400" {
		t.Fatalf("expected 400 (TOTAL) got %s raw=%s", amt, raw)
	}
}

func TestFindMatchesPlausibility(t *testing.T) {
	text := "Comprovante PIX valor R$ 150,00 ID 1234567890123 tel 0119999"
	matches := findMatches(text)
	if len(matches) == 0 {
		t.Fatal("no matches found")
	}
	for _, m := range matches {
		if onlyDigits(m) == "1234567890123" {
			t.Fatalf("transaction id leaked into matches: %v", matches)
		}
		if onlyDigits(m) == "0119999" {
			t.Fatalf("leading-zero phone fragment leaked into matches: %v", matches)
		}
	}
	amt, _, ok := bestAmount(matches)
	if !ok || amt.String() != "150" {
		t.Fatalf("best amount = %s ok=%v, want 150", amt, ok)
	}
}
