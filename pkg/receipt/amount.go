package receipt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:total|valor|pago|pagamento|transfer[eê]ncia)[:\s]*(?:r\$)?\s*([0-9]+(?:\.[0-9]{3})*(?:,[0-9]{2})?)`),
	regexp.MustCompile(`(?i)r\$\s*([0-9]+(?:\.[0-9]{3})*(?:,[0-9]{2})?)`),
	regexp.MustCompile(`([0-9]{1,3}(?:\.[0-9]{3})+(?:,[0-9]{2})?)`),
	regexp.MustCompile(`([0-9]+,[0-9]{2})`),
}

// ExtractAmount OCRs the image and picks the most plausible monetary amount
// from the recognized text. Returns the amount, a rough confidence, and the
// raw matched substring; ErrNoAmount when nothing plausible is found.
func ExtractAmount(path string) (decimal.Decimal, float64, string, error) {
	text, err := RecognizeText(path)
	if err != nil {
		return decimal.Zero, 0, "", err
	}
	matches := findMatches(text)
	if len(matches) == 0 {
		return decimal.Zero, 0, "", ErrNoAmount
	}
	amt, raw, ok := bestAmount(matches)
	if !ok {
		return decimal.Zero, 0, "", ErrNoAmount
	}
	conf := float64(len(raw)) / float64(len(text)+1)
	if conf > 1 {
		conf = 1
	}
	low := strings.ToLower(raw)
	if strings.Contains(low, "r$") || strings.HasSuffix(low, ",00") {
		if conf < 0.85 {
			conf = 0.85
		}
	}
	return amt, conf, raw, nil
}

// findMatches collects candidate amount substrings, keeping the currency
// marker attached when the pattern consumed it so scoring can prioritize it.
func findMatches(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, re := range amountPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m) < 2 {
				continue
			}
			s := strings.TrimSpace(m[1])
			if s == "" {
				continue
			}
			full := strings.ToLower(m[0])
			if strings.Contains(full, "r$") && !strings.Contains(strings.ToLower(s), "r$") {
				s = "R$" + s
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			if !isPlausibleAmount(s) {
				continue
			}
			out = append(out, s)
		}
	}
	return out
}

// isPlausibleAmount rejects numeric runs that are more likely phone numbers,
// document ids or transaction references than money: long digit-only runs,
// leading zeros, bare one-digit fragments.
func isPlausibleAmount(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if strings.Contains(strings.ToLower(s), "r$") {
		return true
	}
	d := onlyDigits(s)
	if d == "" || d[0] == '0' {
		return false
	}
	if strings.Contains(s, ".") || strings.Contains(s, ",") {
		return len(d) >= 3
	}
	return len(d) >= 2 && len(d) <= 7
}

// parseAmount normalizes a matched substring into a decimal amount.
// Brazilian formatting: '.' groups thousands, ',' marks cents, so
// "1.234,56" -> 1234.56 and "150,00" -> 150.
func parseAmount(found string) (decimal.Decimal, error) {
	s := strings.TrimSpace(found)
	low := strings.ToLower(s)
	s = strings.TrimSpace(strings.TrimPrefix(low, "r$"))
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty match")
	}
	if i := strings.LastIndex(s, ","); i >= 0 {
		intPart := onlyDigits(s[:i])
		frac := onlyDigits(s[i+1:])
		if intPart == "" {
			return decimal.Zero, fmt.Errorf("no digits in %q", found)
		}
		s = intPart
		if frac != "" {
			s = intPart + "." + frac
		}
	} else {
		s = strings.ReplaceAll(s, ".", "")
	}
	amt, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", found, err)
	}
	return amt.Abs(), nil
}

// bestAmount selects the highest-scoring candidate. Currency markers beat
// keyword context beat separator formatting; ties fall back to the larger
// amount, then the longer raw match.
func bestAmount(matches []string) (decimal.Decimal, string, bool) {
	type cand struct {
		amt   decimal.Decimal
		raw   string
		score int
	}
	scoreFor := func(raw string) int {
		s := 0
		low := strings.ToLower(raw)
		if strings.Contains(low, "r$") {
			s += 10
		}
		if strings.Contains(low, "total") || strings.Contains(low, "valor") {
			s += 8
		}
		if strings.Contains(raw, ".") || strings.Contains(raw, ",") {
			s += 5
		}
		if strings.HasSuffix(raw, ",00") {
			s += 3
		}
		if len(onlyDigits(raw)) >= 4 {
			s += 1
		}
		return s
	}
	var cands []cand
	for _, m := range matches {
		amt, err := parseAmount(m)
		if err != nil || !amt.IsPositive() {
			continue
		}
		cands = append(cands, cand{amt: amt, raw: m, score: scoreFor(m)})
	}
	if len(cands) == 0 {
		return decimal.Zero, "", false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		replace := false
		switch {
		case c.score > best.score:
			replace = true
		case c.score == best.score && c.amt.GreaterThan(best.amt):
			replace = true
		case c.score == best.score && c.amt.Equal(best.amt) && len(c.raw) > len(best.raw):
			replace = true
		}
		if replace {
			best = c
		}
	}
	return best.amt, best.raw, true
}
