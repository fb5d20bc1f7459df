package receipt

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Validate checks whether the receipt image at path shows the expected
// amount. It returns the matched evidence snippet on accept, ErrNoMatch when
// the text was readable but the amount is absent (a normal negative result),
// and ErrUnreadable or another error when the OCR engine itself failed.
func Validate(path string, expected decimal.Decimal) (string, error) {
	text, err := RecognizeText(path)
	if err != nil {
		return "", err
	}
	cleaned := cleanRecognized(text)
	if cleaned == "" {
		return "", ErrUnreadable
	}
	needle := amountNeedle(expected)
	idx := strings.Index(cleaned, needle)
	if idx < 0 {
		return "", ErrNoMatch
	}
	lo := idx - 12
	if lo < 0 {
		lo = 0
	}
	hi := idx + len(needle) + 12
	if hi > len(cleaned) {
		hi = len(cleaned)
	}
	return cleaned[lo:hi], nil
}

// cleanRecognized lowercases the recognized text and strips all whitespace.
func cleanRecognized(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, text)
}

// amountNeedle formats the expected amount to two decimals and strips every
// non-digit, e.g. 150 -> "15000". A substring check against this needle is a
// heuristic, not a parse: digit misreads give false negatives, and the digit
// run appearing elsewhere in the receipt gives false positives.
func amountNeedle(expected decimal.Decimal) string {
	return onlyDigits(expected.StringFixed(2))
}
