package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFC, trims and collapses runs of whitespace
func Normalize(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}

// Fold lower-cases and strips Vietnamese diacritics so that
// "Hủy Đặt Hàng" and "huy dat hang" compare equal.
func Fold(text string) string {
	lowered := cases.Lower(language.Vietnamese).String(Normalize(text))
	// Casers and transformers are stateful, build them per call
	strip := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(strip, lowered)
	if err != nil {
		folded = lowered
	}
	return strings.ReplaceAll(folded, "đ", "d")
}
