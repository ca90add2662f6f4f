package app

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accessibilityKeywords are matched against folded text.
var accessibilityKeywords = []string{
	"wheelchair",
	"accessible",
	"accessibility",
	"step-free",
	"step free",
	"barrier-free",
	"ramp",
	"elevator",
	"lift",
	"roll-in",
	"disabled",
	"mobility",
	"hearing loop",
	"braille",
	"tactile",
}

// fold lowercases and strips diacritics so "Zürich" matches "zurich".
// transform chains keep state, so one is built per call.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

// matchKeywords returns the distinct keywords present in folded text, in list order.
// A keyword counts only as a whole word, optionally pluralised with "s" or "es",
// so "ramps" matches while "trampled" does not.
func matchKeywords(folded string) []string {
	var out []string
	for _, k := range accessibilityKeywords {
		if hasKeyword(folded, k) {
			out = append(out, k)
		}
	}
	return out
}

func hasKeyword(folded, k string) bool {
	return indexWord(folded, k) >= 0 || indexWord(folded, k+"s") >= 0 || indexWord(folded, k+"es") >= 0
}

// indexWord finds needle in hay where it is not glued to other letters or digits.
// Both arguments are expected folded. It returns -1 when absent.
func indexWord(hay, needle string) int {
	if needle == "" {
		return -1
	}
	from := 0
	for {
		i := strings.Index(hay[from:], needle)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(needle)
		if boundaryBefore(hay, i) && boundaryAfter(hay, end) {
			return i
		}
		from = i + 1
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
