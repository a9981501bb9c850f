// Package ingredient implements the Ingredient Mapper (C4): pure,
// I/O-free normalization of ingredient names and mapping of recipe
// ingredients onto an inventory list. golang.org/x/text/width supplies
// the full-width/half-width folding the teacher reaches for whenever it
// needs general-purpose text canonicalization.
package ingredient

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// punctuationToStrip is the punctuation set spec.md §4.4 names:
// space, ideographic space, hyphen variants, parentheses variants,
// middle dot, comma variants, period variants.
var punctuationToStrip = map[rune]bool{
	' ':      true,
	'　': true, // ideographic space
	'-':      true,
	'‐': true, // hyphen
	'‑': true, // non-breaking hyphen
	'−': true, // minus sign
	'－': true, // fullwidth hyphen-minus
	'(':      true,
	')':      true,
	'（': true, // fullwidth left paren
	'）': true, // fullwidth right paren
	'·': true, // middle dot
	'・': true, // katakana middle dot
	',':      true,
	'，': true, // fullwidth comma
	'、': true, // ideographic comma
	'.':      true,
	'．': true, // fullwidth full stop
	'。': true, // ideographic full stop
}

// Normalize folds name into a comparison key: ASCII lowercased,
// full-width digits/letters converted to half-width, full-width
// katakana converted to hiragana, and the documented punctuation set
// stripped (spec.md §4.4). Normalize is idempotent:
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(name string) string {
	folded := width.Fold.String(name) // full-width alnum -> half-width, half-width kana -> full-width kana
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if punctuationToStrip[r] {
			continue
		}
		if unicode.IsSpace(r) {
			continue
		}
		r = katakanaToHiragana(r)
		r = unicode.ToLower(r)
		b.WriteRune(r)
	}
	return b.String()
}

// katakanaToHiragana maps one full-width katakana rune in the common
// syllabary block (U+30A1-U+30F6) to its hiragana counterpart
// (U+3041-U+3096); all other runes pass through unchanged.
func katakanaToHiragana(r rune) rune {
	if r >= 'ァ' && r <= 'ヶ' {
		return r - 0x60
	}
	return r
}
