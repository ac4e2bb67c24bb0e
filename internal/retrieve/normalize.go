// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiPunct is the ASCII punctuation set minus the hyphen, which Scopus
// titles use inside compound words.
const asciiPunct = "!\"#$%&'()*+,./:;<=>?@[\\]^_`{|}~"

// foldings covers letters and symbols that do not decompose into an ASCII
// base plus combining marks.
var foldings = strings.NewReplacer(
	"ß", "ss", "æ", "ae", "Æ", "AE", "œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O", "ł", "l", "Ł", "L", "đ", "d", "Đ", "D",
	"ð", "d", "Ð", "D", "þ", "th", "Þ", "TH", "ı", "i",
	"‘", "'", "’", "'", "‚", "'", "“", "\"", "”", "\"", "„", "\"",
	"–", "-", "—", "-", "‐", "-", "‑", "-", "−", "-",
	"…", "...", "\u00a0", " ",
)

// SimpleString makes s safe to embed in a Scopus query: lower-case,
// transliterated to plain ASCII, then stripped of ASCII punctuation other
// than '-'. Typographic quotes fold to ASCII ones first, so none survive.
// Characters without an ASCII rendering are dropped.
func SimpleString(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(asciiPunct, r) {
			return -1
		}
		return r
	}, toASCII(strings.ToLower(s)))
}

func toASCII(s string) string {
	s = foldings.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, out)
}
