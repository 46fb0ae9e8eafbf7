// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textnorm canonicalizes free text for fuzzy bibliographic
// comparison. Normalization is deterministic and pure: the same input
// always yields the same output and nothing here can fail.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents decomposes Unicode accents and removes the combining marks
// (e.g. "Élodie" -> "Elodie").
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// quoteStripper removes apostrophe and quote variants so "O'Brien" and
// "O’Brien" normalize identically.
var quoteStripper = strings.NewReplacer(
	"'", "", "’", "", "‘", "", "ʼ", "", "´", "", "`", "",
	`"`, "", "“", "", "”", "", "„", "",
)

// stopwords are dropped as whole words during normalization.
var stopwords = map[string]bool{"and": true, "the": true}

// Normalize canonicalizes text for comparison: strips accents, lowercases,
// strips quote variants, collapses non-alphanumeric runs to single spaces,
// drops the stopwords "and"/"the", and collapses whitespace. Used
// identically for titles and author surnames.
func Normalize(text string) string {
	s, _, err := transform.String(stripAccents, text)
	if err != nil {
		s = text
	}
	s = strings.ToLower(s)
	s = quoteStripper.Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	words := strings.Fields(b.String())
	kept := words[:0]
	for _, w := range words {
		if !stopwords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// doiPrefixes are stripped from DOI values before comparison.
var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi.org/",
	"doi:",
}

// doiPattern matches bare DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// NormalizeDOI canonicalizes a DOI for equality comparison: trims
// whitespace, strips resolver-URL and "doi:" prefixes, lowercases. Returns
// "" for blank input.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	if doi == "" || strings.EqualFold(doi, "null") {
		return ""
	}
	lower := strings.ToLower(doi)
	for _, p := range doiPrefixes {
		if strings.HasPrefix(lower, p) {
			doi = doi[len(p):]
			lower = lower[len(p):]
			break
		}
	}
	return strings.ToLower(strings.TrimSpace(doi))
}

// LooksLikeDOI reports whether s is a bare DOI after normalization.
func LooksLikeDOI(s string) bool {
	return doiPattern.MatchString(NormalizeDOI(s))
}

// SignificantTokens returns the normalized words of text longer than three
// characters, used to build boolean catalog queries from titles.
func SignificantTokens(text string) []string {
	var tokens []string
	for _, w := range strings.Fields(Normalize(text)) {
		if len(w) > 3 {
			tokens = append(tokens, w)
		}
	}
	return tokens
}
