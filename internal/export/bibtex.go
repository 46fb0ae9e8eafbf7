// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export renders reconciled references as BibTeX and CSL-YAML for
// downstream citation tooling.
package export

import (
	"fmt"
	"strings"

	"github.com/pdiddy/bibmatch/internal/textnorm"
	"github.com/pdiddy/bibmatch/pkg/types"
)

// bibtexTypes maps item types onto BibTeX entry types. Anything unmapped
// falls back to misc.
var bibtexTypes = map[types.ItemType]string{
	types.ItemJournalArticle:  "article",
	types.ItemBook:            "book",
	types.ItemBookSection:     "incollection",
	types.ItemConferencePaper: "inproceedings",
	types.ItemThesis:          "phdthesis",
	types.ItemReport:          "techreport",
	types.ItemPreprint:        "article",
	types.ItemWebpage:         "misc",
	types.ItemPatent:          "misc",
}

// ToBibTeX renders one reference as a BibTeX entry under the given key.
func ToBibTeX(ref types.ExtractedReference, key string) string {
	entryType, ok := bibtexTypes[ref.ItemType]
	if !ok {
		entryType = "misc"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", entryType, key)

	if len(ref.Authors) > 0 {
		fmt.Fprintf(&b, "  author = {%s},\n", formatAuthors(ref.Authors))
	}
	writeField(&b, "title", ref.Title)

	switch entryType {
	case "article":
		writeField(&b, "journal", ref.PublicationTitle)
	case "inproceedings":
		if !types.IsBlank(ref.ProceedingsTitle) {
			writeField(&b, "booktitle", ref.ProceedingsTitle)
		} else {
			writeField(&b, "booktitle", ref.ConferenceName)
		}
	case "incollection":
		writeField(&b, "booktitle", ref.BookTitle)
	case "phdthesis":
		writeField(&b, "school", ref.University)
		writeField(&b, "type", ref.ThesisType)
	}

	writeField(&b, "year", ref.YearString())
	writeField(&b, "volume", ref.Volume)
	writeField(&b, "number", ref.Issue)
	writeField(&b, "pages", ref.Pages)
	writeField(&b, "publisher", ref.Publisher)
	writeField(&b, "address", ref.Place)
	writeField(&b, "edition", ref.Edition)
	writeField(&b, "series", ref.Series)
	if !types.IsBlank(ref.DOI) {
		fmt.Fprintf(&b, "  doi = {%s},\n", textnorm.NormalizeDOI(ref.DOI))
	}
	writeField(&b, "isbn", ref.ISBN)
	writeField(&b, "issn", ref.ISSN)
	writeField(&b, "url", ref.URL)

	b.WriteString("}\n")
	return b.String()
}

// ToBibTeXList renders references as a BibTeX bibliography with stable,
// de-duplicated citation keys.
func ToBibTeXList(refs []types.ExtractedReference) string {
	seen := map[string]int{}
	var entries []string
	for _, ref := range refs {
		key := CitationKey(ref)
		seen[key]++
		if n := seen[key]; n > 1 {
			key = fmt.Sprintf("%s-%d", key, n)
		}
		entries = append(entries, ToBibTeX(ref, key))
	}
	return strings.Join(entries, "\n")
}

// CitationKey derives a citation key from the first author surname, the
// year, and the first significant title token, e.g. "frege1884grundlagen".
func CitationKey(ref types.ExtractedReference) string {
	parts := []string{}
	if surname := textnorm.Normalize(ref.FirstAuthorLastName()); surname != "" {
		parts = append(parts, strings.ReplaceAll(surname, " ", ""))
	}
	if year := ref.YearString(); year != "" {
		parts = append(parts, year)
	}
	if tokens := textnorm.SignificantTokens(ref.Title); len(tokens) > 0 {
		parts = append(parts, tokens[0])
	}
	if len(parts) == 0 {
		return "untitled"
	}
	return strings.Join(parts, "")
}

func writeField(b *strings.Builder, name, value string) {
	if types.IsBlank(value) {
		return
	}
	fmt.Fprintf(b, "  %s = {%s},\n", name, escapeLatex(strings.TrimSpace(value)))
}

// formatAuthors renders authors in BibTeX style: "Last, First and Last, First".
func formatAuthors(authors []types.Author) string {
	var formatted []string
	for _, a := range authors {
		switch {
		case types.IsBlank(a.LastName):
			continue
		case types.IsBlank(a.FirstName):
			formatted = append(formatted, escapeLatex(a.LastName))
		default:
			formatted = append(formatted, fmt.Sprintf("%s, %s", escapeLatex(a.LastName), escapeLatex(a.FirstName)))
		}
	}
	return strings.Join(formatted, " and ")
}

// escapeLatex escapes special LaTeX characters. The & replacement must run
// before any escape that could itself produce an ampersand.
func escapeLatex(s string) string {
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
