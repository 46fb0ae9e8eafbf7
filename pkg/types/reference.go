// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for bibliographic record
// matching: references under construction, per-index match verdicts,
// validation reports, and configuration.
package types

import (
	"regexp"
	"strings"
)

// ItemType classifies a bibliographic record.
type ItemType string

const (
	ItemJournalArticle  ItemType = "journalArticle"
	ItemBook            ItemType = "book"
	ItemBookSection     ItemType = "bookSection"
	ItemConferencePaper ItemType = "conferencePaper"
	ItemThesis          ItemType = "thesis"
	ItemWebpage         ItemType = "webpage"
	ItemReport          ItemType = "report"
	ItemPatent          ItemType = "patent"
	ItemPreprint        ItemType = "preprint"
)

// Author is one creator of a reference. Order within a reference's Authors
// slice is author order.
type Author struct {
	FirstName string `json:"firstName" yaml:"firstName"`
	LastName  string `json:"lastName" yaml:"lastName"`
}

// ExtractedReference is a bibliographic record under construction, typically
// produced by an upstream LLM extraction step. All fields besides ItemType
// and Title are optional. Upstream output is lossy: a missing value may
// arrive as an empty string or as the literal string "null", and both must
// be treated as blank (see IsBlank).
type ExtractedReference struct {
	ItemType ItemType `json:"itemType" yaml:"itemType"`
	Title    string   `json:"title" yaml:"title"`
	Authors  []Author `json:"authors,omitempty" yaml:"authors,omitempty"`
	Date     string   `json:"date,omitempty" yaml:"date,omitempty"`
	Year     string   `json:"year,omitempty" yaml:"year,omitempty"`

	PublicationTitle string `json:"publicationTitle,omitempty" yaml:"publicationTitle,omitempty"`
	Volume           string `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue            string `json:"issue,omitempty" yaml:"issue,omitempty"`
	Pages            string `json:"pages,omitempty" yaml:"pages,omitempty"`
	DOI              string `json:"DOI,omitempty" yaml:"DOI,omitempty"`
	ISBN             string `json:"ISBN,omitempty" yaml:"ISBN,omitempty"`
	ISSN             string `json:"ISSN,omitempty" yaml:"ISSN,omitempty"`
	URL              string `json:"url,omitempty" yaml:"url,omitempty"`
	Publisher        string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Place            string `json:"place,omitempty" yaml:"place,omitempty"`
	Edition          string `json:"edition,omitempty" yaml:"edition,omitempty"`
	BookTitle        string `json:"bookTitle,omitempty" yaml:"bookTitle,omitempty"`
	ConferenceName   string `json:"conferenceName,omitempty" yaml:"conferenceName,omitempty"`
	ProceedingsTitle string `json:"proceedingsTitle,omitempty" yaml:"proceedingsTitle,omitempty"`
	University       string `json:"university,omitempty" yaml:"university,omitempty"`
	ThesisType       string `json:"thesisType,omitempty" yaml:"thesisType,omitempty"`
	Series           string `json:"series,omitempty" yaml:"series,omitempty"`
	SeriesNumber     string `json:"seriesNumber,omitempty" yaml:"seriesNumber,omitempty"`
	NumPages         string `json:"numPages,omitempty" yaml:"numPages,omitempty"`
}

// yearPattern extracts a four-digit year from a free-form date string.
var yearPattern = regexp.MustCompile(`\b(1[5-9]\d{2}|20\d{2})\b`)

// IsBlank reports whether a field value should be treated as missing.
// Empty strings, whitespace-only strings, and the literal "null" (an
// artifact of lossy LLM output) are all blank.
func IsBlank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "null")
}

// FirstAuthorLastName returns the surname of the first author, or "" when
// the author list is empty or the surname is blank.
func (r ExtractedReference) FirstAuthorLastName() string {
	if len(r.Authors) == 0 {
		return ""
	}
	last := r.Authors[0].LastName
	if IsBlank(last) {
		return ""
	}
	return last
}

// YearString returns the reference's year: the Year field when populated,
// otherwise the first four-digit year found in the Date field.
func (r ExtractedReference) YearString() string {
	if !IsBlank(r.Year) {
		return strings.TrimSpace(r.Year)
	}
	if IsBlank(r.Date) {
		return ""
	}
	return yearPattern.FindString(r.Date)
}
