// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Source identifies an external bibliographic index.
type Source string

const (
	SourceCrossref  Source = "crossref"
	SourceOpenAlex  Source = "openalex"
	SourceLobid     Source = "lobid"
	SourceEuropeana Source = "europeana"
	SourceK10plus   Source = "k10plus"
	SourceWikidata  Source = "wikidata"
)

// AllSources lists every source in the stable order used for adapter
// invocation. Ranking ties at equal score keep the first-seen match, so
// this order is part of the reconciliation contract.
func AllSources() []Source {
	return []Source{
		SourceCrossref,
		SourceOpenAlex,
		SourceLobid,
		SourceEuropeana,
		SourceK10plus,
		SourceWikidata,
	}
}

// MatchStatus is the outcome of one adapter's lookup for one reference.
type MatchStatus string

const (
	// StatusValidated means the index holds a record for the same work.
	StatusValidated MatchStatus = "validated"
	// StatusInvalid means the index contradicts the reference (for example
	// a resolvable identifier pointing at a different work).
	StatusInvalid MatchStatus = "invalid"
	// StatusNotFound means the index has no sufficiently similar record.
	StatusNotFound MatchStatus = "not_found"
	// StatusError means the lookup itself failed.
	StatusError MatchStatus = "error"
)

// Rank orders statuses for best-match selection: validated > invalid >
// not_found > error. A confirmed mismatch is more informative than silence,
// so invalid outranks not_found.
func (s MatchStatus) Rank() int {
	switch s {
	case StatusValidated:
		return 3
	case StatusInvalid:
		return 2
	case StatusNotFound:
		return 1
	default:
		return 0
	}
}

// IndexMatch is one adapter's verdict for one reference. Created fresh per
// (reference, adapter) invocation, consumed immediately by reconciliation,
// never persisted beyond the optional lookup cache.
type IndexMatch struct {
	// Source is the index that produced this verdict.
	Source Source `json:"source" yaml:"source"`

	// Status classifies the outcome.
	Status MatchStatus `json:"status" yaml:"status"`

	// Score is the match confidence in [0,1]. A score of 1 is reserved for
	// exact-identifier matches.
	Score float64 `json:"score" yaml:"score"`

	// Explanation is a human-readable account of the verdict.
	Explanation string `json:"explanation" yaml:"explanation"`

	// URL points at the authoritative record, when known.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Patch carries authoritative field values the source proposes to merge
	// into the reference. Only fields the source schema actually supplied
	// are set; a patch never contains blanks.
	Patch *ExtractedReference `json:"patch,omitempty" yaml:"patch,omitempty"`
}
