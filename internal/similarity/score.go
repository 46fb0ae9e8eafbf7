// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import (
	"github.com/pdiddy/bibmatch/internal/textnorm"
	"github.com/pdiddy/bibmatch/pkg/types"
)

// Candidate is the comparable projection of one record returned by an
// external index. Only the fields every source schema can plausibly supply.
type Candidate struct {
	Title               string
	DOI                 string
	Year                string
	FirstAuthorLastName string
}

// Weights controls the composite score. Title similarity is graded (Dice);
// author and year are exact-equality signals after normalization. Title
// carries most of the weight because it is the most reliable signal across
// heterogeneous source schemas.
type Weights struct {
	Title  float64
	Author float64
	Year   float64
}

// DefaultWeights is the standard composite weighting.
var DefaultWeights = Weights{Title: 0.75, Author: 0.20, Year: 0.05}

// TitleOnly suits catalog sources whose author and date metadata is
// unreliable.
var TitleOnly = Weights{Title: 1.0}

// TitleAuthor suits search fallbacks without usable identifiers or dates.
var TitleAuthor = Weights{Title: 0.80, Author: 0.20}

// Result is the outcome of scoring one candidate against a reference.
type Result struct {
	// Score is the confidence in [0,1]. 1 is reserved for exact-identifier
	// matches.
	Score float64

	// DOIMismatch is set when both sides carry a DOI and they differ. An
	// identifier mismatch is stronger evidence than any textual similarity,
	// so it forces Score to 0.
	DOIMismatch bool
}

// Score compares a reference against an index candidate. When both carry a
// DOI the comparison short-circuits: equal normalized DOIs score 1, unequal
// score 0 with DOIMismatch set, and text similarity is never consulted.
// Otherwise the composite is w.Title*dice + w.Author*exact + w.Year*exact.
func Score(ref types.ExtractedReference, cand Candidate, w Weights) Result {
	refDOI := textnorm.NormalizeDOI(ref.DOI)
	candDOI := textnorm.NormalizeDOI(cand.DOI)

	if refDOI != "" && candDOI != "" {
		if refDOI == candDOI {
			return Result{Score: 1}
		}
		return Result{Score: 0, DOIMismatch: true}
	}

	score := w.Title * Dice(ref.Title, cand.Title)

	refAuthor := textnorm.Normalize(ref.FirstAuthorLastName())
	candAuthor := textnorm.Normalize(cand.FirstAuthorLastName)
	if refAuthor != "" && refAuthor == candAuthor {
		score += w.Author
	}

	refYear := ref.YearString()
	if refYear != "" && refYear == cand.Year {
		score += w.Year
	}

	return Result{Score: score}
}
