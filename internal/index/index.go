// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index implements one adapter per external bibliographic index.
// Each adapter takes a candidate reference and returns zero-or-one best
// match verdict. Adapters are independent and failure-isolated: a provider
// outage or malformed response degrades to an error-status match and never
// propagates as a Go error or panic.
package index

import (
	"context"
	"fmt"

	"github.com/pdiddy/bibmatch/internal/similarity"
	"github.com/pdiddy/bibmatch/pkg/types"
)

// ValidatedThreshold is the default decision boundary between "treat as
// same work" and "treat as unrelated".
const ValidatedThreshold = 0.8

// LabelThreshold is the stricter boundary for label-only entity search,
// which carries no author or year corroboration.
const LabelThreshold = 0.85

// defaultMaxCandidates bounds how many search results an adapter scores.
const defaultMaxCandidates = 5

// Matcher queries one external bibliographic index for a reference.
// Implementations encapsulate the provider's request construction and
// response-shape parsing completely; callers never see provider structures.
type Matcher interface {
	// Source identifies the index this matcher queries.
	Source() types.Source

	// Match looks up the reference and returns the best verdict. It never
	// returns a Go error: failures become StatusError matches.
	Match(ctx context.Context, ref types.ExtractedReference) types.IndexMatch
}

// errorMatch builds a StatusError verdict.
func errorMatch(src types.Source, format string, args ...any) types.IndexMatch {
	return types.IndexMatch{
		Source:      src,
		Status:      types.StatusError,
		Explanation: fmt.Sprintf(format, args...),
	}
}

// notFoundMatch builds a StatusNotFound verdict.
func notFoundMatch(src types.Source, format string, args ...any) types.IndexMatch {
	return types.IndexMatch{
		Source:      src,
		Status:      types.StatusNotFound,
		Explanation: fmt.Sprintf(format, args...),
	}
}

// verdict classifies a scored candidate against a threshold. A DOI mismatch
// always wins: it forces StatusInvalid with score 0 regardless of text
// similarity. Patches are attached only to validated matches.
func verdict(src types.Source, res similarity.Result, threshold float64, url string, patch *types.ExtractedReference, what string) types.IndexMatch {
	switch {
	case res.DOIMismatch:
		return types.IndexMatch{
			Source:      src,
			Status:      types.StatusInvalid,
			Score:       0,
			Explanation: fmt.Sprintf("DOI mismatch: %s resolves to a different work", what),
			URL:         url,
		}
	case res.Score >= threshold:
		return types.IndexMatch{
			Source:      src,
			Status:      types.StatusValidated,
			Score:       res.Score,
			Explanation: fmt.Sprintf("matched %s with confidence %.2f", what, res.Score),
			URL:         url,
			Patch:       patch,
		}
	default:
		return types.IndexMatch{
			Source:      src,
			Status:      types.StatusNotFound,
			Score:       res.Score,
			Explanation: fmt.Sprintf("best candidate %s scored %.2f, below threshold %.2f", what, res.Score, threshold),
		}
	}
}

// setIfPresent copies a provider value into a patch field unless it is
// blank. A patch must never carry blanks.
func setIfPresent(dst *string, value string) {
	if !types.IsBlank(value) {
		*dst = value
	}
}

// maxCandidates clamps a configured candidate budget.
func maxCandidates(n int) int {
	if n <= 0 {
		return defaultMaxCandidates
	}
	return n
}
