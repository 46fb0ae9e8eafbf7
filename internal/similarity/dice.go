// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity scores how likely two bibliographic records describe
// the same work. Dice gives graded title similarity; Score combines it with
// exact identifier, author, and year signals.
package similarity

import (
	"strings"

	"github.com/pdiddy/bibmatch/internal/textnorm"
)

// Dice returns the bigram Dice coefficient of the two strings after
// normalization, in [0,1]. Both strings are normalized and internal spaces
// removed before bigram extraction, so word boundaries do not affect the
// result. Empty-after-normalization inputs score 0; identical normalized
// strings score 1; strings too short to form a bigram score 0 unless
// identical.
func Dice(a, b string) float64 {
	na := strings.ReplaceAll(textnorm.Normalize(a), " ", "")
	nb := strings.ReplaceAll(textnorm.Normalize(b), " ", "")

	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	if len(na) < 2 || len(nb) < 2 {
		return 0
	}

	ba := bigrams(na)
	bb := bigrams(nb)

	overlap := 0
	for g := range ba {
		if bb[g] {
			overlap++
		}
	}
	return 2 * float64(overlap) / float64(len(ba)+len(bb))
}

// bigrams returns the set of two-byte windows of s.
func bigrams(s string) map[string]bool {
	set := make(map[string]bool, len(s))
	for i := 0; i+2 <= len(s); i++ {
		set[s[i:i+2]] = true
	}
	return set
}
