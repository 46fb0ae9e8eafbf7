// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile runs every enabled index adapter for a reference,
// folds the verdicts into a validation report, and merges the most
// trustworthy match's field values back into the reference.
package reconcile

import (
	"context"
	"fmt"

	"github.com/pdiddy/bibmatch/internal/index"
	"github.com/pdiddy/bibmatch/pkg/types"
)

// MatchCache stores per-source verdicts keyed by reference content, so
// repeated runs over the same bibliography do not re-query the indexes.
// Implementations compute their own fingerprint from the reference.
type MatchCache interface {
	// Get returns the cached verdict for (source, ref) and whether one exists.
	Get(source types.Source, ref types.ExtractedReference) (types.IndexMatch, bool, error)

	// Put stores a verdict for (source, ref).
	Put(source types.Source, ref types.ExtractedReference, match types.IndexMatch) error
}

// Engine reconciles references against a fixed set of index adapters.
type Engine struct {
	matchers []index.Matcher
	cfg      types.ValidationConfig
	cache    MatchCache
}

// NewEngine builds an engine with one adapter per enabled source in cfg.
func NewEngine(cfg types.ValidationConfig) *Engine {
	return &Engine{matchers: index.EnabledMatchers(cfg), cfg: cfg}
}

// NewEngineWithMatchers builds an engine over an explicit adapter list,
// bypassing the config-driven construction.
func NewEngineWithMatchers(cfg types.ValidationConfig, matchers []index.Matcher) *Engine {
	return &Engine{matchers: matchers, cfg: cfg}
}

// UseCache attaches a lookup cache. Cache failures are treated as misses;
// a broken cache degrades to live lookups, never to lost verdicts.
func (e *Engine) UseCache(c MatchCache) { e.cache = c }

// Reconcile runs every adapter for one reference and returns the possibly
// enriched reference plus its validation report.
//
// Every verdict contributes one report line: confirmed mismatches become
// errors and flip IsValid, everything else becomes a warning so the user
// sees what each index had to say. Enrichment comes from the single best
// match only, and only when it validated: fields the reference already has
// are kept unless the match scored at or above ForceOverwriteScore.
func (e *Engine) Reconcile(ctx context.Context, ref types.ExtractedReference) (types.ExtractedReference, types.ValidationResult) {
	result := types.ValidResult()
	if len(e.matchers) == 0 {
		return ref, result
	}

	matches := make([]types.IndexMatch, 0, len(e.matchers))
	for _, m := range e.matchers {
		matches = append(matches, e.lookup(ctx, m, ref))
	}

	for _, match := range matches {
		line := fmt.Sprintf("%s: %s", match.Source, match.Explanation)
		if match.Status == types.StatusInvalid {
			result.IsValid = false
			result.Errors = append(result.Errors, line)
		} else {
			result.Warnings = append(result.Warnings, line)
		}
	}

	best := BestMatch(matches)
	if best.Status == types.StatusValidated && e.cfg.EnrichFromIndexes {
		force := best.Score >= ForceOverwriteScore
		if !force {
			result.Suggestions = append(result.Suggestions, patchConflicts(ref, best.Patch, best.Source)...)
		}
		ref = ApplyPatch(ref, best.Patch, force)
	}
	return ref, result
}

// lookup serves one (adapter, reference) verdict, through the cache when
// one is attached. Error verdicts are never cached: outages are transient.
func (e *Engine) lookup(ctx context.Context, m index.Matcher, ref types.ExtractedReference) types.IndexMatch {
	if e.cache != nil {
		if match, ok, err := e.cache.Get(m.Source(), ref); err == nil && ok {
			return match
		}
	}
	match := safeMatch(ctx, m, ref)
	if e.cache != nil && match.Status != types.StatusError {
		_ = e.cache.Put(m.Source(), ref, match)
	}
	return match
}

// safeMatch invokes an adapter and converts a panic into an error verdict.
// One misbehaving provider response must not take down a batch run.
func safeMatch(ctx context.Context, m index.Matcher, ref types.ExtractedReference) (match types.IndexMatch) {
	defer func() {
		if r := recover(); r != nil {
			match = types.IndexMatch{
				Source:      m.Source(),
				Status:      types.StatusError,
				Explanation: fmt.Sprintf("adapter panic: %v", r),
			}
		}
	}()
	return m.Match(ctx, ref)
}

// BestMatch selects the most trustworthy verdict: highest status rank
// first, then highest score. Ties keep the first-seen match, so the
// adapter invocation order decides between equally confident sources.
// Configured source priorities are not consulted.
func BestMatch(matches []types.IndexMatch) types.IndexMatch {
	if len(matches) == 0 {
		return types.IndexMatch{Status: types.StatusError, Explanation: "no indexes consulted"}
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if m.Status.Rank() > best.Status.Rank() ||
			(m.Status.Rank() == best.Status.Rank() && m.Score > best.Score) {
			best = m
		}
	}
	return best
}
