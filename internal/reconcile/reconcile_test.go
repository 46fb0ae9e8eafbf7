// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/pdiddy/bibmatch/internal/index"
	"github.com/pdiddy/bibmatch/pkg/types"
)

// stubMatcher returns a canned verdict and counts invocations.
type stubMatcher struct {
	src       types.Source
	match     types.IndexMatch
	calls     int
	panicking bool
}

func (s *stubMatcher) Source() types.Source { return s.src }

func (s *stubMatcher) Match(_ context.Context, _ types.ExtractedReference) types.IndexMatch {
	s.calls++
	if s.panicking {
		panic("malformed provider payload")
	}
	m := s.match
	m.Source = s.src
	return m
}

func enrichingConfig() types.ValidationConfig {
	return types.ValidationConfig{Enabled: true, EnrichFromIndexes: true}
}

func TestReconcileEnrichesFromExactIdentifierMatch(t *testing.T) {
	stub := &stubMatcher{
		src: types.SourceCrossref,
		match: types.IndexMatch{
			Status:      types.StatusValidated,
			Score:       1,
			Explanation: "matched DOI 10.1/x with confidence 1.00",
			Patch:       &types.ExtractedReference{Title: "Correct Title", Year: "2001"},
		},
	}
	e := NewEngineWithMatchers(enrichingConfig(), []index.Matcher{stub})

	ref, result := e.Reconcile(context.Background(), types.ExtractedReference{
		Title: "Wrong Title",
		DOI:   "10.1/x",
	})

	if !result.IsValid {
		t.Fatalf("result = %+v, want valid", result)
	}
	if ref.Title != "Correct Title" {
		t.Errorf("Title = %q, want the index value to win at score 1", ref.Title)
	}
	if ref.Year != "2001" {
		t.Errorf("Year = %q, want filled from patch", ref.Year)
	}
	if len(result.Warnings) != 1 || !strings.HasPrefix(result.Warnings[0], "crossref: ") {
		t.Errorf("Warnings = %v, want one source-prefixed line", result.Warnings)
	}
}

func TestReconcileMismatchInvalidatesWithoutChanges(t *testing.T) {
	stub := &stubMatcher{
		src: types.SourceCrossref,
		match: types.IndexMatch{
			Status:      types.StatusInvalid,
			Explanation: "DOI mismatch: DOI 10.1/x resolves to a different work",
		},
	}
	e := NewEngineWithMatchers(enrichingConfig(), []index.Matcher{stub})

	in := types.ExtractedReference{Title: "Some Title", DOI: "10.1/x"}
	ref, result := e.Reconcile(context.Background(), in)

	if result.IsValid {
		t.Error("a confirmed mismatch must invalidate the reference")
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "mismatch") {
		t.Errorf("Errors = %v", result.Errors)
	}
	if !reflect.DeepEqual(ref, in) {
		t.Errorf("reference changed: %+v", ref)
	}
}

func TestReconcileBelowForceFillsBlanksOnly(t *testing.T) {
	stub := &stubMatcher{
		src: types.SourceOpenAlex,
		match: types.IndexMatch{
			Status: types.StatusValidated,
			Score:  0.9,
			Patch:  &types.ExtractedReference{Title: "Index Title", Year: "1999"},
		},
	}
	e := NewEngineWithMatchers(enrichingConfig(), []index.Matcher{stub})

	ref, result := e.Reconcile(context.Background(), types.ExtractedReference{Title: "My Title"})

	if ref.Title != "My Title" {
		t.Errorf("Title = %q, a 0.9 match must not overwrite existing values", ref.Title)
	}
	if ref.Year != "1999" {
		t.Errorf("Year = %q, want blank filled", ref.Year)
	}
	if len(result.Suggestions) != 1 || !strings.Contains(result.Suggestions[0], "Index Title") {
		t.Errorf("Suggestions = %v, want the title conflict surfaced", result.Suggestions)
	}
}

func TestReconcileEnrichmentDisabledLeavesReference(t *testing.T) {
	stub := &stubMatcher{
		src: types.SourceCrossref,
		match: types.IndexMatch{
			Status: types.StatusValidated,
			Score:  1,
			Patch:  &types.ExtractedReference{Year: "2001"},
		},
	}
	cfg := types.ValidationConfig{Enabled: true}
	e := NewEngineWithMatchers(cfg, []index.Matcher{stub})

	ref, result := e.Reconcile(context.Background(), types.ExtractedReference{Title: "Some Title"})
	if ref.Year != "" {
		t.Errorf("Year = %q, enrichment is off", ref.Year)
	}
	if !result.IsValid {
		t.Errorf("result = %+v", result)
	}
}

func TestReconcilePanicIsolation(t *testing.T) {
	broken := &stubMatcher{src: types.SourceLobid, panicking: true}
	good := &stubMatcher{
		src: types.SourceCrossref,
		match: types.IndexMatch{
			Status: types.StatusValidated,
			Score:  1,
			Patch:  &types.ExtractedReference{Year: "2010"},
		},
	}
	e := NewEngineWithMatchers(enrichingConfig(), []index.Matcher{broken, good})

	ref, result := e.Reconcile(context.Background(), types.ExtractedReference{Title: "Some Title"})

	if ref.Year != "2010" {
		t.Errorf("Year = %q, the healthy adapter should still enrich", ref.Year)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "adapter panic") {
			found = true
		}
	}
	if !found {
		t.Errorf("Warnings = %v, want the panic reported", result.Warnings)
	}
}

func TestReconcileNoMatchersIsValidPassthrough(t *testing.T) {
	e := NewEngineWithMatchers(enrichingConfig(), nil)
	in := types.ExtractedReference{Title: "Some Title"}
	ref, result := e.Reconcile(context.Background(), in)
	if !reflect.DeepEqual(ref, in) || !result.IsValid {
		t.Errorf("ref = %+v, result = %+v", ref, result)
	}
}

func TestBestMatchRankOrdering(t *testing.T) {
	matches := []types.IndexMatch{
		{Source: types.SourceCrossref, Status: types.StatusError},
		{Source: types.SourceOpenAlex, Status: types.StatusNotFound, Score: 0.99},
		{Source: types.SourceLobid, Status: types.StatusInvalid},
		{Source: types.SourceWikidata, Status: types.StatusValidated, Score: 0.81},
	}
	if best := BestMatch(matches); best.Source != types.SourceWikidata {
		t.Errorf("best = %+v, validated must outrank everything", best)
	}
	if best := BestMatch(matches[:3]); best.Source != types.SourceLobid {
		t.Errorf("best = %+v, invalid must outrank a high-scoring not_found", best)
	}
	if best := BestMatch(matches[:2]); best.Source != types.SourceOpenAlex {
		t.Errorf("best = %+v, not_found must outrank error", best)
	}
}

func TestBestMatchIgnoresPriority(t *testing.T) {
	// Source priorities exist in the config but do not influence selection:
	// only status rank, score, and first-seen order do.
	matches := []types.IndexMatch{
		{Source: types.SourceK10plus, Status: types.StatusValidated, Score: 0.92},
		{Source: types.SourceCrossref, Status: types.StatusValidated, Score: 0.85},
	}
	if best := BestMatch(matches); best.Source != types.SourceK10plus {
		t.Errorf("best = %+v, want the higher score regardless of source", best)
	}

	tied := []types.IndexMatch{
		{Source: types.SourceOpenAlex, Status: types.StatusValidated, Score: 0.9},
		{Source: types.SourceCrossref, Status: types.StatusValidated, Score: 0.9},
	}
	if best := BestMatch(tied); best.Source != types.SourceOpenAlex {
		t.Errorf("best = %+v, ties keep the first-seen match", best)
	}
}

func TestValidateAndEnrichDisabledPassesThrough(t *testing.T) {
	stub := &stubMatcher{src: types.SourceCrossref, match: types.IndexMatch{Status: types.StatusInvalid}}
	e := NewEngineWithMatchers(types.ValidationConfig{Enabled: false}, []index.Matcher{stub})

	refs := []types.ExtractedReference{{Title: "A"}, {Title: "B"}}
	out, results, err := e.ValidateAndEnrich(context.Background(), refs, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stub.calls != 0 {
		t.Errorf("adapter called %d times with validation disabled", stub.calls)
	}
	if !reflect.DeepEqual(out, refs) {
		t.Errorf("out = %+v", out)
	}
	for i, r := range results {
		if !r.IsValid {
			t.Errorf("results[%d] = %+v, want valid", i, r)
		}
	}
}

func TestValidateAndEnrichReportsProgressAndStopsOnCancel(t *testing.T) {
	stub := &stubMatcher{src: types.SourceCrossref, match: types.IndexMatch{Status: types.StatusNotFound}}
	e := NewEngineWithMatchers(enrichingConfig(), []index.Matcher{stub})

	var seen []string
	progress := func(i, total int, title string) {
		if total != 2 {
			t.Errorf("total = %d", total)
		}
		seen = append(seen, title)
	}
	refs := []types.ExtractedReference{{Title: "A"}, {Title: "B"}}
	if _, _, err := e.ValidateAndEnrich(context.Background(), refs, progress); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0] != "A" || seen[1] != "B" {
		t.Errorf("progress titles = %v", seen)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := e.ValidateAndEnrich(ctx, refs, nil); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// mapCache is an in-memory MatchCache for engine tests.
type mapCache struct {
	entries map[string]types.IndexMatch
	puts    int
}

func newMapCache() *mapCache { return &mapCache{entries: map[string]types.IndexMatch{}} }

func (c *mapCache) key(src types.Source, ref types.ExtractedReference) string {
	return string(src) + "|" + ref.Title + "|" + ref.DOI
}

func (c *mapCache) Get(src types.Source, ref types.ExtractedReference) (types.IndexMatch, bool, error) {
	m, ok := c.entries[c.key(src, ref)]
	return m, ok, nil
}

func (c *mapCache) Put(src types.Source, ref types.ExtractedReference, m types.IndexMatch) error {
	c.puts++
	c.entries[c.key(src, ref)] = m
	return nil
}

func TestReconcileUsesCache(t *testing.T) {
	stub := &stubMatcher{
		src:   types.SourceCrossref,
		match: types.IndexMatch{Status: types.StatusValidated, Score: 0.9},
	}
	e := NewEngineWithMatchers(enrichingConfig(), []index.Matcher{stub})
	cache := newMapCache()
	e.UseCache(cache)

	ref := types.ExtractedReference{Title: "Some Title"}
	e.Reconcile(context.Background(), ref)
	e.Reconcile(context.Background(), ref)

	if stub.calls != 1 {
		t.Errorf("adapter called %d times, want 1 (second run served from cache)", stub.calls)
	}
	if cache.puts != 1 {
		t.Errorf("cache puts = %d, want 1", cache.puts)
	}
}

func TestReconcileDoesNotCacheErrors(t *testing.T) {
	stub := &stubMatcher{
		src:   types.SourceCrossref,
		match: types.IndexMatch{Status: types.StatusError, Explanation: "provider down"},
	}
	e := NewEngineWithMatchers(enrichingConfig(), []index.Matcher{stub})
	cache := newMapCache()
	e.UseCache(cache)

	ref := types.ExtractedReference{Title: "Some Title"}
	e.Reconcile(context.Background(), ref)
	e.Reconcile(context.Background(), ref)

	if stub.calls != 2 {
		t.Errorf("adapter called %d times, want 2 (errors are never cached)", stub.calls)
	}
	if cache.puts != 0 {
		t.Errorf("cache puts = %d, want 0", cache.puts)
	}
}
