// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pdiddy/bibmatch/internal/httputil"
	"github.com/pdiddy/bibmatch/internal/similarity"
	"github.com/pdiddy/bibmatch/pkg/types"
)

func init() {
	// Keep retry backoff out of test runtime.
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

func testHTTPClient(ts *httptest.Server) *httputil.Client {
	cfg := types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test/0.1"}
	return httputil.NewClient(cfg, 1000, httputil.WithHTTPClient(ts.Client()))
}

func TestVerdictDOIMismatchOverridesSimilarity(t *testing.T) {
	res := similarity.Result{Score: 0, DOIMismatch: true}
	m := verdict(types.SourceCrossref, res, ValidatedThreshold, "", &types.ExtractedReference{Title: "T"}, "DOI 10.1/abc")
	if m.Status != types.StatusInvalid {
		t.Errorf("Status = %s, want invalid", m.Status)
	}
	if m.Score != 0 {
		t.Errorf("Score = %f, want 0", m.Score)
	}
	if m.Patch != nil {
		t.Error("invalid matches must not carry a patch")
	}
}

func TestVerdictThreshold(t *testing.T) {
	patch := &types.ExtractedReference{Title: "T"}

	m := verdict(types.SourceOpenAlex, similarity.Result{Score: 0.81}, ValidatedThreshold, "u", patch, "x")
	if m.Status != types.StatusValidated || m.Patch == nil {
		t.Errorf("0.81 should validate with patch, got %s", m.Status)
	}

	m = verdict(types.SourceOpenAlex, similarity.Result{Score: 0.79}, ValidatedThreshold, "u", patch, "x")
	if m.Status != types.StatusNotFound {
		t.Errorf("0.79 should be not_found, got %s", m.Status)
	}
	if m.Patch != nil {
		t.Error("below-threshold matches must not carry a patch")
	}

	// The label threshold is stricter.
	m = verdict(types.SourceWikidata, similarity.Result{Score: 0.82}, LabelThreshold, "u", patch, "x")
	if m.Status != types.StatusNotFound {
		t.Errorf("0.82 should fail the 0.85 label threshold, got %s", m.Status)
	}
}

func TestEnabledMatchersOrderAndFiltering(t *testing.T) {
	cfg := types.DefaultValidationConfig()
	cfg.Crossref.Enabled = true
	cfg.OpenAlex.Enabled = false
	cfg.Lobid.Enabled = true
	cfg.Europeana.Enabled = false
	cfg.K10plus.Enabled = false
	cfg.Wikidata.Enabled = true

	matchers := EnabledMatchers(cfg)
	want := []types.Source{types.SourceCrossref, types.SourceLobid, types.SourceWikidata}
	if len(matchers) != len(want) {
		t.Fatalf("len(matchers) = %d, want %d", len(matchers), len(want))
	}
	for i, m := range matchers {
		if m.Source() != want[i] {
			t.Errorf("matchers[%d] = %s, want %s", i, m.Source(), want[i])
		}
	}
}
