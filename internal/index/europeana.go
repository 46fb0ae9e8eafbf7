// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/bibmatch/internal/httputil"
	"github.com/pdiddy/bibmatch/internal/similarity"
	"github.com/pdiddy/bibmatch/pkg/types"
)

// europeanaAPIBase is the Europeana record search endpoint. Declared as a
// var so tests can substitute an httptest server.
var europeanaAPIBase = "https://api.europeana.eu/record/v2/search.json"

// EuropeanaMatcher queries the Europeana digitized-collections search API.
// Results are restricted to TEXT objects; metadata is sparse, so scoring
// uses the title+author weighting.
type EuropeanaMatcher struct {
	client        *httputil.Client
	cfg           types.SourceConfig
	maxCandidates int
}

// NewEuropeana builds a Europeana adapter. The API key in cfg is required;
// without one every lookup fails fast instead of issuing doomed requests.
func NewEuropeana(client *httputil.Client, cfg types.SourceConfig, maxCandidates int) *EuropeanaMatcher {
	return &EuropeanaMatcher{client: client, cfg: cfg, maxCandidates: maxCandidates}
}

// Source returns the index identifier.
func (m *EuropeanaMatcher) Source() types.Source { return types.SourceEuropeana }

// Match searches Europeana's digitized collections for the title.
func (m *EuropeanaMatcher) Match(ctx context.Context, ref types.ExtractedReference) types.IndexMatch {
	if m.cfg.APIKey == "" {
		return errorMatch(m.Source(), "europeana enabled but no API key configured")
	}
	if types.IsBlank(ref.Title) {
		return notFoundMatch(m.Source(), "nothing to search for: reference has no title")
	}

	params := url.Values{
		"wskey": {m.cfg.APIKey},
		"query": {strings.TrimSpace(ref.Title)},
		"qf":    {"TYPE:TEXT"},
		"rows":  {strconv.Itoa(maxCandidates(m.maxCandidates))},
	}
	reqURL := europeanaAPIBase + "?" + params.Encode()

	var body europeanaResponse
	resp, err := m.client.GetJSON(ctx, reqURL, nil, &body)
	if err != nil {
		return errorMatch(m.Source(), "europeana search failed: %v", err)
	}
	if resp.Status != http.StatusOK {
		return errorMatch(m.Source(), "europeana returned HTTP %d", resp.Status)
	}
	if !body.Success || len(body.Items) == 0 {
		return notFoundMatch(m.Source(), "no Europeana records for %q", ref.Title)
	}

	var best types.IndexMatch
	bestScore := -1.0
	for _, item := range body.Items {
		res := similarity.Score(ref, item.candidate(), similarity.TitleAuthor)
		if res.Score > bestScore {
			bestScore = res.Score
			best = verdict(m.Source(), res, ValidatedThreshold, item.GUID, item.patch(),
				fmt.Sprintf("%q", item.title()))
		}
	}
	return best
}

// Europeana API JSON structures.
type europeanaResponse struct {
	Success bool            `json:"success"`
	Items   []europeanaItem `json:"items"`
}

type europeanaItem struct {
	Title     []string `json:"title"`
	DCCreator []string `json:"dcCreator"`
	Year      []string `json:"year"`
	GUID      string   `json:"guid"`
}

func (it europeanaItem) title() string {
	if len(it.Title) == 0 {
		return ""
	}
	return it.Title[0]
}

func (it europeanaItem) year() string {
	if len(it.Year) == 0 {
		return ""
	}
	return it.Year[0]
}

// creatorSurname extracts a surname from "Last, First" or "First Last".
func (it europeanaItem) creatorSurname() string {
	if len(it.DCCreator) == 0 {
		return ""
	}
	creator := it.DCCreator[0]
	if idx := strings.Index(creator, ","); idx >= 0 {
		return strings.TrimSpace(creator[:idx])
	}
	fields := strings.Fields(creator)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func (it europeanaItem) candidate() similarity.Candidate {
	return similarity.Candidate{
		Title:               it.title(),
		Year:                it.year(),
		FirstAuthorLastName: it.creatorSurname(),
	}
}

func (it europeanaItem) patch() *types.ExtractedReference {
	p := &types.ExtractedReference{}
	setIfPresent(&p.Title, it.title())
	setIfPresent(&p.Year, it.year())
	setIfPresent(&p.URL, it.GUID)
	return p
}
