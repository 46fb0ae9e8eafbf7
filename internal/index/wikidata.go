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
	"github.com/pdiddy/bibmatch/internal/textnorm"
	"github.com/pdiddy/bibmatch/pkg/types"
)

// Wikidata endpoints. Declared as vars so tests can substitute httptest
// servers.
var (
	wikidataSPARQLBase = "https://query.wikidata.org/sparql"
	wikidataSearchBase = "https://www.wikidata.org/w/api.php"
)

// WikidataMatcher queries the Wikidata knowledge base two ways: an exact
// DOI-claim SPARQL query (property P356), and an entity-label search
// fallback scored against the stricter label threshold.
type WikidataMatcher struct {
	client        *httputil.Client
	cfg           types.SourceConfig
	maxCandidates int
}

// NewWikidata builds a Wikidata adapter.
func NewWikidata(client *httputil.Client, cfg types.SourceConfig, maxCandidates int) *WikidataMatcher {
	return &WikidataMatcher{client: client, cfg: cfg, maxCandidates: maxCandidates}
}

// Source returns the index identifier.
func (m *WikidataMatcher) Source() types.Source { return types.SourceWikidata }

// Match tries the exact-DOI claim first; when the reference has no DOI or
// Wikidata has no item with that claim, falls back to label search.
func (m *WikidataMatcher) Match(ctx context.Context, ref types.ExtractedReference) types.IndexMatch {
	if doi := textnorm.NormalizeDOI(ref.DOI); doi != "" {
		match, found := m.matchByDOI(ctx, doi)
		if found {
			return match
		}
		if match.Status == types.StatusError {
			return match
		}
		// DOI not claimed by any item: fall through to label search. This
		// is absence of evidence, not a mismatch.
	}
	return m.searchLabel(ctx, ref)
}

// matchByDOI runs the SPARQL claim query. Wikidata stores DOI values
// uppercase. The second return value reports whether an item was found.
func (m *WikidataMatcher) matchByDOI(ctx context.Context, doi string) (types.IndexMatch, bool) {
	query := fmt.Sprintf(
		`SELECT ?item ?itemLabel WHERE { ?item wdt:P356 %q . SERVICE wikibase:label { bd:serviceParam wikibase:language "en". } } LIMIT 1`,
		strings.ToUpper(doi))

	params := url.Values{
		"query":  {query},
		"format": {"json"},
	}
	reqURL := wikidataSPARQLBase + "?" + params.Encode()

	var body sparqlResponse
	resp, err := m.client.GetJSON(ctx, reqURL, nil, &body)
	if err != nil {
		return errorMatch(m.Source(), "wikidata SPARQL query failed: %v", err), true
	}
	if resp.Status != http.StatusOK {
		return errorMatch(m.Source(), "wikidata SPARQL endpoint returned HTTP %d", resp.Status), true
	}
	if len(body.Results.Bindings) == 0 {
		return notFoundMatch(m.Source(), "no Wikidata item claims DOI %s", doi), false
	}

	binding := body.Results.Bindings[0]
	itemURI := binding["item"].Value
	patch := &types.ExtractedReference{}
	setIfPresent(&patch.URL, itemURI)
	return types.IndexMatch{
		Source:      m.Source(),
		Status:      types.StatusValidated,
		Score:       1,
		Explanation: fmt.Sprintf("Wikidata item %s claims DOI %s", itemURI, doi),
		URL:         itemURI,
		Patch:       patch,
	}, true
}

// searchLabel runs the wbsearchentities fallback and scores candidate
// labels by title similarity alone.
func (m *WikidataMatcher) searchLabel(ctx context.Context, ref types.ExtractedReference) types.IndexMatch {
	if types.IsBlank(ref.Title) {
		return notFoundMatch(m.Source(), "nothing to search for: reference has no title")
	}

	params := url.Values{
		"action":   {"wbsearchentities"},
		"search":   {strings.TrimSpace(ref.Title)},
		"language": {"en"},
		"type":     {"item"},
		"format":   {"json"},
		"limit":    {strconv.Itoa(maxCandidates(m.maxCandidates))},
	}
	reqURL := wikidataSearchBase + "?" + params.Encode()

	var body wikidataSearchResponse
	resp, err := m.client.GetJSON(ctx, reqURL, nil, &body)
	if err != nil {
		return errorMatch(m.Source(), "wikidata entity search failed: %v", err)
	}
	if resp.Status != http.StatusOK {
		return errorMatch(m.Source(), "wikidata returned HTTP %d", resp.Status)
	}
	if len(body.Search) == 0 {
		return notFoundMatch(m.Source(), "no Wikidata entities labelled like %q", ref.Title)
	}

	var best types.IndexMatch
	bestScore := -1.0
	for _, ent := range body.Search {
		score := similarity.Dice(ref.Title, ent.Label)
		if score > bestScore {
			bestScore = score
			patch := &types.ExtractedReference{}
			setIfPresent(&patch.URL, ent.ConceptURI)
			best = verdict(m.Source(), similarity.Result{Score: score}, LabelThreshold,
				ent.ConceptURI, patch, fmt.Sprintf("entity %q", ent.Label))
		}
	}
	return best
}

// Wikidata API JSON structures.
type sparqlResponse struct {
	Results struct {
		Bindings []map[string]sparqlValue `json:"bindings"`
	} `json:"results"`
}

type sparqlValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type wikidataSearchResponse struct {
	Search []wikidataEntity `json:"search"`
}

type wikidataEntity struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	ConceptURI  string `json:"concepturi"`
}
