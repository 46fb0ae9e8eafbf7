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

// lobidAPIBase is the lobid resources search endpoint. Declared as a var so
// tests can substitute an httptest server.
var lobidAPIBase = "https://lobid.org/resources/search"

// lobidWeights favors the title heavily: library-catalog author and date
// metadata is too inconsistent to carry much signal.
var lobidWeights = similarity.Weights{Title: 0.9, Author: 0.1}

// LobidMatcher queries the lobid library-linked-data search API with a
// free-text query over title tokens plus an optional contributor clause.
type LobidMatcher struct {
	client        *httputil.Client
	cfg           types.SourceConfig
	maxCandidates int
}

// NewLobid builds a lobid adapter.
func NewLobid(client *httputil.Client, cfg types.SourceConfig, maxCandidates int) *LobidMatcher {
	return &LobidMatcher{client: client, cfg: cfg, maxCandidates: maxCandidates}
}

// Source returns the index identifier.
func (m *LobidMatcher) Source() types.Source { return types.SourceLobid }

// Match searches the catalog; lobid has no identifier-resolution endpoint
// the engine can use, so every lookup goes through search.
func (m *LobidMatcher) Match(ctx context.Context, ref types.ExtractedReference) types.IndexMatch {
	if types.IsBlank(ref.Title) {
		return notFoundMatch(m.Source(), "nothing to search for: reference has no title")
	}
	tokens := textnorm.SignificantTokens(ref.Title)
	if len(tokens) == 0 {
		return notFoundMatch(m.Source(), "nothing to search for: title has no significant tokens")
	}

	q := strings.Join(tokens, " ")
	if surname := ref.FirstAuthorLastName(); surname != "" {
		q += fmt.Sprintf(` AND contribution.agent.label:%s`, surname)
	}

	params := url.Values{
		"q":      {q},
		"format": {"json"},
		"size":   {strconv.Itoa(maxCandidates(m.maxCandidates))},
	}
	reqURL := lobidAPIBase + "?" + params.Encode()

	var body lobidResponse
	resp, err := m.client.GetJSON(ctx, reqURL, nil, &body)
	if err != nil {
		return errorMatch(m.Source(), "lobid search failed: %v", err)
	}
	if resp.Status != http.StatusOK {
		return errorMatch(m.Source(), "lobid returned HTTP %d", resp.Status)
	}
	if len(body.Member) == 0 {
		return notFoundMatch(m.Source(), "no lobid records for %q", ref.Title)
	}

	var best types.IndexMatch
	bestScore := -1.0
	for _, rec := range body.Member {
		res := similarity.Score(ref, rec.candidate(), lobidWeights)
		if res.Score > bestScore {
			bestScore = res.Score
			best = verdict(m.Source(), res, ValidatedThreshold, rec.ID, rec.patch(),
				fmt.Sprintf("%q", rec.Title))
		}
	}
	return best
}

// lobid API JSON structures.
type lobidResponse struct {
	TotalItems int             `json:"totalItems"`
	Member     []lobidResource `json:"member"`
}

type lobidResource struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	OtherTitle   string              `json:"otherTitleInformation"`
	ISBN         []string            `json:"isbn"`
	Publication  []lobidPublication  `json:"publication"`
	Contribution []lobidContribution `json:"contribution"`
}

type lobidPublication struct {
	StartDate   string   `json:"startDate"`
	PublishedBy []string `json:"publishedBy"`
	Location    []string `json:"location"`
}

type lobidContribution struct {
	Agent struct {
		Label string `json:"label"`
	} `json:"agent"`
}

func (r lobidResource) year() string {
	if len(r.Publication) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Publication[0].StartDate)
}

// firstContributorSurname extracts the surname from a "Last, First" label.
func (r lobidResource) firstContributorSurname() string {
	if len(r.Contribution) == 0 {
		return ""
	}
	label := r.Contribution[0].Agent.Label
	if idx := strings.Index(label, ","); idx >= 0 {
		return strings.TrimSpace(label[:idx])
	}
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func (r lobidResource) candidate() similarity.Candidate {
	return similarity.Candidate{
		Title:               r.Title,
		Year:                r.year(),
		FirstAuthorLastName: r.firstContributorSurname(),
	}
}

func (r lobidResource) patch() *types.ExtractedReference {
	p := &types.ExtractedReference{}
	setIfPresent(&p.Title, r.Title)
	setIfPresent(&p.Year, r.year())
	if len(r.ISBN) > 0 {
		setIfPresent(&p.ISBN, r.ISBN[0])
	}
	if len(r.Publication) > 0 {
		if len(r.Publication[0].PublishedBy) > 0 {
			setIfPresent(&p.Publisher, r.Publication[0].PublishedBy[0])
		}
		if len(r.Publication[0].Location) > 0 {
			setIfPresent(&p.Place, r.Publication[0].Location[0])
		}
	}
	setIfPresent(&p.URL, r.ID)
	return p
}
