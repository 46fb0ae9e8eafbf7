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

// openAlexAPIBase is the OpenAlex works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works"

// OpenAlexMatcher queries the OpenAlex scholarly graph: a direct DOI
// lookup plus a free-text search fallback.
type OpenAlexMatcher struct {
	client        *httputil.Client
	cfg           types.SourceConfig
	maxCandidates int
}

// NewOpenAlex builds an OpenAlex adapter. The mailto in cfg is passed as a
// query parameter for polite pool access.
func NewOpenAlex(client *httputil.Client, cfg types.SourceConfig, maxCandidates int) *OpenAlexMatcher {
	return &OpenAlexMatcher{client: client, cfg: cfg, maxCandidates: maxCandidates}
}

// Source returns the index identifier.
func (m *OpenAlexMatcher) Source() types.Source { return types.SourceOpenAlex }

// Match resolves the reference's DOI directly when present, otherwise runs
// a relevance search over the title.
func (m *OpenAlexMatcher) Match(ctx context.Context, ref types.ExtractedReference) types.IndexMatch {
	if doi := textnorm.NormalizeDOI(ref.DOI); doi != "" {
		return m.matchByDOI(ctx, ref, doi)
	}
	return m.search(ctx, ref)
}

func (m *OpenAlexMatcher) matchByDOI(ctx context.Context, ref types.ExtractedReference, doi string) types.IndexMatch {
	reqURL := openAlexAPIBase + "/doi:" + url.PathEscape(doi) + m.mailtoSuffix("?")

	var work openAlexWork
	resp, err := m.client.GetJSON(ctx, reqURL, nil, &work)
	if err != nil {
		return errorMatch(m.Source(), "openalex lookup failed: %v", err)
	}
	switch {
	case resp.Status == http.StatusNotFound:
		return notFoundMatch(m.Source(), "DOI %s not indexed by OpenAlex", doi)
	case resp.Status != http.StatusOK:
		return errorMatch(m.Source(), "openalex returned HTTP %d", resp.Status)
	}

	res := similarity.Score(ref, work.candidate(), similarity.DefaultWeights)
	return verdict(m.Source(), res, ValidatedThreshold, work.recordURL(), work.patch(), "DOI "+doi)
}

func (m *OpenAlexMatcher) search(ctx context.Context, ref types.ExtractedReference) types.IndexMatch {
	if types.IsBlank(ref.Title) {
		return notFoundMatch(m.Source(), "nothing to search for: reference has no title")
	}

	params := url.Values{
		"search":   {strings.TrimSpace(ref.Title)},
		"per-page": {strconv.Itoa(maxCandidates(m.maxCandidates))},
	}
	if m.cfg.Mailto != "" {
		params.Set("mailto", m.cfg.Mailto)
	}
	reqURL := openAlexAPIBase + "?" + params.Encode()

	var body openAlexSearchResponse
	resp, err := m.client.GetJSON(ctx, reqURL, nil, &body)
	if err != nil {
		return errorMatch(m.Source(), "openalex search failed: %v", err)
	}
	if resp.Status != http.StatusOK {
		return errorMatch(m.Source(), "openalex returned HTTP %d", resp.Status)
	}
	if len(body.Results) == 0 {
		return notFoundMatch(m.Source(), "no OpenAlex records for %q", ref.Title)
	}

	var best types.IndexMatch
	bestScore := -1.0
	for _, work := range body.Results {
		res := similarity.Score(ref, work.candidate(), similarity.DefaultWeights)
		if res.DOIMismatch {
			continue
		}
		if res.Score > bestScore {
			bestScore = res.Score
			best = verdict(m.Source(), res, ValidatedThreshold, work.recordURL(), work.patch(),
				fmt.Sprintf("%q", work.DisplayName))
		}
	}
	if bestScore < 0 {
		return notFoundMatch(m.Source(), "no scorable OpenAlex records for %q", ref.Title)
	}
	return best
}

func (m *OpenAlexMatcher) mailtoSuffix(sep string) string {
	if m.cfg.Mailto == "" {
		return ""
	}
	return sep + "mailto=" + url.QueryEscape(m.cfg.Mailto)
}

// OpenAlex API JSON structures. Every nested path is optional: absent
// substructures decode to zero values and are skipped when building the
// candidate and patch.
type openAlexSearchResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID              string               `json:"id"`
	DisplayName     string               `json:"display_name"`
	DOI             string               `json:"doi"`
	PublicationYear int                  `json:"publication_year"`
	Authorships     []openAlexAuthorship `json:"authorships"`
	PrimaryLocation *openAlexLocation    `json:"primary_location"`
	Biblio          openAlexBiblio       `json:"biblio"`
}

type openAlexAuthorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type openAlexLocation struct {
	Source *struct {
		DisplayName string `json:"display_name"`
	} `json:"source"`
}

type openAlexBiblio struct {
	Volume    string `json:"volume"`
	Issue     string `json:"issue"`
	FirstPage string `json:"first_page"`
	LastPage  string `json:"last_page"`
}

func (w openAlexWork) year() string {
	if w.PublicationYear <= 0 {
		return ""
	}
	return strconv.Itoa(w.PublicationYear)
}

// firstAuthorSurname takes the last token of the first authorship's display
// name; OpenAlex does not expose structured family names.
func (w openAlexWork) firstAuthorSurname() string {
	if len(w.Authorships) == 0 {
		return ""
	}
	fields := strings.Fields(w.Authorships[0].Author.DisplayName)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func (w openAlexWork) candidate() similarity.Candidate {
	return similarity.Candidate{
		Title:               w.DisplayName,
		DOI:                 w.DOI,
		Year:                w.year(),
		FirstAuthorLastName: w.firstAuthorSurname(),
	}
}

func (w openAlexWork) recordURL() string {
	if w.DOI != "" {
		return w.DOI // OpenAlex returns the full https://doi.org/ form
	}
	return w.ID
}

func (w openAlexWork) pages() string {
	switch {
	case w.Biblio.FirstPage == "":
		return ""
	case w.Biblio.LastPage == "" || w.Biblio.LastPage == w.Biblio.FirstPage:
		return w.Biblio.FirstPage
	default:
		return w.Biblio.FirstPage + "-" + w.Biblio.LastPage
	}
}

func (w openAlexWork) patch() *types.ExtractedReference {
	p := &types.ExtractedReference{}
	setIfPresent(&p.Title, w.DisplayName)
	setIfPresent(&p.DOI, textnorm.NormalizeDOI(w.DOI))
	setIfPresent(&p.Year, w.year())
	if w.PrimaryLocation != nil && w.PrimaryLocation.Source != nil {
		setIfPresent(&p.PublicationTitle, w.PrimaryLocation.Source.DisplayName)
	}
	setIfPresent(&p.Volume, w.Biblio.Volume)
	setIfPresent(&p.Issue, w.Biblio.Issue)
	setIfPresent(&p.Pages, w.pages())
	setIfPresent(&p.URL, w.recordURL())
	for _, a := range w.Authorships {
		name := strings.TrimSpace(a.Author.DisplayName)
		if name == "" {
			continue
		}
		if idx := strings.LastIndex(name, " "); idx > 0 {
			p.Authors = append(p.Authors, types.Author{FirstName: name[:idx], LastName: name[idx+1:]})
		} else {
			p.Authors = append(p.Authors, types.Author{LastName: name})
		}
	}
	return p
}
