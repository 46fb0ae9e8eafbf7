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

// crossrefAPIBase is the Crossref works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

// CrossrefMatcher queries the Crossref REST API, a DOI-centric citation
// index with a lookup-by-identifier endpoint and a bibliographic search.
type CrossrefMatcher struct {
	client        *httputil.Client
	cfg           types.SourceConfig
	maxCandidates int
}

// NewCrossref builds a Crossref adapter. The mailto in cfg is advertised in
// the User-Agent for polite-pool access.
func NewCrossref(client *httputil.Client, cfg types.SourceConfig, maxCandidates int) *CrossrefMatcher {
	return &CrossrefMatcher{client: client, cfg: cfg, maxCandidates: maxCandidates}
}

// Source returns the index identifier.
func (m *CrossrefMatcher) Source() types.Source { return types.SourceCrossref }

// Match resolves the reference's DOI directly when present, otherwise falls
// back to a bibliographic search over title and first-author surname.
func (m *CrossrefMatcher) Match(ctx context.Context, ref types.ExtractedReference) types.IndexMatch {
	if doi := textnorm.NormalizeDOI(ref.DOI); doi != "" {
		return m.matchByDOI(ctx, ref, doi)
	}
	return m.searchBibliographic(ctx, ref)
}

func (m *CrossrefMatcher) matchByDOI(ctx context.Context, ref types.ExtractedReference, doi string) types.IndexMatch {
	reqURL := crossrefAPIBase + "/" + url.PathEscape(doi)

	var body crossrefSingleResponse
	resp, err := m.client.GetJSON(ctx, reqURL, m.header(), &body)
	if err != nil {
		return errorMatch(m.Source(), "crossref lookup failed: %v", err)
	}
	switch {
	case resp.Status == http.StatusNotFound:
		return notFoundMatch(m.Source(), "DOI %s not registered with Crossref", doi)
	case resp.Status != http.StatusOK:
		return errorMatch(m.Source(), "crossref returned HTTP %d", resp.Status)
	}

	work := body.Message
	res := similarity.Score(ref, work.candidate(), similarity.DefaultWeights)
	return verdict(m.Source(), res, ValidatedThreshold, work.recordURL(), work.patch(), "DOI "+doi)
}

func (m *CrossrefMatcher) searchBibliographic(ctx context.Context, ref types.ExtractedReference) types.IndexMatch {
	query := strings.TrimSpace(ref.Title)
	if surname := ref.FirstAuthorLastName(); surname != "" {
		query += " " + surname
	}
	if types.IsBlank(query) {
		return notFoundMatch(m.Source(), "nothing to search for: reference has no title")
	}

	params := url.Values{
		"query.bibliographic": {query},
		"rows":                {strconv.Itoa(maxCandidates(m.maxCandidates))},
	}
	reqURL := crossrefAPIBase + "?" + params.Encode()

	var body crossrefSearchResponse
	resp, err := m.client.GetJSON(ctx, reqURL, m.header(), &body)
	if err != nil {
		return errorMatch(m.Source(), "crossref search failed: %v", err)
	}
	if resp.Status != http.StatusOK {
		return errorMatch(m.Source(), "crossref returned HTTP %d", resp.Status)
	}
	if len(body.Message.Items) == 0 {
		return notFoundMatch(m.Source(), "no Crossref records for %q", ref.Title)
	}

	var best types.IndexMatch
	bestScore := -1.0
	for _, work := range body.Message.Items {
		res := similarity.Score(ref, work.candidate(), similarity.DefaultWeights)
		if res.DOIMismatch {
			continue // reference has no DOI here, but stay defensive
		}
		if res.Score > bestScore {
			bestScore = res.Score
			best = verdict(m.Source(), res, ValidatedThreshold, work.recordURL(), work.patch(),
				fmt.Sprintf("%q", work.title()))
		}
	}
	if bestScore < 0 {
		return notFoundMatch(m.Source(), "no scorable Crossref records for %q", ref.Title)
	}
	return best
}

// header builds the polite User-Agent suffix. Crossref asks clients to
// advertise a contact address.
func (m *CrossrefMatcher) header() http.Header {
	if m.cfg.Mailto == "" {
		return nil
	}
	h := http.Header{}
	h.Set("User-Agent", fmt.Sprintf("bibmatch (mailto:%s)", m.cfg.Mailto))
	return h
}

// Crossref API JSON structures.
type crossrefSingleResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefSearchResponse struct {
	Message struct {
		Items []crossrefWork `json:"items"`
	} `json:"message"`
}

type crossrefWork struct {
	DOI            string            `json:"DOI"`
	Titles         []string          `json:"title"`
	ContainerTitle []string          `json:"container-title"`
	Volume         string            `json:"volume"`
	Issue          string            `json:"issue"`
	Page           string            `json:"page"`
	Publisher      string            `json:"publisher"`
	ISSN           []string          `json:"ISSN"`
	URL            string            `json:"URL"`
	Authors        []crossrefAuthor  `json:"author"`
	Issued         crossrefDateParts `json:"issued"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDateParts struct {
	DateParts [][]int `json:"date-parts"`
}

func (w crossrefWork) title() string {
	if len(w.Titles) == 0 {
		return ""
	}
	return w.Titles[0]
}

func (w crossrefWork) year() string {
	if len(w.Issued.DateParts) == 0 || len(w.Issued.DateParts[0]) == 0 {
		return ""
	}
	y := w.Issued.DateParts[0][0]
	if y <= 0 {
		return ""
	}
	return strconv.Itoa(y)
}

func (w crossrefWork) firstAuthorFamily() string {
	if len(w.Authors) == 0 {
		return ""
	}
	return w.Authors[0].Family
}

func (w crossrefWork) candidate() similarity.Candidate {
	return similarity.Candidate{
		Title:               w.title(),
		DOI:                 w.DOI,
		Year:                w.year(),
		FirstAuthorLastName: w.firstAuthorFamily(),
	}
}

func (w crossrefWork) recordURL() string {
	if w.URL != "" {
		return w.URL
	}
	if w.DOI != "" {
		return "https://doi.org/" + w.DOI
	}
	return ""
}

// patch builds the authoritative field values Crossref can supply. Fields
// the record lacks are left unset so they never overwrite anything.
func (w crossrefWork) patch() *types.ExtractedReference {
	p := &types.ExtractedReference{}
	setIfPresent(&p.Title, w.title())
	setIfPresent(&p.DOI, textnorm.NormalizeDOI(w.DOI))
	setIfPresent(&p.Year, w.year())
	if len(w.ContainerTitle) > 0 {
		setIfPresent(&p.PublicationTitle, w.ContainerTitle[0])
	}
	setIfPresent(&p.Volume, w.Volume)
	setIfPresent(&p.Issue, w.Issue)
	setIfPresent(&p.Pages, w.Page)
	setIfPresent(&p.Publisher, w.Publisher)
	if len(w.ISSN) > 0 {
		setIfPresent(&p.ISSN, w.ISSN[0])
	}
	setIfPresent(&p.URL, w.recordURL())
	for _, a := range w.Authors {
		if types.IsBlank(a.Family) {
			continue
		}
		p.Authors = append(p.Authors, types.Author{FirstName: a.Given, LastName: a.Family})
	}
	return p
}
