// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/bibmatch/internal/httputil"
	"github.com/pdiddy/bibmatch/internal/similarity"
	"github.com/pdiddy/bibmatch/internal/textnorm"
	"github.com/pdiddy/bibmatch/pkg/types"
)

// SRUMatcher queries a union-catalog SRU endpoint (e.g. K10plus). The CQL
// query is a boolean AND of significant title tokens plus the optional
// first-author surname; responses are Dublin-Core XML.
//
// Catalog author and date metadata is unreliable enough that scoring is
// title-only.
type SRUMatcher struct {
	client        *httputil.Client
	cfg           types.SourceConfig
	maxCandidates int
}

// NewSRU builds a union-catalog adapter. cfg.Endpoint must point at the
// SRU base URL; without one every lookup fails fast.
func NewSRU(client *httputil.Client, cfg types.SourceConfig, maxCandidates int) *SRUMatcher {
	return &SRUMatcher{client: client, cfg: cfg, maxCandidates: maxCandidates}
}

// Source returns the index identifier.
func (m *SRUMatcher) Source() types.Source { return types.SourceK10plus }

// Match searches the catalog via SRU searchRetrieve.
func (m *SRUMatcher) Match(ctx context.Context, ref types.ExtractedReference) types.IndexMatch {
	if m.cfg.Endpoint == "" {
		return errorMatch(m.Source(), "union catalog enabled but no SRU endpoint configured")
	}

	if types.IsBlank(ref.Title) {
		return notFoundMatch(m.Source(), "nothing to search for: reference has no title")
	}
	tokens := textnorm.SignificantTokens(ref.Title)
	if len(tokens) == 0 {
		return notFoundMatch(m.Source(), "nothing to search for: title has no significant tokens")
	}

	clauses := make([]string, 0, len(tokens)+1)
	for _, tok := range tokens {
		clauses = append(clauses, "pica.all="+tok)
	}
	if surname := ref.FirstAuthorLastName(); surname != "" {
		clauses = append(clauses, "pica.all="+textnorm.Normalize(surname))
	}

	params := url.Values{
		"version":        {"1.1"},
		"operation":      {"searchRetrieve"},
		"query":          {strings.Join(clauses, " and ")},
		"maximumRecords": {strconv.Itoa(maxCandidates(m.maxCandidates))},
		"recordSchema":   {"dc"},
	}
	reqURL := strings.TrimRight(m.cfg.Endpoint, "?&") + "?" + params.Encode()

	resp, err := m.client.Get(ctx, reqURL, nil)
	if err != nil {
		return errorMatch(m.Source(), "SRU request failed: %v", err)
	}
	if resp.Status != http.StatusOK {
		return errorMatch(m.Source(), "SRU endpoint returned HTTP %d", resp.Status)
	}

	var body sruResponse
	if err := xml.Unmarshal(resp.Body, &body); err != nil {
		return errorMatch(m.Source(), "parsing SRU response: %v", err)
	}
	if len(body.Records) == 0 {
		return notFoundMatch(m.Source(), "no union catalog records for %q", ref.Title)
	}

	var best types.IndexMatch
	bestScore := -1.0
	for _, rec := range body.Records {
		dc := rec.Data.DC
		res := similarity.Score(ref, dc.candidate(), similarity.TitleOnly)
		if res.Score > bestScore {
			bestScore = res.Score
			best = verdict(m.Source(), res, ValidatedThreshold, dc.recordURL(), dc.patch(),
				fmt.Sprintf("%q", dc.title()))
		}
	}
	return best
}

// SRU searchRetrieve XML structures. Record payloads are Dublin Core;
// fields are matched by the dc elements namespace so prefix choices made by
// the server do not matter.
type sruResponse struct {
	XMLName         xml.Name    `xml:"searchRetrieveResponse"`
	NumberOfRecords int         `xml:"numberOfRecords"`
	Records         []sruRecord `xml:"records>record"`
}

type sruRecord struct {
	Data struct {
		DC sruDublinCore `xml:"dc"`
	} `xml:"recordData"`
}

type sruDublinCore struct {
	Titles      []string `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creators    []string `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Dates       []string `xml:"http://purl.org/dc/elements/1.1/ date"`
	Publishers  []string `xml:"http://purl.org/dc/elements/1.1/ publisher"`
	Identifiers []string `xml:"http://purl.org/dc/elements/1.1/ identifier"`
}

var sruYearPattern = regexp.MustCompile(`\b(1[5-9]\d{2}|20\d{2})\b`)

func (dc sruDublinCore) title() string {
	if len(dc.Titles) == 0 {
		return ""
	}
	return strings.TrimSpace(dc.Titles[0])
}

func (dc sruDublinCore) year() string {
	if len(dc.Dates) == 0 {
		return ""
	}
	return sruYearPattern.FindString(dc.Dates[0])
}

// isbn scans the dc:identifier values for an ISBN, in either the prefixed
// ("ISBN 978-...") or URN form.
func (dc sruDublinCore) isbn() string {
	for _, id := range dc.Identifiers {
		id = strings.TrimSpace(id)
		lower := strings.ToLower(id)
		switch {
		case strings.HasPrefix(lower, "urn:isbn:"):
			return id[len("urn:isbn:"):]
		case strings.HasPrefix(lower, "isbn"):
			return strings.TrimSpace(strings.TrimLeft(id[4:], ":= "))
		}
	}
	return ""
}

// recordURL returns the first identifier that is a URL, if any.
func (dc sruDublinCore) recordURL() string {
	for _, id := range dc.Identifiers {
		id = strings.TrimSpace(id)
		if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
			return id
		}
	}
	return ""
}

func (dc sruDublinCore) candidate() similarity.Candidate {
	return similarity.Candidate{Title: dc.title(), Year: dc.year()}
}

func (dc sruDublinCore) patch() *types.ExtractedReference {
	p := &types.ExtractedReference{}
	setIfPresent(&p.Title, dc.title())
	setIfPresent(&p.Year, dc.year())
	if len(dc.Publishers) > 0 {
		setIfPresent(&p.Publisher, dc.Publishers[0])
	}
	setIfPresent(&p.ISBN, dc.isbn())
	setIfPresent(&p.URL, dc.recordURL())
	return p
}
