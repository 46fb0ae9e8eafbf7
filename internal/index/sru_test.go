// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/bibmatch/pkg/types"
)

const sampleSRUResponse = `<?xml version="1.0" encoding="UTF-8"?>
<zs:searchRetrieveResponse xmlns:zs="http://www.loc.gov/zing/srw/">
  <zs:version>1.1</zs:version>
  <zs:numberOfRecords>1</zs:numberOfRecords>
  <zs:records>
    <zs:record>
      <zs:recordSchema>dc</zs:recordSchema>
      <zs:recordData>
        <srw_dc:dc xmlns:srw_dc="info:srw/schema/1/dc-v1.1"
                   xmlns:dc="http://purl.org/dc/elements/1.1/">
          <dc:title>Die Grundlagen der Arithmetik</dc:title>
          <dc:creator>Frege, Gottlob</dc:creator>
          <dc:date>1884</dc:date>
          <dc:publisher>Koebner</dc:publisher>
          <dc:identifier>ISBN 978-3-7873-1234-5</dc:identifier>
          <dc:identifier>https://kxp.k10plus.de/DB=2.1/PPN?PPN=123456789</dc:identifier>
        </srw_dc:dc>
      </zs:recordData>
    </zs:record>
  </zs:records>
</zs:searchRetrieveResponse>`

func TestSRUMatchParsesDublinCore(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("operation") != "searchRetrieve" || q.Get("recordSchema") != "dc" {
			t.Errorf("unexpected SRU params: %v", q)
		}
		if !strings.Contains(q.Get("query"), "pica.all=grundlagen") {
			t.Errorf("query should AND significant title tokens, got %q", q.Get("query"))
		}
		if !strings.Contains(q.Get("query"), " and pica.all=frege") {
			t.Errorf("query should include the author surname, got %q", q.Get("query"))
		}
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, sampleSRUResponse)
	}))
	defer ts.Close()

	m := NewSRU(testHTTPClient(ts), types.SourceConfig{Enabled: true, Endpoint: ts.URL}, 5)
	ref := types.ExtractedReference{
		Title:   "Die Grundlagen der Arithmetik",
		Authors: []types.Author{{FirstName: "Gottlob", LastName: "Frege"}},
	}

	match := m.Match(context.Background(), ref)
	if match.Status != types.StatusValidated {
		t.Fatalf("Status = %s (%s), want validated", match.Status, match.Explanation)
	}
	if match.Patch == nil {
		t.Fatal("expected a patch")
	}
	if match.Patch.Year != "1884" {
		t.Errorf("patch year = %q", match.Patch.Year)
	}
	if match.Patch.Publisher != "Koebner" {
		t.Errorf("patch publisher = %q", match.Patch.Publisher)
	}
	if match.Patch.ISBN != "978-3-7873-1234-5" {
		t.Errorf("patch ISBN = %q", match.Patch.ISBN)
	}
	if !strings.HasPrefix(match.URL, "https://kxp.k10plus.de/") {
		t.Errorf("match URL = %q", match.URL)
	}
}

func TestSRUNoEndpointFailsFast(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	m := NewSRU(testHTTPClient(ts), types.SourceConfig{Enabled: true}, 5)
	match := m.Match(context.Background(), types.ExtractedReference{Title: "Whatever Title"})
	if match.Status != types.StatusError {
		t.Errorf("Status = %s, want error", match.Status)
	}
	if !strings.Contains(match.Explanation, "endpoint") {
		t.Errorf("Explanation = %q", match.Explanation)
	}
}

func TestSRUEmptyRecordsIsNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?>
<zs:searchRetrieveResponse xmlns:zs="http://www.loc.gov/zing/srw/">
  <zs:numberOfRecords>0</zs:numberOfRecords>
  <zs:records/>
</zs:searchRetrieveResponse>`)
	}))
	defer ts.Close()

	m := NewSRU(testHTTPClient(ts), types.SourceConfig{Enabled: true, Endpoint: ts.URL}, 5)
	match := m.Match(context.Background(), types.ExtractedReference{Title: "Unfindable Book Title"})
	if match.Status != types.StatusNotFound {
		t.Errorf("Status = %s, want not_found", match.Status)
	}
}

func TestSRUMalformedXMLDegradesToError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"this": "is not xml"}`)
	}))
	defer ts.Close()

	m := NewSRU(testHTTPClient(ts), types.SourceConfig{Enabled: true, Endpoint: ts.URL}, 5)
	match := m.Match(context.Background(), types.ExtractedReference{Title: "Whatever Title"})
	if match.Status != types.StatusError {
		t.Errorf("Status = %s, want error", match.Status)
	}
}
