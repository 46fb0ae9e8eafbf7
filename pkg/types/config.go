package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "bibmatch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourceConfig holds per-index settings.
type SourceConfig struct {
	// Enabled controls whether this index is consulted.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Mailto is a contact email advertised to the index for polite API
	// usage (Crossref User-Agent, OpenAlex mailto parameter).
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty"`

	// APIKey authenticates requests where the index requires a key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Endpoint overrides the index base URL. Required for the union-catalog
	// SRU adapter, optional elsewhere.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// Priority is an integer preference weight (lower = preferred),
	// reserved for tie-breaking refinement. The current best-match
	// comparator does not consult it; ties are broken by score only.
	Priority int `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// ValidationConfig is the immutable per-batch configuration for validation
// and enrichment. It is constructed once per batch call and threaded as a
// parameter; there is no ambient state.
type ValidationConfig struct {
	HTTPConfig `yaml:",inline"`

	// Enabled controls index-based validation globally. When false the
	// batch driver returns inputs unchanged with all-valid empty reports.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// EnrichFromIndexes controls whether winning patches are applied. When
	// false, validation messages are still produced but references are
	// returned unmodified.
	EnrichFromIndexes bool `json:"enrich_from_indexes" yaml:"enrich_from_indexes"`

	// MaxCandidates caps how many candidates a free-text search considers
	// (default 5).
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates"`

	// RequestsPerSecond bounds the per-source request rate (default 5).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	Crossref  SourceConfig `json:"crossref" yaml:"crossref"`
	OpenAlex  SourceConfig `json:"openalex" yaml:"openalex"`
	Lobid     SourceConfig `json:"lobid" yaml:"lobid"`
	Europeana SourceConfig `json:"europeana" yaml:"europeana"`
	K10plus   SourceConfig `json:"k10plus" yaml:"k10plus"`
	Wikidata  SourceConfig `json:"wikidata" yaml:"wikidata"`
}

// SourceConfigFor returns the per-index settings for src.
func (c ValidationConfig) SourceConfigFor(src Source) SourceConfig {
	switch src {
	case SourceCrossref:
		return c.Crossref
	case SourceOpenAlex:
		return c.OpenAlex
	case SourceLobid:
		return c.Lobid
	case SourceEuropeana:
		return c.Europeana
	case SourceK10plus:
		return c.K10plus
	case SourceWikidata:
		return c.Wikidata
	default:
		return SourceConfig{}
	}
}

// DefaultValidationConfig returns a configuration with validation and
// enrichment on, the keyless indexes enabled, and conservative limits.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "bibmatch/0.1",
		},
		Enabled:           true,
		EnrichFromIndexes: true,
		MaxCandidates:     5,
		RequestsPerSecond: 5,
		Crossref:          SourceConfig{Enabled: true, Priority: 1},
		OpenAlex:          SourceConfig{Enabled: true, Priority: 2},
		Lobid:             SourceConfig{Enabled: true, Priority: 3},
		Europeana:         SourceConfig{Priority: 4},
		K10plus:           SourceConfig{Priority: 5},
		Wikidata:          SourceConfig{Enabled: true, Priority: 6},
	}
}
