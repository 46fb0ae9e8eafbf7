// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"github.com/pdiddy/bibmatch/internal/httputil"
	"github.com/pdiddy/bibmatch/pkg/types"
)

// EnabledMatchers builds one adapter per enabled source, in the stable
// order of types.AllSources. Each adapter gets its own rate-limited client
// so politeness limits stay per-provider.
func EnabledMatchers(cfg types.ValidationConfig) []Matcher {
	var matchers []Matcher
	for _, src := range types.AllSources() {
		sc := cfg.SourceConfigFor(src)
		if !sc.Enabled {
			continue
		}
		client := httputil.NewClient(cfg.HTTPConfig, cfg.RequestsPerSecond)
		switch src {
		case types.SourceCrossref:
			matchers = append(matchers, NewCrossref(client, sc, cfg.MaxCandidates))
		case types.SourceOpenAlex:
			matchers = append(matchers, NewOpenAlex(client, sc, cfg.MaxCandidates))
		case types.SourceLobid:
			matchers = append(matchers, NewLobid(client, sc, cfg.MaxCandidates))
		case types.SourceEuropeana:
			matchers = append(matchers, NewEuropeana(client, sc, cfg.MaxCandidates))
		case types.SourceK10plus:
			matchers = append(matchers, NewSRU(client, sc, cfg.MaxCandidates))
		case types.SourceWikidata:
			matchers = append(matchers, NewWikidata(client, sc, cfg.MaxCandidates))
		}
	}
	return matchers
}
