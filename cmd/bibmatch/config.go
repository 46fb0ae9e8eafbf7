package main

import (
	"github.com/spf13/viper"

	"github.com/pdiddy/bibmatch/pkg/types"
)

// validationConfig assembles the batch configuration from defaults,
// the viper config file / environment, and loaded secrets, in that order.
func validationConfig() types.ValidationConfig {
	cfg := types.DefaultValidationConfig()

	if viper.IsSet("validation.enabled") {
		cfg.Enabled = viper.GetBool("validation.enabled")
	}
	if viper.IsSet("validation.enrich_from_indexes") {
		cfg.EnrichFromIndexes = viper.GetBool("validation.enrich_from_indexes")
	}
	if viper.IsSet("validation.max_candidates") {
		cfg.MaxCandidates = viper.GetInt("validation.max_candidates")
	}
	if viper.IsSet("validation.requests_per_second") {
		cfg.RequestsPerSecond = viper.GetFloat64("validation.requests_per_second")
	}
	if viper.IsSet("http.timeout") {
		cfg.Timeout = viper.GetDuration("http.timeout")
	}
	if v := viper.GetString("http.user_agent"); v != "" {
		cfg.UserAgent = v
	}

	applySourceConfig("crossref", &cfg.Crossref)
	applySourceConfig("openalex", &cfg.OpenAlex)
	applySourceConfig("lobid", &cfg.Lobid)
	applySourceConfig("europeana", &cfg.Europeana)
	applySourceConfig("k10plus", &cfg.K10plus)
	applySourceConfig("wikidata", &cfg.Wikidata)

	cfg.Crossref.Mailto = secretDefault("crossref-mailto", cfg.Crossref.Mailto)
	cfg.OpenAlex.Mailto = secretDefault("openalex-mailto", cfg.OpenAlex.Mailto)
	cfg.Europeana.APIKey = secretDefault("europeana-api-key", cfg.Europeana.APIKey)

	return cfg
}

func applySourceConfig(name string, sc *types.SourceConfig) {
	prefix := "sources." + name + "."
	if viper.IsSet(prefix + "enabled") {
		sc.Enabled = viper.GetBool(prefix + "enabled")
	}
	if v := viper.GetString(prefix + "mailto"); v != "" {
		sc.Mailto = v
	}
	if v := viper.GetString(prefix + "api_key"); v != "" {
		sc.APIKey = v
	}
	if v := viper.GetString(prefix + "endpoint"); v != "" {
		sc.Endpoint = v
	}
	if viper.IsSet(prefix + "priority") {
		sc.Priority = viper.GetInt(prefix + "priority")
	}
}
