// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the bibmatch CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bibmatch/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the bibmatch CLI.
var rootCmd = &cobra.Command{
	Use:   "bibmatch",
	Short: "Validate and enrich extracted bibliographic references",
	Long: `bibmatch takes bibliographic references extracted from documents by an
upstream (typically LLM-based) step, checks each one against external
indexes (Crossref, OpenAlex, lobid, Europeana, union catalogs via SRU,
Wikidata), and merges authoritative field values back into the records.

The validate subcommand runs the index checks and enrichment over a JSON
reference list and emits enriched records plus per-reference validation
reports. The export subcommand renders a reference list as BibTeX or
CSL-YAML for citation tooling.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env values feed viper's AutomaticEnv lookup.
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./bibmatch.yaml or ~/.config/bibmatch/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("bibmatch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "bibmatch"))
		}
	}

	viper.SetEnvPrefix("BIBMATCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
