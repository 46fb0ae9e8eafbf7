// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bibmatch/internal/cache"
	"github.com/pdiddy/bibmatch/internal/export"
	"github.com/pdiddy/bibmatch/internal/reconcile"
	"github.com/pdiddy/bibmatch/pkg/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate [references.json]",
	Short: "Check references against bibliographic indexes and enrich them",
	Long: `Validate reads a JSON list of extracted references, looks each one up
in the enabled bibliographic indexes, and writes the enriched references
together with per-reference validation reports.

With no file argument (or "-") references are read from stdin. The
default output is a JSON document with "references" and "results" lists;
--format csl or --format bibtex writes the enriched bibliography in that
format instead, with reports going to the --results file if one is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	validateCmd.Flags().String("format", "json", "output format: json, csl, or bibtex")
	validateCmd.Flags().Bool("no-enrich", false, "report validation only, leave references unmodified")
	validateCmd.Flags().String("cache-dir", "", "directory for the match cache database (disabled when empty)")
	validateCmd.Flags().String("merge-results", "", "JSON file of external validation results to merge in")
	validateCmd.Flags().String("results", "", "write validation results JSON to this file")
	validateCmd.Flags().BoolP("quiet", "q", false, "suppress per-reference progress output")

	rootCmd.AddCommand(validateCmd)
}

// validateOutput is the combined JSON document for --format json.
type validateOutput struct {
	References []types.ExtractedReference `json:"references"`
	Results    []types.ValidationResult   `json:"results"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	refs, err := readReferences(inputArg(args))
	if err != nil {
		return err
	}

	cfg := validationConfig()
	if noEnrich, _ := cmd.Flags().GetBool("no-enrich"); noEnrich {
		cfg.EnrichFromIndexes = false
	}

	engine := reconcile.NewEngine(cfg)
	if cacheDir, _ := cmd.Flags().GetString("cache-dir"); cacheDir != "" {
		store, err := cache.Open(cacheDir)
		if err != nil {
			return err
		}
		defer store.Close()
		engine.UseCache(store)
	}

	var progress reconcile.ProgressFunc
	if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
		progress = func(i, total int, title string) {
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", i+1, total, title)
		}
	}

	enriched, results, err := engine.ValidateAndEnrich(context.Background(), refs, progress)
	if err != nil {
		return err
	}

	if mergePath, _ := cmd.Flags().GetString("merge-results"); mergePath != "" {
		external, err := readResults(mergePath)
		if err != nil {
			return err
		}
		results = types.MergeResultSets(results, external)
	}

	if resultsPath, _ := cmd.Flags().GetString("results"); resultsPath != "" {
		if err := writeJSON(resultsPath, results); err != nil {
			return err
		}
	}

	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("output")
	if err := writeReferences(outPath, format, enriched, results); err != nil {
		return err
	}

	invalid := 0
	for _, r := range results {
		if !r.IsValid {
			invalid++
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d reference(s) failed validation", invalid)
	}
	return nil
}

func inputArg(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

// readReferences decodes a reference list from path ("-" means stdin).
// Upstream extraction output is lossy about shape: the list may arrive
// bare, wrapped in a {"references": ...} object, or double-encoded as a
// JSON string. All three are accepted.
func readReferences(path string) ([]types.ExtractedReference, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading references: %w", err)
	}
	return decodeReferences(data)
}

func decodeReferences(data []byte) ([]types.ExtractedReference, error) {
	var refs []types.ExtractedReference
	if err := json.Unmarshal(data, &refs); err == nil {
		return refs, nil
	}

	var wrapped struct {
		References []types.ExtractedReference `json:"references"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.References != nil {
		return wrapped.References, nil
	}

	var quoted string
	if err := json.Unmarshal(data, &quoted); err == nil {
		return decodeReferences([]byte(quoted))
	}

	return nil, fmt.Errorf("input is not a JSON reference list")
}

func readResults(path string) ([]types.ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading external results: %w", err)
	}
	var results []types.ValidationResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parsing external results: %w", err)
	}
	return results, nil
}

func writeReferences(path, format string, refs []types.ExtractedReference, results []types.ValidationResult) error {
	w, closeFn, err := outputWriter(path)
	if err != nil {
		return err
	}
	defer closeFn()

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(validateOutput{References: refs, Results: results})
	case "csl":
		return export.FormatCSL(refs, w)
	case "bibtex":
		_, err := io.WriteString(w, export.ToBibTeXList(refs))
		return err
	default:
		return fmt.Errorf("unknown format %q (want json, csl, or bibtex)", format)
	}
}

func writeJSON(path string, v any) error {
	w, closeFn, err := outputWriter(path)
	if err != nil {
		return err
	}
	defer closeFn()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outputWriter(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
