package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bibmatch/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export [references.json]",
	Short: "Render a reference list as BibTeX or CSL-YAML",
	Long: `Export reads a JSON list of references (typically the output of
validate) and renders it as a bibliography for citation tooling: BibTeX
for LaTeX workflows, CSL-YAML for Pandoc and reference managers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	exportCmd.Flags().String("format", "bibtex", "output format: bibtex or csl")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	refs, err := readReferences(inputArg(args))
	if err != nil {
		return err
	}

	outPath, _ := cmd.Flags().GetString("output")
	w, closeFn, err := outputWriter(outPath)
	if err != nil {
		return err
	}
	defer closeFn()

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "bibtex":
		_, err := io.WriteString(w, export.ToBibTeXList(refs))
		return err
	case "csl":
		return export.FormatCSL(refs, w)
	default:
		return fmt.Errorf("unknown format %q (want bibtex or csl)", format)
	}
}
