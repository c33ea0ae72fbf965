package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nspond/curate/internal/identifier"
	"github.com/nspond/curate/internal/pdftext"
)

var resolvePDFCmd = &cobra.Command{
	Use:   "pdf <pdfs...>",
	Short: "Extract DOIs from PDF files and resolve them",
	Long: `Scan the opening pages of each PDF for a DOI, then resolve the
collected DOIs into unified records exactly as 'resolve ids' does.

PDFs with no detectable DOI are reported and skipped; the run fails
only when no PDF yields a DOI.

Examples:
  curate resolve pdf paper.pdf
  curate resolve pdf downloads/*.pdf --human`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolvePDF,
}

func init() {
	resolveCmd.AddCommand(resolvePDFCmd)
}

// ResolvePDFResponse is the JSON output of resolve pdf.
type ResolvePDFResponse struct {
	FileCount   int      `json:"file_count"`
	DOICount    int      `json:"doi_count"`
	Skipped     []string `json:"skipped_files"`
	RecordCount int      `json:"record_count"`
	Sources     []string `json:"sources"`
	ErrorCount  int      `json:"error_count"`
	RecordsPath string   `json:"records_path"`
}

func runResolvePDF(cmd *cobra.Command, args []string) error {
	paths := append([]string(nil), args...)
	sort.Strings(paths)

	var ids []identifier.Identifier
	var skipped []string
	seen := make(map[string]bool)
	for _, path := range paths {
		doi, err := pdftext.ExtractDOI(path)
		if err != nil {
			exitWithError(ExitDataError, "reading %s: %v", path, err)
		}
		if doi == "" {
			skipped = append(skipped, path)
			continue
		}
		canonical, err := identifier.NormalizeValue(identifier.KindDOI, doi)
		if err != nil {
			skipped = append(skipped, path)
			continue
		}
		id := identifier.Identifier{Kind: identifier.KindDOI, Value: canonical, Original: doi}
		if !seen[id.Key()] {
			seen[id.Key()] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		exitWithError(ExitDataError, "no DOIs found in %d PDF file(s)", len(paths))
	}

	settings := mustLoadSettings()
	global := mustLoadGlobalConfig()

	result, runDir := resolveAndStore(cmd, settings, global, ids, fmt.Sprintf("%d PDF file(s)", len(paths)))
	recordsPath := filepath.Join(runDir, "records.jsonl")

	if humanOutput {
		fmt.Printf("Extracted %d DOIs from %d PDFs, resolved into %d records at %s\n",
			len(ids), len(paths), len(result.Records), recordsPath)
		for _, path := range skipped {
			fmt.Printf("  no DOI found: %s\n", path)
		}
	} else {
		outputJSON(ResolvePDFResponse{
			FileCount:   len(paths),
			DOICount:    len(ids),
			Skipped:     skipped,
			RecordCount: len(result.Records),
			Sources:     result.Sources(),
			ErrorCount:  len(result.Errors),
			RecordsPath: recordsPath,
		})
	}
	warnIssues(len(result.Errors), "see metadata.json for details")
	return nil
}
