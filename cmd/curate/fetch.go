package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nspond/curate/internal/entrez"
	"github.com/nspond/curate/internal/fulltext"
	"github.com/nspond/curate/internal/s2"
	"github.com/nspond/curate/internal/storage"
)

var pubgetExecutable string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Full-text retrieval",
}

var fetchFulltextCmd = &cobra.Command{
	Use:   "fulltext <files...>",
	Short: "Fetch full text and metadata for resolved records",
	Long: `Retrieve full text for each record in the given JSONL files, trying
pubget first for records with a PMCID and falling back to scraping the
PMC article page. Metadata comes from the Semantic Scholar graph, with
Entrez summaries as fallback.

One JSON file per record is written to a hash-addressed directory
under processed/fulltext, alongside a metadata.json for the run.

Examples:
  curate fetch fulltext data/processed/merged/a1b2c3/records.jsonl
  curate fetch fulltext records.jsonl --pubget-bin /opt/pubget/bin/pubget`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetchFulltext,
}

func init() {
	_ = godotenv.Load()

	fetchFulltextCmd.Flags().StringVar(&pubgetExecutable, "pubget-bin", "", "path to the pubget executable (default: pubget on PATH)")
	fetchCmd.AddCommand(fetchFulltextCmd)
	rootCmd.AddCommand(fetchCmd)
}

// FetchResponse is the JSON output of fetch fulltext.
type FetchResponse struct {
	FileCount    int      `json:"file_count"`
	RecordCount  int      `json:"record_count"`
	SuccessCount int      `json:"success_count"`
	TextSources  []string `json:"text_sources"`
	ErrorCount   int      `json:"error_count"`
	OutputDir    string   `json:"output_dir"`
}

func runFetchFulltext(cmd *cobra.Command, args []string) error {
	settings := mustLoadSettings()
	global := mustLoadGlobalConfig()

	records, loadErrors, err := fulltext.LoadRecords(args)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	if len(records) == 0 {
		exitWithError(ExitDataError, "no records found in %d file(s)", len(args))
	}

	hash, err := storage.HashFileContents(args)
	if err != nil {
		exitWithError(ExitDataError, "hashing inputs: %v", err)
	}
	runDir := filepath.Join(settings.ProcessedDir(), "fulltext", hash)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		exitWithError(ExitError, "creating run directory: %v", err)
	}

	s2Client := s2.NewClient(s2.WithAPIKey(global.S2APIKey))
	defer s2Client.Close()
	entrezClient := entrez.NewClient(entrez.WithAPIKey(global.NCBIAPIKey), entrez.WithEmail(global.Email))
	defer entrezClient.Close()
	scraper := fulltext.NewScraper()

	fetcher := fulltext.NewFetcher(
		fulltext.NewPubGet(pubgetExecutable),
		scraper,
		s2Client,
		entrezClient,
	)
	result := fetcher.Fetch(cmd.Context(), records)
	errors := append(loadErrors, result.Errors...)

	for i, rec := range result.Records {
		path := filepath.Join(runDir, fulltext.RecordSlug(rec, i)+".json")
		if err := storage.WriteJSON(path, rec); err != nil {
			exitWithError(ExitError, "writing record: %v", err)
		}
	}

	metadata := map[string]any{
		"source_files":     args,
		"record_count":     len(result.Records),
		"success_count":    result.SuccessCount(),
		"text_sources":     sortedSetKeys(result.SourcesUsed),
		"metadata_sources": sortedSetKeys(result.MetadataSources),
		"errors":           errors,
		"input_hash":       hash,
		"run_started_at":   timestampUTC(result.StartedAt),
	}
	if err := storage.WriteJSON(filepath.Join(runDir, "metadata.json"), metadata); err != nil {
		exitWithError(ExitError, "writing metadata: %v", err)
	}

	if humanOutput {
		fmt.Printf("Fetched text for %d of %d records at %s\n", result.SuccessCount(), len(result.Records), runDir)
	} else {
		outputJSON(FetchResponse{
			FileCount:    len(args),
			RecordCount:  len(result.Records),
			SuccessCount: result.SuccessCount(),
			TextSources:  sortedSetKeys(result.SourcesUsed),
			ErrorCount:   len(errors),
			OutputDir:    runDir,
		})
	}
	warnIssues(len(errors), "see metadata.json for details")
	return nil
}

func sortedSetKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
