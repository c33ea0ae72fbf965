package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nspond/curate/internal/pubmed"
	"github.com/nspond/curate/internal/storage"
)

var (
	searchStartDate string
	searchEndDate   string
	searchRetMax    int
	searchAPIKey    string
	searchEmail     string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search utilities",
}

var searchPubmedCmd = &cobra.Command{
	Use:   "pubmed <query>",
	Short: "Run a PubMed search and persist PMIDs",
	Long: `Run a PubMed search and persist the matching PMIDs under the raw
data directory, addressed by a hash of the query and date window.

Examples:
  curate search pubmed "hippocampus AND fmri"
  curate search pubmed "place cells" --start-date 2020-01-01 --end-date 2024-12-31`,
	Args: cobra.ExactArgs(1),
	RunE: runSearchPubmed,
}

func init() {
	// Load .env if present (for NCBI_API_KEY and CURATE_EMAIL)
	_ = godotenv.Load()

	searchPubmedCmd.Flags().StringVar(&searchStartDate, "start-date", "", "Restrict to publications on/after this date (YYYY-MM-DD)")
	searchPubmedCmd.Flags().StringVar(&searchEndDate, "end-date", "", "Restrict to publications on/before this date (YYYY-MM-DD)")
	searchPubmedCmd.Flags().IntVar(&searchRetMax, "retmax", pubmed.DefaultRetMax, "Number of records to request per page")
	searchPubmedCmd.Flags().StringVar(&searchAPIKey, "api-key", "", "NCBI API key for higher rate limits")
	searchPubmedCmd.Flags().StringVar(&searchEmail, "email", "", "Contact email sent to NCBI with requests")

	searchCmd.AddCommand(searchPubmedCmd)
	rootCmd.AddCommand(searchCmd)
}

// SearchResponse is the JSON output of search pubmed.
type SearchResponse struct {
	Query       string `json:"query"`
	ResultCount int    `json:"result_count"`
	PMIDFile    string `json:"pmid_file"`
	RunDir      string `json:"run_dir"`
}

func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date for %s: %s", name, value)
	}
	return parsed, nil
}

func runSearchPubmed(cmd *cobra.Command, args []string) error {
	query := args[0]

	startDate, err := parseDateFlag("--start-date", searchStartDate)
	if err != nil {
		return err
	}
	endDate, err := parseDateFlag("--end-date", searchEndDate)
	if err != nil {
		return err
	}

	settings := mustLoadSettings()
	global := mustLoadGlobalConfig()

	apiKey := searchAPIKey
	if apiKey == "" {
		apiKey = global.NCBIAPIKey
	}
	email := searchEmail
	if email == "" {
		email = global.Email
	}

	// The run directory is addressed by the query and date window so
	// identical searches land in the same place.
	hashTokens := []string{query}
	if searchStartDate != "" {
		hashTokens = append(hashTokens, "start:"+searchStartDate)
	}
	if searchEndDate != "" {
		hashTokens = append(hashTokens, "end:"+searchEndDate)
	}
	searchHash, err := storage.HashIdentifiers(hashTokens)
	if err != nil {
		exitWithError(ExitDataError, "hashing search terms: %v", err)
	}

	startedAt := time.Now().UTC()
	runDir := filepath.Join(settings.RawDir(), "pubmed", searchHash, startedAt.Format("20060102"))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		exitWithError(ExitError, "creating run directory: %v", err)
	}

	client := pubmed.NewClient(
		pubmed.WithAPIKey(apiKey),
		pubmed.WithEmail(email),
		pubmed.WithRetMax(searchRetMax),
	)
	defer client.Close()

	pmids, err := client.SearchPMIDs(cmd.Context(), query, pubmed.SearchOptions{
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		exitWithError(ExitError, "searching PubMed: %v", err)
	}

	pmidFile := filepath.Join(runDir, "pmids.txt")
	if err := os.WriteFile(pmidFile, []byte(strings.Join(pmids, "\n")), 0644); err != nil {
		exitWithError(ExitError, "writing PMIDs: %v", err)
	}

	metadata := map[string]any{
		"source":         "pubmed",
		"query":          query,
		"start_date":     searchStartDate,
		"end_date":       searchEndDate,
		"result_count":   len(pmids),
		"retmax":         searchRetMax,
		"run_started_at": timestampUTC(startedAt),
	}
	if err := storage.WriteJSON(filepath.Join(runDir, "metadata.json"), metadata); err != nil {
		exitWithError(ExitError, "writing metadata: %v", err)
	}

	if humanOutput {
		fmt.Printf("Stored %d PMIDs at %s\n", len(pmids), pmidFile)
	} else {
		outputJSON(SearchResponse{
			Query:       query,
			ResultCount: len(pmids),
			PMIDFile:    pmidFile,
			RunDir:      runDir,
		})
	}
	return nil
}
