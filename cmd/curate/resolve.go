package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nspond/curate/internal/config"
	"github.com/nspond/curate/internal/entrez"
	"github.com/nspond/curate/internal/identifier"
	"github.com/nspond/curate/internal/pmc"
	"github.com/nspond/curate/internal/resolve"
	"github.com/nspond/curate/internal/s2"
	"github.com/nspond/curate/internal/storage"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Identifier resolution utilities",
}

var resolveIDsCmd = &cobra.Command{
	Use:   "ids <file>",
	Short: "Resolve PMIDs, PMCIDs, and DOIs into unified records",
	Long: `Resolve a file of identifiers (one per line) into unified records by
cross-referencing the PMC ID converter, Entrez summaries, and the
Semantic Scholar graph. Records sharing any identifier are merged.

Gateway failures never abort a run: partial results are written along
with the error list in metadata.json.

Examples:
  curate resolve ids pmids.txt
  curate resolve ids mixed_identifiers.txt --human`,
	Args: cobra.ExactArgs(1),
	RunE: runResolveIDs,
}

func init() {
	// Load .env if present (for API keys)
	_ = godotenv.Load()

	resolveCmd.AddCommand(resolveIDsCmd)
	rootCmd.AddCommand(resolveCmd)
}

// ResolveResponse is the JSON output of resolve ids.
type ResolveResponse struct {
	InputCount  int      `json:"input_count"`
	RecordCount int      `json:"record_count"`
	Sources     []string `json:"sources"`
	ErrorCount  int      `json:"error_count"`
	RecordsPath string   `json:"records_path"`
}

// readIdentifierLines reads non-blank lines from a file.
func readIdentifierLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}

func runResolveIDs(cmd *cobra.Command, args []string) error {
	inputFile := args[0]

	raw, err := readIdentifierLines(inputFile)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	if len(raw) == 0 {
		exitWithError(ExitDataError, "input file contains no identifiers: %s", inputFile)
	}

	// Normalization is fail-fast: malformed identifiers reject the
	// whole batch before any gateway call.
	ids, err := identifier.NormalizeAll(raw)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	settings := mustLoadSettings()
	global := mustLoadGlobalConfig()

	result, runDir := resolveAndStore(cmd, settings, global, ids, inputFile)
	recordsPath := filepath.Join(runDir, "records.jsonl")

	if humanOutput {
		fmt.Printf("Resolved %d identifiers into %d records at %s\n", len(ids), len(result.Records), recordsPath)
	} else {
		outputJSON(ResolveResponse{
			InputCount:  len(ids),
			RecordCount: len(result.Records),
			Sources:     result.Sources(),
			ErrorCount:  len(result.Errors),
			RecordsPath: recordsPath,
		})
	}
	warnIssues(len(result.Errors), "see metadata.json for details")
	return nil
}

// resolveAndStore runs the resolution engine over normalized
// identifiers and persists records.jsonl plus metadata.json to a
// hash-addressed run directory. Returns the result and the run dir.
func resolveAndStore(cmd *cobra.Command, settings config.Settings, global *config.GlobalConfig, ids []identifier.Identifier, inputLabel string) (resolve.Result, string) {
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i] = id.Key()
	}
	runDir, err := storage.BuildHashedOutputDir(filepath.Join(settings.InterimDir(), "resolved"), tokens)
	if err != nil {
		exitWithError(ExitError, "preparing output directory: %v", err)
	}

	pmcClient := pmc.NewClient(pmc.WithAPIKey(global.NCBIAPIKey), pmc.WithEmail(global.Email))
	defer pmcClient.Close()
	entrezClient := entrez.NewClient(entrez.WithAPIKey(global.NCBIAPIKey), entrez.WithEmail(global.Email))
	defer entrezClient.Close()
	s2Client := s2.NewClient(s2.WithAPIKey(global.S2APIKey))
	defer s2Client.Close()

	resolver := resolve.NewResolver(pmcClient, entrezClient, s2Client)
	result := resolver.Resolve(cmd.Context(), ids)

	recordsPath := filepath.Join(runDir, "records.jsonl")
	if err := storage.WriteRecords(recordsPath, result.Records); err != nil {
		exitWithError(ExitError, "writing records: %v", err)
	}

	unique := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		unique[token] = true
	}
	metadata := map[string]any{
		"input_file":     inputLabel,
		"input_count":    len(ids),
		"unique_inputs":  len(unique),
		"record_count":   len(result.Records),
		"sources":        result.Sources(),
		"errors":         result.Errors,
		"input_hash":     filepath.Base(runDir),
		"run_started_at": timestampUTC(result.StartedAt),
		"records_path":   recordsPath,
	}
	if err := storage.WriteJSON(filepath.Join(runDir, "metadata.json"), metadata); err != nil {
		exitWithError(ExitError, "writing metadata: %v", err)
	}

	return result, runDir
}
