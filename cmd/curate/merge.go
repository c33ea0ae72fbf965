package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nspond/curate/internal/merge"
	"github.com/nspond/curate/internal/storage"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Offline record merging",
}

var mergeRecordsCmd = &cobra.Command{
	Use:   "records <files...>",
	Short: "Merge record files into one deduplicated set",
	Long: `Union-merge records from one or more JSONL files without any network
access. Records sharing any identifier collapse into a single record;
conflicting values for the same identifier kind are reported and the
lexicographically smallest value wins.

The output directory is addressed by a hash of the input file
contents, so re-running on unchanged inputs reuses the same path.

Examples:
  curate merge records run1/records.jsonl run2/records.jsonl
  curate merge records data/interim/resolved/*/records.jsonl --human`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMergeRecords,
}

func init() {
	mergeCmd.AddCommand(mergeRecordsCmd)
	rootCmd.AddCommand(mergeCmd)
}

// MergeResponse is the JSON output of merge records.
type MergeResponse struct {
	FileCount   int    `json:"file_count"`
	RecordCount int    `json:"record_count"`
	ErrorCount  int    `json:"error_count"`
	InputHash   string `json:"input_hash"`
	RecordsPath string `json:"records_path"`
}

func runMergeRecords(cmd *cobra.Command, args []string) error {
	settings := mustLoadSettings()

	outcome, err := merge.MergeFiles(args)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	runDir := filepath.Join(settings.ProcessedDir(), "merged", outcome.InputHash)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		exitWithError(ExitError, "creating run directory: %v", err)
	}
	recordsPath := filepath.Join(runDir, "records.jsonl")
	if err := storage.WriteRecords(recordsPath, outcome.Records); err != nil {
		exitWithError(ExitError, "writing records: %v", err)
	}

	metadata := map[string]any{
		"source_files":   outcome.SourceFiles,
		"file_count":     len(outcome.SourceFiles),
		"record_count":   len(outcome.Records),
		"errors":         outcome.Errors,
		"input_hash":     outcome.InputHash,
		"records_path":   recordsPath,
		"run_started_at": timestampUTC(outcome.StartedAt),
	}
	if err := storage.WriteJSON(filepath.Join(runDir, "metadata.json"), metadata); err != nil {
		exitWithError(ExitError, "writing metadata: %v", err)
	}

	if humanOutput {
		fmt.Printf("Merged %d file(s) into %d records at %s\n", len(outcome.SourceFiles), len(outcome.Records), recordsPath)
	} else {
		outputJSON(MergeResponse{
			FileCount:   len(outcome.SourceFiles),
			RecordCount: len(outcome.Records),
			ErrorCount:  len(outcome.Errors),
			InputHash:   outcome.InputHash,
			RecordsPath: recordsPath,
		})
	}
	warnIssues(len(outcome.Errors), "see metadata.json for details")
	return nil
}
