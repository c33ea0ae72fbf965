// Package main provides the curate CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "curate",
	Short: "Neuroscience literature curation pipeline",
	Long: `curate builds a curated corpus of neuroscience literature.

Core features:
  - PubMed searches persisted as reproducible, hash-addressed runs
  - Identifier resolution: PMIDs, PMCIDs, and DOIs consolidated into
    unified records via PMC, Entrez, and Semantic Scholar
  - Offline merging of record files with conflict detection
  - Full-text retrieval via pubget and HTML scraping

Artifacts live under a data/ tree (raw, interim, processed, final),
addressed by deterministic hashes of their inputs so re-running with
the same inputs lands in the same place.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
