package fulltext

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// PubGet is a thin wrapper around the pubget command-line tool, which
// retrieves plain-text full text for PubMed Central articles.
type PubGet struct {
	executable string
}

// NewPubGet creates a PubGet wrapper. executable defaults to "pubget".
func NewPubGet(executable string) *PubGet {
	if executable == "" {
		executable = "pubget"
	}
	return &PubGet{executable: executable}
}

// FetchText fetches plain-text full text for the given PMCID. Returns
// an empty string when pubget exits non-zero or produces no text; an
// error only when pubget is not installed.
func (p *PubGet) FetchText(ctx context.Context, pmcid string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "curate-pubget-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outPath := filepath.Join(tmpDir, "fulltext.txt")
	cmd := exec.CommandContext(ctx, p.executable, "fetch", pmcid, "--fulltext", "--output", outPath)
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return "", nil
		}
		return "", fmt.Errorf("pubget executable not found or failed to start: %w", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return "", nil
	}
	return strings.TrimSpace(string(data)), nil
}
