// Package storage handles pipeline artifact persistence: deterministic
// content hashing, JSONL record files, and an ephemeral SQLite lookup
// cache rebuilt from JSONL.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// hashLength is the number of hex characters kept from the digest.
const hashLength = 16

// HashIdentifiers returns a deterministic short hash for a collection of
// identifier tokens. Tokens are sorted before hashing so the result is
// independent of input ordering.
func HashIdentifiers(identifiers []string) (string, error) {
	cleaned := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return "", fmt.Errorf("at least one identifier is required to compute a hash")
	}
	sort.Strings(cleaned)

	digest := sha256.Sum256([]byte(strings.Join(cleaned, "\n")))
	return hex.EncodeToString(digest[:])[:hashLength], nil
}

// HashFileContents returns a deterministic short hash of the given file
// contents, concatenated in lexicographic path order. Missing files are
// skipped.
func HashFileContents(paths []string) (string, error) {
	ordered := make([]string, len(paths))
	copy(ordered, paths)
	sort.Slice(ordered, func(i, j int) bool {
		return filepath.ToSlash(ordered[i]) < filepath.ToSlash(ordered[j])
	})

	hasher := sha256.New()
	for _, path := range ordered {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		hasher.Write(data)
	}
	return hex.EncodeToString(hasher.Sum(nil))[:hashLength], nil
}

// BuildHashedOutputDir creates (if needed) and returns a hashed output
// directory under baseDir, named by HashIdentifiers of the tokens.
func BuildHashedOutputDir(baseDir string, identifiers []string) (string, error) {
	hashed, err := HashIdentifiers(identifiers)
	if err != nil {
		return "", err
	}
	target := filepath.Join(baseDir, hashed)
	if err := os.MkdirAll(target, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return target, nil
}
