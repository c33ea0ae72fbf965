// Package identifier defines the core domain types for bibliographic
// identifiers: PMIDs, PMCIDs, and DOIs in canonical form.
package identifier

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the type of a bibliographic identifier.
type Kind string

const (
	KindPMID  Kind = "pmid"
	KindPMCID Kind = "pmcid"
	KindDOI   Kind = "doi"
)

// Kinds lists all identifier kinds in field priority order.
var Kinds = []Kind{KindPMID, KindPMCID, KindDOI}

// Errors returned by normalization.
var (
	// ErrInvalid indicates a blank identifier or one that failed
	// kind-specific validation.
	ErrInvalid = errors.New("invalid identifier")

	// ErrUnrecognized indicates an identifier whose kind could not be
	// determined.
	ErrUnrecognized = errors.New("unrecognized identifier")
)

// Identifier is a normalized bibliographic identifier. Value holds the
// canonical form; Original preserves the input string. Two identifiers
// are the same iff their (Kind, Value) pairs are equal.
type Identifier struct {
	Kind     Kind
	Value    string
	Original string
}

// Key returns the "<kind>:<value>" form used for indexing and hashing.
func (i Identifier) Key() string {
	return string(i.Kind) + ":" + i.Value
}

const pmcPrefix = "PMC"

// NormalizePMID validates a PMID: non-empty, all digits after trimming.
func NormalizePMID(value string) (string, error) {
	candidate := strings.TrimSpace(value)
	if candidate == "" {
		return "", fmt.Errorf("%w: empty PMID", ErrInvalid)
	}
	if !isDigits(candidate) {
		return "", fmt.Errorf("%w: invalid PMID: %s", ErrInvalid, value)
	}
	return candidate, nil
}

// NormalizePMCID canonicalizes a PMCID to "PMC<digits>" uppercase.
// Accepts bare digits, PMC-prefixed, or PMCID:-prefixed input.
func NormalizePMCID(value string) (string, error) {
	candidate := strings.ToUpper(strings.TrimSpace(value))
	if rest, ok := strings.CutPrefix(candidate, "PMCID:"); ok {
		candidate = rest
	}
	candidate = strings.TrimPrefix(candidate, pmcPrefix)
	if candidate == "" || !isDigits(candidate) {
		return "", fmt.Errorf("%w: invalid PMCID: %s", ErrInvalid, value)
	}
	return pmcPrefix + candidate, nil
}

// NormalizeDOI canonicalizes a DOI: optional doi: prefix stripped,
// must contain a slash, lowercased.
func NormalizeDOI(value string) (string, error) {
	candidate := strings.TrimSpace(value)
	if len(candidate) >= 4 && strings.EqualFold(candidate[:4], "doi:") {
		candidate = candidate[4:]
	}
	if !strings.Contains(candidate, "/") {
		return "", fmt.Errorf("%w: invalid DOI: %s", ErrInvalid, value)
	}
	return strings.ToLower(candidate), nil
}

// NormalizeValue canonicalizes a raw value already known to be of the
// given kind. Used for values returned by external gateways.
func NormalizeValue(kind Kind, value string) (string, error) {
	switch kind {
	case KindPMID:
		return NormalizePMID(value)
	case KindPMCID:
		return NormalizePMCID(value)
	case KindDOI:
		return NormalizeDOI(value)
	}
	return "", fmt.Errorf("%w: unsupported kind %q", ErrInvalid, kind)
}

// Normalize parses a free-text identifier string into a typed Identifier.
// Dispatch order, first match wins (prefixes are case-insensitive):
//  1. "pmid:" prefix -> PMID
//  2. "pmcid:" prefix or "pmc" prefix -> PMCID
//  3. all digits -> PMID
//  4. contains "/" -> DOI
//  5. otherwise ErrUnrecognized
func Normalize(value string) (Identifier, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return Identifier{}, fmt.Errorf("%w: identifier cannot be blank", ErrInvalid)
	}
	lowered := strings.ToLower(raw)

	switch {
	case strings.HasPrefix(lowered, "pmid:"):
		canonical, err := NormalizePMID(raw[len("pmid:"):])
		if err != nil {
			return Identifier{}, err
		}
		return Identifier{Kind: KindPMID, Value: canonical, Original: value}, nil

	case strings.HasPrefix(lowered, "pmcid:") || strings.HasPrefix(lowered, "pmc"):
		canonical, err := NormalizePMCID(raw)
		if err != nil {
			return Identifier{}, err
		}
		return Identifier{Kind: KindPMCID, Value: canonical, Original: value}, nil

	case isDigits(raw):
		return Identifier{Kind: KindPMID, Value: raw, Original: value}, nil

	case strings.Contains(raw, "/"):
		canonical, err := NormalizeDOI(raw)
		if err != nil {
			return Identifier{}, err
		}
		return Identifier{Kind: KindDOI, Value: canonical, Original: value}, nil
	}

	return Identifier{}, fmt.Errorf("%w: %s", ErrUnrecognized, value)
}

// NormalizeAll normalizes a list of raw identifier strings, failing on
// the first malformed entry.
func NormalizeAll(values []string) ([]Identifier, error) {
	ids := make([]Identifier, 0, len(values))
	for _, value := range values {
		id, err := Normalize(value)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
