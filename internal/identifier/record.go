package identifier

import "encoding/json"

// Record is the consolidated identifier tuple for one underlying
// publication. Empty string means the identifier is unknown. A record
// never holds two different values for the same kind; conflicts are
// reported by the engines, not stored.
type Record struct {
	PMID  string
	PMCID string
	DOI   string
}

// Get returns the record's value for the given kind.
func (r *Record) Get(kind Kind) string {
	switch kind {
	case KindPMID:
		return r.PMID
	case KindPMCID:
		return r.PMCID
	case KindDOI:
		return r.DOI
	}
	return ""
}

// Set writes the record's value for the given kind.
func (r *Record) Set(kind Kind, value string) {
	switch kind {
	case KindPMID:
		r.PMID = value
	case KindPMCID:
		r.PMCID = value
	case KindDOI:
		r.DOI = value
	}
}

// IsEmpty reports whether the record holds no identifiers.
func (r Record) IsEmpty() bool {
	return r.PMID == "" && r.PMCID == "" && r.DOI == ""
}

// jsonRecord is the wire form: exactly three keys, null for absent.
type jsonRecord struct {
	PMID  *string `json:"pmid"`
	PMCID *string `json:"pmcid"`
	DOI   *string `json:"doi"`
}

// MarshalJSON serializes the record with keys pmid, pmcid, doi in that
// order, emitting null for absent values.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonRecord{
		PMID:  nullable(r.PMID),
		PMCID: nullable(r.PMCID),
		DOI:   nullable(r.DOI),
	})
}

// UnmarshalJSON accepts null or string for each key.
func (r *Record) UnmarshalJSON(data []byte) error {
	var jr jsonRecord
	if err := json.Unmarshal(data, &jr); err != nil {
		return err
	}
	r.PMID = deref(jr.PMID)
	r.PMCID = deref(jr.PMCID)
	r.DOI = deref(jr.DOI)
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Links is a partial cross-reference payload returned by an external
// gateway: any subset of the three identifier kinds may be present.
type Links struct {
	PMID  string
	PMCID string
	DOI   string
}

// IsEmpty reports whether the payload carries no identifiers.
func (l Links) IsEmpty() bool {
	return l.PMID == "" && l.PMCID == "" && l.DOI == ""
}
