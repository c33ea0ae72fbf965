package storage

import (
	"database/sql"
	"fmt"

	"github.com/nspond/curate/internal/identifier"
	_ "modernc.org/sqlite"
)

// DB wraps the ephemeral SQLite cache of resolved records. The cache is
// never authoritative: it is rebuilt from JSONL artifacts and exists
// only for fast identifier lookups.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates the records cache at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			rowid_alias INTEGER PRIMARY KEY AUTOINCREMENT,
			pmid TEXT,
			pmcid TEXT,
			doi TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_records_pmid ON records(pmid) WHERE pmid IS NOT NULL AND pmid != '';
		CREATE INDEX IF NOT EXISTS idx_records_pmcid ON records(pmcid) WHERE pmcid IS NOT NULL AND pmcid != '';
		CREATE INDEX IF NOT EXISTS idx_records_doi ON records(doi) WHERE doi IS NOT NULL AND doi != '';
	`

	_, err := db.Exec(schema)
	return err
}

// Rebuild clears the cache and reloads it from the given records.
// Returns the number of records inserted.
func (d *DB) Rebuild(records []identifier.Record) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM records"); err != nil {
		return 0, fmt.Errorf("clearing records table: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO records (pmid, pmcid, doi) VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, rec := range records {
		if rec.IsEmpty() {
			continue
		}
		if _, err := stmt.Exec(rec.PMID, rec.PMCID, rec.DOI); err != nil {
			return 0, fmt.Errorf("inserting record: %w", err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return count, nil
}

// RebuildFromJSONL clears the cache and rebuilds it from the given
// JSONL record files. Returns the number of records inserted.
func (d *DB) RebuildFromJSONL(paths []string) (int, error) {
	var all []identifier.Record
	for _, path := range paths {
		records, err := ReadRecords(path)
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", path, err)
		}
		all = append(all, records...)
	}
	return d.Rebuild(all)
}

// FindByIdentifier returns all cached records holding the given
// canonical identifier.
func (d *DB) FindByIdentifier(id identifier.Identifier) ([]identifier.Record, error) {
	var column string
	switch id.Kind {
	case identifier.KindPMID:
		column = "pmid"
	case identifier.KindPMCID:
		column = "pmcid"
	case identifier.KindDOI:
		column = "doi"
	default:
		return nil, fmt.Errorf("unsupported identifier kind: %s", id.Kind)
	}

	rows, err := d.db.Query(
		"SELECT pmid, pmcid, doi FROM records WHERE "+column+" = ? ORDER BY rowid_alias", id.Value)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []identifier.Record
	for rows.Next() {
		var rec identifier.Record
		if err := rows.Scan(&rec.PMID, &rec.PMCID, &rec.DOI); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of cached records.
func (d *DB) Count() (int, error) {
	var count int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}
