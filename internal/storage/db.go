package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"rostersync/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS documents (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  path TEXT NOT NULL,
  hash TEXT NOT NULL,
  pages INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'extracted',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(hash)
);

CREATE TABLE IF NOT EXISTS records (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  documentId INTEGER NOT NULL,
  fullName TEXT NOT NULL,
  shortName TEXT NOT NULL,
  birthday TEXT,
  status TEXT NOT NULL,
  confidence TEXT NOT NULL,
  rawLine TEXT NOT NULL,
  sourceLine INTEGER NOT NULL,
  age INTEGER,
  nameValid INTEGER NOT NULL,
  birthdayValid INTEGER NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(documentId) REFERENCES documents(id)
);
CREATE INDEX IF NOT EXISTS idx_records_document ON records(documentId);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  documentId INTEGER,
  statsJson TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(documentId) REFERENCES documents(id)
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertDocument(path, hash string, pages int, status string) (internal.DocumentRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO documents (path, hash, pages, status)
VALUES (?, ?, ?, ?)
ON CONFLICT(hash) DO UPDATE SET
  path=excluded.path,
  pages=excluded.pages,
  status=excluded.status,
  updatedAt=CURRENT_TIMESTAMP
`, path, hash, pages, status)
	if err != nil {
		return internal.DocumentRow{}, err
	}

	row, err := d.GetDocumentByHash(hash)
	if err != nil {
		return internal.DocumentRow{}, err
	}
	if row == nil {
		return internal.DocumentRow{}, errors.New("failed to upsert document")
	}
	return *row, nil
}

func (d *DB) GetDocumentByHash(hash string) (*internal.DocumentRow, error) {
	var row internal.DocumentRow
	err := d.conn.QueryRow(`
SELECT id, path, hash, pages, status, createdAt
FROM documents WHERE hash = ?
`, hash).Scan(&row.ID, &row.Path, &row.Hash, &row.Pages, &row.Status, &row.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) UpdateDocumentStatus(documentID int, status string) error {
	_, err := d.conn.Exec(`UPDATE documents SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, documentID)
	return err
}

// ReplaceRecords swaps a document's stored records for a fresh extraction.
func (d *DB) ReplaceRecords(documentID int, records []internal.FinalRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM records WHERE documentId = ?`, documentID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO records (documentId, fullName, shortName, birthday, status, confidence, rawLine, sourceLine, age, nameValid, birthdayValid)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(
			documentID, rec.FullName, rec.ShortName, rec.Birthday,
			string(rec.Status), string(rec.Confidence), rec.RawLine, rec.SourceLine,
			rec.Age, boolToInt(rec.NameValid), boolToInt(rec.BirthdayValid),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListRecords(documentID int) ([]internal.FinalRecord, error) {
	rows, err := d.conn.Query(`
SELECT fullName, shortName, birthday, status, confidence, rawLine, sourceLine, age, nameValid, birthdayValid
FROM records WHERE documentId = ? ORDER BY id ASC
`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.FinalRecord
	for rows.Next() {
		var rec internal.FinalRecord
		var status, confidence string
		var nameValid, birthdayValid int
		if err := rows.Scan(
			&rec.FullName, &rec.ShortName, &rec.Birthday, &status, &confidence,
			&rec.RawLine, &rec.SourceLine, &rec.Age, &nameValid, &birthdayValid,
		); err != nil {
			return nil, err
		}
		rec.Status = internal.Status(status)
		rec.Confidence = internal.Confidence(confidence)
		rec.NameValid = nameValid != 0
		rec.BirthdayValid = birthdayValid != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (d *DB) InsertRun(traceID string, documentID int, stats internal.RunStats, timings map[string]float64) error {
	statsJSON, _ := json.Marshal(stats)
	timingsJSON, _ := json.Marshal(timings)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, documentId, statsJson, timingsJson) VALUES (?, ?, ?, ?)`,
		traceID, documentID, string(statsJSON), string(timingsJSON))
	return err
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
