package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ardikafs/kartusoal/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS soal (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code_name TEXT NOT NULL,
		json_file TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_soal_code_name ON soal(code_name);

	CREATE TABLE IF NOT EXISTS session_soal (
		session TEXT NOT NULL,
		code_name TEXT NOT NULL,
		current_soal TEXT NOT NULL,
		current_number INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (session, code_name)
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'editor',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS import_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		imported_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertDocument stores a question document under a code name.
func (s *Store) InsertDocument(codeName string, doc model.QuestionDocument) (int64, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("marshal document: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO soal (code_name, json_file) VALUES (?, ?)`,
		codeName, string(data),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListDocuments returns all catalog entries for a code name.
func (s *Store) ListDocuments(codeName string) ([]model.CatalogEntry, error) {
	rows, err := s.db.Query(
		`SELECT code_name, json_file FROM soal WHERE code_name = ? ORDER BY id`, codeName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []model.CatalogEntry
	for rows.Next() {
		var e model.CatalogEntry
		var raw string
		if err := rows.Scan(&e.CodeName, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &e.Document); err != nil {
			return nil, fmt.Errorf("unmarshal document for %q: %w", e.CodeName, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListCodeNames returns the distinct code names in the catalog, sorted.
func (s *Store) ListCodeNames() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT code_name FROM soal ORDER BY code_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DocumentCount returns the number of documents in the catalog.
func (s *Store) DocumentCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM soal`).Scan(&count)
	return count, err
}
