package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ardikafs/kartusoal/internal/model"

	sqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// ErrDuplicateSession signals that a session row for the same
// (identity, code name) pair already exists. Callers are expected to
// re-read the existing row rather than fail.
var ErrDuplicateSession = errors.New("session already exists")

// GetSession returns the session for (identity, codeName), or nil if
// no row exists.
func (s *Store) GetSession(identity, codeName string) (*model.Session, error) {
	var sess model.Session
	var raw string
	err := s.db.QueryRow(
		`SELECT session, code_name, current_soal, current_number, created_at
		 FROM session_soal WHERE session = ? AND code_name = ?`,
		identity, codeName,
	).Scan(&sess.Identity, &sess.CodeName, &raw, &sess.CurrentNumber, &sess.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &sess.Document); err != nil {
		return nil, fmt.Errorf("unmarshal session document: %w", err)
	}
	return &sess, nil
}

// ListSessionsByIdentity returns all sessions belonging to an identity.
func (s *Store) ListSessionsByIdentity(identity string) ([]model.Session, error) {
	rows, err := s.db.Query(
		`SELECT session, code_name, current_soal, current_number, created_at
		 FROM session_soal WHERE session = ? ORDER BY created_at`,
		identity,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

// ListAllSessions returns every session row, newest first.
func (s *Store) ListAllSessions() ([]model.Session, error) {
	rows, err := s.db.Query(
		`SELECT session, code_name, current_soal, current_number, created_at
		 FROM session_soal ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

func scanSessions(rows *sql.Rows) ([]model.Session, error) {
	var sessions []model.Session
	for rows.Next() {
		var sess model.Session
		var raw string
		if err := rows.Scan(&sess.Identity, &sess.CodeName, &raw, &sess.CurrentNumber, &sess.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &sess.Document); err != nil {
			return nil, fmt.Errorf("unmarshal session document: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// InsertSession creates a new session row. Returns ErrDuplicateSession
// if a row for the same (identity, code name) pair already exists.
func (s *Store) InsertSession(sess model.Session) error {
	data, err := json.Marshal(sess.Document)
	if err != nil {
		return fmt.Errorf("marshal session document: %w", err)
	}
	createdAt := sess.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = s.db.Exec(
		`INSERT INTO session_soal (session, code_name, current_soal, current_number, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.Identity, sess.CodeName, string(data), sess.CurrentNumber, createdAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("insert session %s/%s: %w", sess.Identity, sess.CodeName, ErrDuplicateSession)
	}
	return err
}

// UpdateSessionNumber sets current_number for an existing session and
// returns the updated row, or nil if no such session exists.
func (s *Store) UpdateSessionNumber(identity, codeName string, number int) (*model.Session, error) {
	res, err := s.db.Exec(
		`UPDATE session_soal SET current_number = ? WHERE session = ? AND code_name = ?`,
		number, identity, codeName,
	)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}
	return s.GetSession(identity, codeName)
}

// DeleteSession removes the session for (identity, codeName). Deleting
// a missing row is not an error.
func (s *Store) DeleteSession(identity, codeName string) error {
	_, err := s.db.Exec(
		`DELETE FROM session_soal WHERE session = ? AND code_name = ?`,
		identity, codeName,
	)
	return err
}

// SessionCount returns the number of session rows.
func (s *Store) SessionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM session_soal`).Scan(&count)
	return count, err
}

// isUniqueViolation reports whether err is a sqlite unique or primary
// key constraint failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
