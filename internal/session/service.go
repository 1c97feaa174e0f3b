// Package session implements the quiz session lifecycle: start-or-resume,
// verify, advance, and delete. It is the only writer of session rows;
// handlers never touch the store's session table directly.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/ardikafs/kartusoal/internal/model"
	"github.com/ardikafs/kartusoal/internal/store"
)

// Service orchestrates session rows against the catalog.
type Service struct {
	store *store.Store

	// pick selects an index in [0, n). Replaceable in tests.
	pick func(n int) int
}

// NewService creates a lifecycle service over the given store.
func NewService(s *store.Store) *Service {
	return &Service{
		store: s,
		pick:  rand.IntN,
	}
}

// Start returns the session for (identity, codeName), creating one if
// none exists. The returned bool is true only when a new row was
// created. Start is idempotent: repeated calls never reset progress or
// re-roll the assigned document.
func (s *Service) Start(identity, codeName string) (model.Session, bool, error) {
	if identity == "" || codeName == "" {
		return model.Session{}, false, validationf("identity and code name are required")
	}

	existing, err := s.store.GetSession(identity, codeName)
	if err != nil {
		return model.Session{}, false, fmt.Errorf("look up session: %w", err)
	}
	if existing != nil {
		return *existing, false, nil
	}

	entries, err := s.store.ListDocuments(codeName)
	if err != nil {
		return model.Session{}, false, fmt.Errorf("list documents: %w", err)
	}
	if len(entries) == 0 {
		return model.Session{}, false, fmt.Errorf("code name %q: %w", codeName, ErrNotFound)
	}

	// The only randomization point: the document is assigned once at
	// creation and never re-rolled on resume.
	chosen := entries[s.pick(len(entries))].Document

	sess := model.Session{
		Identity:      identity,
		CodeName:      codeName,
		Document:      chosen,
		CurrentNumber: 1,
	}
	err = s.store.InsertSession(sess)
	if err == nil {
		created, err := s.store.GetSession(identity, codeName)
		if err != nil {
			return model.Session{}, false, fmt.Errorf("read back session: %w", err)
		}
		if created == nil {
			return model.Session{}, false, fmt.Errorf("session vanished after insert")
		}
		return *created, true, nil
	}

	// A concurrent caller won the insert race. Resume their row instead
	// of surfacing a conflict.
	if isDuplicate(err) {
		slog.Debug("concurrent session insert, resuming existing row",
			"identity", identity, "code_name", codeName)
		winner, err := s.store.GetSession(identity, codeName)
		if err != nil {
			return model.Session{}, false, fmt.Errorf("fetch existing session: %w", err)
		}
		if winner == nil {
			return model.Session{}, false, fmt.Errorf("duplicate session not found on re-read")
		}
		return *winner, false, nil
	}

	return model.Session{}, false, fmt.Errorf("insert session: %w", err)
}

// Verify returns all sessions belonging to an identity. The bool is
// false iff the identity has no sessions; absence is not an error.
func (s *Service) Verify(identity string) ([]model.Session, bool, error) {
	if identity == "" {
		return nil, false, validationf("identity is required")
	}
	sessions, err := s.store.ListSessionsByIdentity(identity)
	if err != nil {
		return nil, false, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, len(sessions) > 0, nil
}

// Advance moves the session to newNumber and returns the updated row.
// The session must already exist. newNumber must be the current
// position or the next one, and may not exceed total_questions+1 (the
// completion sentinel). The assigned document is never touched.
func (s *Service) Advance(identity, codeName string, newNumber int) (model.Session, error) {
	if identity == "" || codeName == "" {
		return model.Session{}, validationf("identity and code name are required")
	}
	if newNumber < 1 {
		return model.Session{}, validationf("position %d is out of range", newNumber)
	}

	existing, err := s.store.GetSession(identity, codeName)
	if err != nil {
		return model.Session{}, fmt.Errorf("look up session: %w", err)
	}
	if existing == nil {
		return model.Session{}, fmt.Errorf("session %s/%s: %w", identity, codeName, ErrNotFound)
	}

	if newNumber != existing.CurrentNumber && newNumber != existing.CurrentNumber+1 {
		return model.Session{}, validationf("position %d is not reachable from %d",
			newNumber, existing.CurrentNumber)
	}
	if newNumber > existing.Document.TotalQuestions+1 {
		return model.Session{}, validationf("position %d exceeds document length %d",
			newNumber, existing.Document.TotalQuestions)
	}

	updated, err := s.store.UpdateSessionNumber(identity, codeName, newNumber)
	if err != nil {
		return model.Session{}, fmt.Errorf("update session: %w", err)
	}
	if updated == nil {
		// Deleted between the read and the write.
		return model.Session{}, fmt.Errorf("session %s/%s: %w", identity, codeName, ErrNotFound)
	}
	return *updated, nil
}

// Delete removes the session for (identity, codeName). Deleting a
// missing session succeeds; callers clear their local identity state
// regardless of the outcome.
func (s *Service) Delete(identity, codeName string) error {
	if identity == "" || codeName == "" {
		return validationf("identity and code name are required")
	}
	if err := s.store.DeleteSession(identity, codeName); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, store.ErrDuplicateSession)
}
