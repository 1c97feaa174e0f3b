package store

import (
	"fmt"
	"time"

	"github.com/ardikafs/kartusoal/internal/model"
)

// ExportAllSessions builds an export snapshot of every session row.
func (s *Store) ExportAllSessions() (model.SessionExport, error) {
	sessions, err := s.ListAllSessions()
	if err != nil {
		return model.SessionExport{}, fmt.Errorf("list sessions: %w", err)
	}

	var results []model.SessionResult
	for _, sess := range sessions {
		results = append(results, model.SessionResult{
			Identity:       sess.Identity,
			CodeName:       sess.CodeName,
			DocumentTitle:  sess.Document.Title,
			TotalQuestions: sess.Document.TotalQuestions,
			CurrentNumber:  sess.CurrentNumber,
			Completed:      sess.Completed(),
			CreatedAt:      sess.CreatedAt,
		})
	}

	return model.SessionExport{
		ExportedAt: time.Now().UTC(),
		Count:      len(results),
		Sessions:   results,
	}, nil
}
