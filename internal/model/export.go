package model

import "time"

// SessionExport is the top-level JSON structure for session export.
type SessionExport struct {
	ExportedAt time.Time       `json:"exported_at"`
	Count      int             `json:"count"`
	Sessions   []SessionResult `json:"sessions"`
}

// SessionResult holds one session row for export.
type SessionResult struct {
	Identity       string    `json:"session"`
	CodeName       string    `json:"code_name"`
	DocumentTitle  string    `json:"document_title"`
	TotalQuestions int       `json:"total_questions"`
	CurrentNumber  int       `json:"current_number"`
	Completed      bool      `json:"completed"`
	CreatedAt      time.Time `json:"created_at"`
}
