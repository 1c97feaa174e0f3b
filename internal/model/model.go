package model

import (
	"context"
	"fmt"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleEditor may manage catalog content.
	UserRoleEditor UserRole = "editor"
	// UserRoleAdmin may manage users and catalog content.
	UserRoleAdmin UserRole = "admin"
)

// User represents an administrative user.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an admin authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Question is a single flashcard: a 1-based number within the flattened
// document, a prompt, and the expected answer. Field names follow the
// stored JSON shape.
type Question struct {
	Number   int    `json:"no"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Section groups questions under a category. Section order is
// significant: flattening all sections in sequence yields the canonical
// question ordering of a document.
type Section struct {
	Category  string     `json:"category"`
	Questions []Question `json:"questions"`
}

// QuestionDocument is a titled, ordered collection of sections.
// Immutable once loaded from the catalog.
type QuestionDocument struct {
	Title          string    `json:"title"`
	Sections       []Section `json:"sections"`
	SourceDocument string    `json:"source_document"`
	TotalQuestions int       `json:"total_questions"`
}

// CatalogEntry is one catalog row: a code name plus its document.
type CatalogEntry struct {
	CodeName string           `json:"code_name"`
	Document QuestionDocument `json:"json_file"`
}

// Session is one identity's progress through one assigned document for
// one code name. The pair (Identity, CodeName) is unique. The document
// is embedded at creation and never re-fetched from the catalog.
type Session struct {
	Identity      string           `json:"session"`
	CodeName      string           `json:"code_name"`
	Document      QuestionDocument `json:"current_soal"`
	CurrentNumber int              `json:"current_number"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Completed reports whether the session has passed its last question.
// Position total_questions+1 is the completion sentinel.
func (s Session) Completed() bool {
	return s.CurrentNumber > s.Document.TotalQuestions
}

// Flatten returns the document's questions in canonical order.
func (d QuestionDocument) Flatten() []Question {
	var qs []Question
	for _, sec := range d.Sections {
		qs = append(qs, sec.Questions...)
	}
	return qs
}

// QuestionAt returns the question with the given 1-based flattened
// number, or false if the number is out of range.
func (d QuestionDocument) QuestionAt(n int) (Question, bool) {
	if n < 1 {
		return Question{}, false
	}
	for _, sec := range d.Sections {
		if n <= len(sec.Questions) {
			return sec.Questions[n-1], true
		}
		n -= len(sec.Questions)
	}
	return Question{}, false
}

// CategoryAt returns the category of the section containing the given
// 1-based flattened question number.
func (d QuestionDocument) CategoryAt(n int) string {
	if n < 1 {
		return ""
	}
	for _, sec := range d.Sections {
		if n <= len(sec.Questions) {
			return sec.Category
		}
		n -= len(sec.Questions)
	}
	return ""
}

// Validate checks structural invariants: at least one question,
// total_questions matching the flattened count, and contiguous 1-based
// numbering.
func (d QuestionDocument) Validate() error {
	if d.Title == "" {
		return fmt.Errorf("document has no title")
	}
	qs := d.Flatten()
	if len(qs) == 0 {
		return fmt.Errorf("document %q has no questions", d.Title)
	}
	if d.TotalQuestions != len(qs) {
		return fmt.Errorf("document %q: total_questions is %d but %d questions found",
			d.Title, d.TotalQuestions, len(qs))
	}
	for i, q := range qs {
		if q.Number != i+1 {
			return fmt.Errorf("document %q: question at flattened position %d is numbered %d",
				d.Title, i+1, q.Number)
		}
	}
	return nil
}

// Renumber rewrites question numbers to a contiguous 1-based flattened
// sequence and fixes TotalQuestions.
func (d *QuestionDocument) Renumber() {
	n := 0
	for si := range d.Sections {
		for qi := range d.Sections[si].Questions {
			n++
			d.Sections[si].Questions[qi].Number = n
		}
	}
	d.TotalQuestions = n
}

// DocumentImport is the on-disk shape of a catalog import file: one
// code name with one or more candidate documents.
type DocumentImport struct {
	CodeName  string             `json:"code_name"`
	Documents []QuestionDocument `json:"documents"`
}

// ServerConfig holds runtime server parameters set via CLI flags.
type ServerConfig struct {
	Addr          string
	SecureCookies bool // Set Secure flag on admin cookies (disable for local dev)
	DefaultLang   string
}
