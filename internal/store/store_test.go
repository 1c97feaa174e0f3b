package store

import (
	"testing"

	"github.com/ardikafs/kartusoal/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testDocument(title string, n int) model.QuestionDocument {
	sec := model.Section{Category: "umum"}
	for i := 1; i <= n; i++ {
		sec.Questions = append(sec.Questions, model.Question{
			Number:   i,
			Question: "pertanyaan",
			Answer:   "jawaban",
		})
	}
	return model.QuestionDocument{
		Title:          title,
		SourceDocument: title + ".pdf",
		TotalQuestions: n,
		Sections:       []model.Section{sec},
	}
}

func insertTestDocument(t *testing.T, s *Store, codeName, title string, n int) {
	t.Helper()
	if _, err := s.InsertDocument(codeName, testDocument(title, n)); err != nil {
		t.Fatalf("insertTestDocument: %v", err)
	}
}

func TestDocumentCatalog(t *testing.T) {
	s := newTestStore(t)

	count, err := s.DocumentCount()
	if err != nil {
		t.Fatalf("DocumentCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 documents, got %d", count)
	}

	entries, err := s.ListDocuments("alpha")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}

	insertTestDocument(t, s, "alpha", "Dokumen A", 3)
	insertTestDocument(t, s, "alpha", "Dokumen B", 5)
	insertTestDocument(t, s, "beta", "Dokumen C", 2)

	entries, err = s.ListDocuments("alpha")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for alpha, got %d", len(entries))
	}
	if entries[0].Document.Title != "Dokumen A" {
		t.Errorf("expected first title 'Dokumen A', got %q", entries[0].Document.Title)
	}
	if entries[1].Document.TotalQuestions != 5 {
		t.Errorf("expected 5 questions, got %d", entries[1].Document.TotalQuestions)
	}

	count, err = s.DocumentCount()
	if err != nil {
		t.Fatalf("DocumentCount: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
}

func TestListCodeNames(t *testing.T) {
	s := newTestStore(t)

	names, err := s.ListCodeNames()
	if err != nil {
		t.Fatalf("ListCodeNames: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected no code names, got %d", len(names))
	}

	insertTestDocument(t, s, "beta", "B", 1)
	insertTestDocument(t, s, "alpha", "A1", 1)
	insertTestDocument(t, s, "alpha", "A2", 1)

	names, err = s.ListCodeNames()
	if err != nil {
		t.Fatalf("ListCodeNames: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 distinct code names, got %d", len(names))
	}
	if names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("expected sorted [alpha beta], got %v", names)
	}
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	id, err := s.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: "hash",
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, err := s.GetUserByID(id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if u == nil || u.Username != "admin" {
		t.Fatalf("expected admin user, got %+v", u)
	}

	u, err = s.GetUserByUsername("admin")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil || u.Role != model.UserRoleAdmin {
		t.Fatalf("expected admin role, got %+v", u)
	}

	u, err = s.GetUserByUsername("nobody")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil for unknown user, got %+v", u)
	}
}

func TestAuthSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	id, err := s.CreateUser(model.User{Username: "admin", PasswordHash: "h", Role: model.UserRoleAdmin, Active: true})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	token, err := s.CreateAuthSession(id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.UserID != id {
		t.Fatalf("expected session for user %d, got %+v", id, sess)
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, err = s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession after delete: %v", err)
	}
	if sess != nil {
		t.Errorf("expected nil after delete, got %+v", sess)
	}
}

func TestImportedFileHash(t *testing.T) {
	s := newTestStore(t)

	hash, err := s.GetImportedFileHash("questions/a.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "" {
		t.Fatalf("expected empty hash, got %q", hash)
	}

	if err := s.SetImportedFileHash("questions/a.json", "abc123"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	hash, err = s.GetImportedFileHash("questions/a.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "abc123" {
		t.Errorf("expected abc123, got %q", hash)
	}

	// Re-import with a new hash overwrites.
	if err := s.SetImportedFileHash("questions/a.json", "def456"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	hash, _ = s.GetImportedFileHash("questions/a.json")
	if hash != "def456" {
		t.Errorf("expected def456, got %q", hash)
	}
}
