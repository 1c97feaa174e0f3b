package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	appI18n "github.com/ardikafs/kartusoal/internal/i18n"
	"github.com/ardikafs/kartusoal/internal/model"
	"github.com/ardikafs/kartusoal/internal/session"
	"github.com/ardikafs/kartusoal/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	if err := appI18n.Init("en"); err != nil {
		t.Fatalf("i18n init: %v", err)
	}
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	h := New(st, session.NewService(st), model.ServerConfig{DefaultLang: "en"})
	r := chi.NewRouter()
	r.Use(appI18n.Middleware())
	h.Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, st
}

func seedCatalog(t *testing.T, st *store.Store, codeName, title string, n int) {
	t.Helper()
	sec := model.Section{Category: "umum"}
	for i := 1; i <= n; i++ {
		sec.Questions = append(sec.Questions, model.Question{
			Number:   i,
			Question: fmt.Sprintf("pertanyaan %d", i),
			Answer:   fmt.Sprintf("jawaban %d", i),
		})
	}
	doc := model.QuestionDocument{
		Title:          title,
		SourceDocument: title + ".pdf",
		TotalQuestions: n,
		Sections:       []model.Section{sec},
	}
	if _, err := st.InsertDocument(codeName, doc); err != nil {
		t.Fatalf("seedCatalog: %v", err)
	}
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, out
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := getJSON(t, srv.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestSessionStart(t *testing.T) {
	srv, st := newTestServer(t)
	seedCatalog(t, st, "alpha", "Dokumen A", 3)

	resp, body := postJSON(t, srv.URL+"/api/session/start",
		map[string]string{"session_id": "dev1", "code_name": "alpha"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if body["success"] != true || body["isNew"] != true {
		t.Errorf("first start: %v", body)
	}
	sess := body["session"].(map[string]any)
	if sess["current_number"] != float64(1) {
		t.Errorf("current_number = %v", sess["current_number"])
	}
	doc := sess["current_soal"].(map[string]any)
	if doc["title"] != "Dokumen A" {
		t.Errorf("title = %v", doc["title"])
	}

	// Second start resumes.
	resp, body = postJSON(t, srv.URL+"/api/session/start",
		map[string]string{"session_id": "dev1", "code_name": "alpha"})
	if resp.StatusCode != http.StatusOK || body["isNew"] != false {
		t.Errorf("resume: status = %d, body = %v", resp.StatusCode, body)
	}
}

func TestSessionStartErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
	}{
		{"missing fields", map[string]string{"session_id": "dev1"}, http.StatusBadRequest},
		{"unknown code name", map[string]string{"session_id": "dev1", "code_name": "ghost"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postJSON(t, srv.URL+"/api/session/start", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if _, ok := body["error"]; !ok {
				t.Errorf("expected error shape, got %v", body)
			}
		})
	}
}

func TestSessionVerify(t *testing.T) {
	srv, st := newTestServer(t)

	// Empty result: HTTP 200 with success=false, valid=false.
	resp, body := postJSON(t, srv.URL+"/api/session/verify",
		map[string]string{"session_id": "dev1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["success"] != false || body["valid"] != false {
		t.Errorf("empty verify: %v", body)
	}
	if body["message"] == "" {
		t.Error("empty verify should carry a message")
	}

	seedCatalog(t, st, "alpha", "Dokumen A", 3)
	postJSON(t, srv.URL+"/api/session/start",
		map[string]string{"session_id": "dev1", "code_name": "alpha"})

	resp, body = postJSON(t, srv.URL+"/api/session/verify",
		map[string]string{"session_id": "dev1"})
	if resp.StatusCode != http.StatusOK || body["valid"] != true {
		t.Fatalf("verify: status = %d, body = %v", resp.StatusCode, body)
	}
	sessions := body["sessions"].([]any)
	if len(sessions) != 1 {
		t.Errorf("sessions = %d, want 1", len(sessions))
	}
}

func TestSessionUpdate(t *testing.T) {
	srv, st := newTestServer(t)
	seedCatalog(t, st, "alpha", "Dokumen A", 3)
	postJSON(t, srv.URL+"/api/session/start",
		map[string]string{"session_id": "dev1", "code_name": "alpha"})

	resp, body := postJSON(t, srv.URL+"/api/session/update",
		map[string]any{"session": "dev1", "code_name": "alpha", "current_number": 2})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	sess := body["session"].(map[string]any)
	if sess["current_number"] != float64(2) {
		t.Errorf("current_number = %v", sess["current_number"])
	}

	// Skipping ahead is rejected.
	resp, _ = postJSON(t, srv.URL+"/api/session/update",
		map[string]any{"session": "dev1", "code_name": "alpha", "current_number": 5})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("skip: status = %d, want 400", resp.StatusCode)
	}

	// Unknown session is 404.
	resp, _ = postJSON(t, srv.URL+"/api/session/update",
		map[string]any{"session": "ghost", "code_name": "alpha", "current_number": 2})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing: status = %d, want 404", resp.StatusCode)
	}

	// Omitted current_number is 400, even though 0 would also be invalid.
	resp, _ = postJSON(t, srv.URL+"/api/session/update",
		map[string]any{"session": "dev1", "code_name": "alpha"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("omitted number: status = %d, want 400", resp.StatusCode)
	}
}

func TestSessionDelete(t *testing.T) {
	srv, st := newTestServer(t)
	seedCatalog(t, st, "alpha", "Dokumen A", 3)
	postJSON(t, srv.URL+"/api/session/start",
		map[string]string{"session_id": "dev1", "code_name": "alpha"})

	resp, body := postJSON(t, srv.URL+"/api/session/delete",
		map[string]string{"session_id": "dev1", "code_name": "alpha"})
	if resp.StatusCode != http.StatusOK || body["success"] != true {
		t.Fatalf("delete: status = %d, body = %v", resp.StatusCode, body)
	}

	// Deleting again still succeeds.
	resp, _ = postJSON(t, srv.URL+"/api/session/delete",
		map[string]string{"session_id": "dev1", "code_name": "alpha"})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("second delete: status = %d", resp.StatusCode)
	}
}

func TestListDocuments(t *testing.T) {
	srv, st := newTestServer(t)
	seedCatalog(t, st, "alpha", "Dokumen A", 3)
	seedCatalog(t, st, "alpha", "Dokumen B", 2)

	resp, body := getJSON(t, srv.URL+"/api/soal/alpha")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	data := body["data"].([]any)
	if len(data) != 2 {
		t.Errorf("data = %d entries, want 2", len(data))
	}
	entry := data[0].(map[string]any)
	if entry["code_name"] != "alpha" {
		t.Errorf("code_name = %v", entry["code_name"])
	}
	if _, ok := entry["json_file"]; !ok {
		t.Error("catalog entry missing json_file")
	}

	resp, _ = getJSON(t, srv.URL+"/api/soal/ghost")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown code name: status = %d, want 404", resp.StatusCode)
	}
}

func TestListCodeNames(t *testing.T) {
	srv, st := newTestServer(t)

	resp, body := getJSON(t, srv.URL+"/api/codenames")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(body["data"].([]any)) != 0 {
		t.Errorf("expected empty list, got %v", body["data"])
	}

	seedCatalog(t, st, "beta", "Dokumen B", 2)
	seedCatalog(t, st, "alpha", "Dokumen A", 3)

	_, body = getJSON(t, srv.URL+"/api/codenames")
	data := body["data"].([]any)
	if len(data) != 2 || data[0] != "alpha" || data[1] != "beta" {
		t.Errorf("code names = %v", data)
	}
}

func seedAdminUser(t *testing.T, st *store.Store, role model.UserRole) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("rahasia"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	_, err = st.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Admin",
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
}

// adminClient logs in and returns a client carrying the session cookie.
func adminClient(t *testing.T, srv *httptest.Server) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	client := &http.Client{Jar: jar}
	data, _ := json.Marshal(map[string]string{"username": "admin", "password": "rahasia"})
	resp, err := client.Post(srv.URL+"/api/admin/login", "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	return client
}

func TestAdminLoginRejectsBadPassword(t *testing.T) {
	srv, st := newTestServer(t)
	seedAdminUser(t, st, model.UserRoleAdmin)

	resp, body := postJSON(t, srv.URL+"/api/admin/login",
		map[string]string{"username": "admin", "password": "salah"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401, body = %v", resp.StatusCode, body)
	}
}

func TestAdminUploadRequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := postJSON(t, srv.URL+"/api/admin/soal",
		map[string]any{"code_name": "alpha", "documents": []any{}})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAdminUpload(t *testing.T) {
	srv, st := newTestServer(t)
	seedAdminUser(t, st, model.UserRoleAdmin)
	client := adminClient(t, srv)

	doc := model.QuestionDocument{
		Title:          "Dokumen Upload",
		TotalQuestions: 2,
		Sections: []model.Section{{
			Category: "umum",
			Questions: []model.Question{
				{Number: 1, Question: "q1", Answer: "a1"},
				{Number: 2, Question: "q2", Answer: "a2"},
			},
		}},
	}
	payload, _ := json.Marshal(model.DocumentImport{
		CodeName:  "alpha",
		Documents: []model.QuestionDocument{doc},
	})
	resp, err := client.Post(srv.URL+"/api/admin/soal", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}

	entries, err := st.ListDocuments("alpha")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(entries) != 1 || entries[0].Document.Title != "Dokumen Upload" {
		t.Errorf("catalog after upload: %+v", entries)
	}

	// A structurally broken document is rejected up front.
	bad := doc
	bad.TotalQuestions = 99
	payload, _ = json.Marshal(model.DocumentImport{
		CodeName:  "alpha",
		Documents: []model.QuestionDocument{bad},
	})
	resp, err = client.Post(srv.URL+"/api/admin/soal", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("upload bad: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad document status = %d, want 400", resp.StatusCode)
	}
}

func TestAdminSessions(t *testing.T) {
	srv, st := newTestServer(t)
	seedAdminUser(t, st, model.UserRoleAdmin)
	seedCatalog(t, st, "alpha", "Dokumen A", 3)
	postJSON(t, srv.URL+"/api/session/start",
		map[string]string{"session_id": "dev1", "code_name": "alpha"})

	client := adminClient(t, srv)
	resp, err := client.Get(srv.URL + "/api/admin/sessions")
	if err != nil {
		t.Fatalf("GET sessions: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data := body["data"].(map[string]any)
	if data["count"] != float64(1) {
		t.Errorf("count = %v, want 1", data["count"])
	}
}

func TestLocalizedErrorMessage(t *testing.T) {
	srv, _ := newTestServer(t)

	data, _ := json.Marshal(map[string]string{"session_id": "dev1", "code_name": "ghost"})
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/session/start", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "id")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "Tidak ada soal untuk code_name ini" {
		t.Errorf("localized error = %v", body["error"])
	}
}
