// Package handler exposes the HTTP API: the public session and catalog
// endpoints consumed by the flashcard clients, and the authenticated
// admin surface for catalog management.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ardikafs/kartusoal/internal/model"
	"github.com/ardikafs/kartusoal/internal/session"
	"github.com/ardikafs/kartusoal/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store   *store.Store
	service *session.Service
	config  model.ServerConfig
}

// New creates a new Handler.
func New(s *store.Store, svc *session.Service, cfg model.ServerConfig) *Handler {
	return &Handler{store: s, service: svc, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Post("/session/start", h.handleSessionStart)
		api.Post("/session/verify", h.handleSessionVerify)
		api.Post("/session/update", h.handleSessionUpdate)
		api.Post("/session/delete", h.handleSessionDelete)

		api.Get("/soal/{codeName}", h.handleListDocuments)
		api.Get("/codenames", h.handleListCodeNames)

		api.Post("/admin/login", h.handleLogin)
		api.Post("/admin/logout", h.handleLogout)
		api.Group(func(priv chi.Router) {
			priv.Use(h.requireAuth)
			priv.Get("/admin/sessions", h.handleAdminSessions)
			priv.With(requireRole(model.UserRoleAdmin, model.UserRoleEditor)).
				Post("/admin/soal", h.handleUploadDocuments)
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// respondJSON writes a JSON response body with the given status.
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes the API's error shape: {"error": message}.
func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}

// parseJSONBody decodes the request body into v.
func parseJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// CORS allows cross-origin requests from browser frontends.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept-Language")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
