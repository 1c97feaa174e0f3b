package handler

import (
	"log/slog"
	"net/http"

	appI18n "github.com/ardikafs/kartusoal/internal/i18n"
	"github.com/ardikafs/kartusoal/internal/model"
)

// handleUploadDocuments ingests a catalog import payload: one code
// name with one or more question documents. Every document is
// validated before anything is written.
func (h *Handler) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	var imp model.DocumentImport
	if err := parseJSONBody(r, &imp); err != nil {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidJSON"))
		return
	}
	if imp.CodeName == "" {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "MissingCodeName"))
		return
	}
	if len(imp.Documents) == 0 {
		respondError(w, http.StatusBadRequest, appI18n.Td(r.Context(), "InvalidDocument",
			map[string]any{"Reason": "no documents"}))
		return
	}
	for _, doc := range imp.Documents {
		if err := doc.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, appI18n.Td(r.Context(), "InvalidDocument",
				map[string]any{"Reason": err.Error()}))
			return
		}
	}

	for _, doc := range imp.Documents {
		if _, err := h.store.InsertDocument(imp.CodeName, doc); err != nil {
			slog.Error("failed to insert document",
				"code_name", imp.CodeName, "title", doc.Title, "error", err)
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	user := model.UserFromContext(r.Context())
	slog.Info("documents uploaded",
		"code_name", imp.CodeName, "count", len(imp.Documents), "user", user.Username)
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": appI18n.Td(r.Context(), "UploadSuccess",
			map[string]any{"Count": len(imp.Documents), "CodeName": imp.CodeName}),
	})
}

// handleAdminSessions returns every quiz session row for inspection.
func (h *Handler) handleAdminSessions(w http.ResponseWriter, r *http.Request) {
	export, err := h.store.ExportAllSessions()
	if err != nil {
		slog.Error("failed to export sessions", "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": export})
}
