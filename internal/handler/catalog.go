package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/ardikafs/kartusoal/internal/i18n"
)

func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	codeName := chi.URLParam(r, "codeName")
	if codeName == "" {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "MissingCodeName"))
		return
	}

	entries, err := h.store.ListDocuments(codeName)
	if err != nil {
		slog.Error("list documents failed", "code_name", codeName, "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(entries) == 0 {
		respondError(w, http.StatusNotFound, appI18n.T(r.Context(), "NoDataFound"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": entries})
}

func (h *Handler) handleListCodeNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.ListCodeNames()
	if err != nil {
		slog.Error("list code names failed", "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if names == nil {
		names = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": names})
}
