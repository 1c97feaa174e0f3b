package handler

import (
	"errors"
	"log/slog"
	"net/http"

	appI18n "github.com/ardikafs/kartusoal/internal/i18n"
	"github.com/ardikafs/kartusoal/internal/model"
	"github.com/ardikafs/kartusoal/internal/session"
)

type startRequest struct {
	SessionID string `json:"session_id"`
	CodeName  string `json:"code_name"`
}

type startResponse struct {
	Success bool          `json:"success"`
	Session model.Session `json:"session"`
	IsNew   bool          `json:"isNew"`
}

func (h *Handler) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidJSON"))
		return
	}
	if req.SessionID == "" || req.CodeName == "" {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "MissingSessionAndCodeName"))
		return
	}

	sess, isNew, err := h.service.Start(req.SessionID, req.CodeName)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, appI18n.T(r.Context(), "NoSoalFound"))
			return
		}
		slog.Error("session start failed", "code_name", req.CodeName, "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, startResponse{Success: true, Session: sess, IsNew: isNew})
}

type verifyRequest struct {
	SessionID string `json:"session_id"`
}

func (h *Handler) handleSessionVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidJSON"))
		return
	}
	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "MissingSessionID"))
		return
	}

	sessions, valid, err := h.service.Verify(req.SessionID)
	if err != nil {
		slog.Error("session verify failed", "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// No sessions is a representable outcome, not a failure.
	if !valid {
		respondJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"valid":   false,
			"message": appI18n.T(r.Context(), "NoSessionsFound"),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"valid":    true,
		"sessions": sessions,
	})
}

type updateRequest struct {
	Session       string `json:"session"`
	CodeName      string `json:"code_name"`
	CurrentNumber *int   `json:"current_number"`
}

func (h *Handler) handleSessionUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidJSON"))
		return
	}
	if req.Session == "" || req.CodeName == "" || req.CurrentNumber == nil {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "MissingUpdateFields"))
		return
	}

	sess, err := h.service.Advance(req.Session, req.CodeName, *req.CurrentNumber)
	if err != nil {
		switch {
		case session.IsValidation(err):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, session.ErrNotFound):
			respondError(w, http.StatusNotFound, appI18n.T(r.Context(), "SessionNotFound"))
		default:
			slog.Error("session update failed", "code_name", req.CodeName, "error", err)
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "session": sess})
}

type deleteRequest struct {
	SessionID string `json:"session_id"`
	CodeName  string `json:"code_name"`
}

func (h *Handler) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidJSON"))
		return
	}
	if req.SessionID == "" || req.CodeName == "" {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "MissingSessionAndCodeName"))
		return
	}

	if err := h.service.Delete(req.SessionID, req.CodeName); err != nil {
		slog.Error("session delete failed", "code_name", req.CodeName, "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": appI18n.T(r.Context(), "SessionDeleted"),
	})
}
