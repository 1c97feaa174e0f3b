package handler

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	appI18n "github.com/ardikafs/kartusoal/internal/i18n"
	"github.com/ardikafs/kartusoal/internal/model"
)

const sessionCookieName = "admin_session"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidJSON"))
		return
	}

	user, err := h.store.GetUserByUsername(req.Username)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "LoginError"))
		return
	}
	if user == nil || !user.Active {
		respondError(w, http.StatusUnauthorized, appI18n.T(r.Context(), "LoginError"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, appI18n.T(r.Context(), "LoginError"))
		return
	}

	token, err := h.store.CreateAuthSession(user.ID)
	if err != nil {
		slog.Error("failed to create auth session", "error", err)
		respondError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "LoginError"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   24 * 60 * 60,
	})
	slog.Info("user logged in", "username", user.Username, "role", user.Role)
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "role": user.Role})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := h.store.DeleteAuthSession(cookie.Value); err != nil {
			slog.Error("failed to delete auth session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// requireAuth resolves the session cookie to a user and stores it in
// the request context. Unauthenticated requests get a JSON 401.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			respondError(w, http.StatusUnauthorized, appI18n.T(r.Context(), "Unauthorized"))
			return
		}
		authSess, err := h.store.GetAuthSession(cookie.Value)
		if err != nil {
			slog.Error("auth session lookup failed", "error", err)
			respondError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "Unauthorized"))
			return
		}
		if authSess == nil {
			respondError(w, http.StatusUnauthorized, appI18n.T(r.Context(), "Unauthorized"))
			return
		}
		user, err := h.store.GetUserByID(authSess.UserID)
		if err != nil || user == nil || !user.Active {
			respondError(w, http.StatusUnauthorized, appI18n.T(r.Context(), "Unauthorized"))
			return
		}
		next.ServeHTTP(w, r.WithContext(model.ContextWithUser(r.Context(), user)))
	})
}

// requireRole guards a route behind one of the given roles. It must
// run after requireAuth.
func requireRole(roles ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := model.UserFromContext(r.Context())
			if user == nil {
				respondError(w, http.StatusUnauthorized, appI18n.T(r.Context(), "Unauthorized"))
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondError(w, http.StatusForbidden, appI18n.T(r.Context(), "Forbidden"))
		})
	}
}
