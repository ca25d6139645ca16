package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/ontriq-site/internal/entity"
	"github.com/xavierca1/ontriq-site/internal/infra/identity"
	"github.com/xavierca1/ontriq-site/internal/infra/session"
	"github.com/xavierca1/ontriq-site/internal/usecase"
)

type SignInService interface {
	SignIn(ctx context.Context, email, password string) (*entity.User, error)
}

// SessionService is satisfied by *session.Manager.
type SessionService interface {
	Issue(ctx context.Context, userID, email string) (string, *session.Session, error)
	Resolve(ctx context.Context, token string) (*session.Session, error)
	Revoke(ctx context.Context, token string) error
	TTL() time.Duration
}

// BoardReleaser drops per-session board state on logout.
type BoardReleaser interface {
	Remove(sessionID string)
}

type AuthHandler struct {
	Identity     SignInService
	Sessions     SessionService
	Boards       BoardReleaser
	SecureCookie bool
	Logger       *zap.Logger
}

func NewAuthHandler(id SignInService, sessions SessionService, boards BoardReleaser, secure bool, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		Identity:     id,
		Sessions:     sessions,
		Boards:       boards,
		SecureCookie: secure,
		Logger:       logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := usecase.ValidationErrors(usecase.ValidateLoginInput(req.Email, req.Password)); err != nil {
		writeFail(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.Identity.SignIn(r.Context(), req.Email, req.Password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		writeFail(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}
	if err != nil {
		h.Logger.Error("sign-in failed", zap.Error(err))
		writeFail(w, http.StatusInternalServerError, "Sign-in is unavailable. Please try again.")
		return
	}

	token, sess, err := h.Sessions.Issue(r.Context(), user.ID, user.Email)
	if err != nil {
		h.Logger.Error("session issue failed", zap.String("user_id", user.ID), zap.Error(err))
		writeFail(w, http.StatusInternalServerError, "Sign-in is unavailable. Please try again.")
		return
	}

	http.SetCookie(w, h.cookie(token, int(h.Sessions.TTL().Seconds())))
	h.Logger.Info("admin signed in", zap.String("user_id", user.ID), zap.String("session_id", sess.ID))
	writeJSON(w, http.StatusOK, Response{OK: true})
}

// Logout always succeeds; an unknown or expired cookie is simply cleared.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(session.CookieName); err == nil && c.Value != "" {
		if sess, err := h.Sessions.Resolve(r.Context(), c.Value); err == nil && h.Boards != nil {
			h.Boards.Remove(sess.ID)
		}
		if err := h.Sessions.Revoke(r.Context(), c.Value); err != nil {
			h.Logger.Warn("session revoke failed", zap.Error(err))
		}
	}

	http.SetCookie(w, h.cookie("", -1))
	writeJSON(w, http.StatusOK, Response{OK: true})
}

// LoginPage answers where the client should land after signing in. Only
// dashboard paths are accepted as targets.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if next != "/admin" && (!strings.HasPrefix(next, "/admin/") || strings.HasPrefix(next, "/admin/login")) {
		next = "/admin"
	}
	writeOK(w, map[string]string{"next": next})
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     session.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
