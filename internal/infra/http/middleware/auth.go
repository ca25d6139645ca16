package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/ontriq-site/internal/infra/session"
)

const LoginPath = "/admin/login"

type ctxKey int

const sessionKey ctxKey = iota

// SessionResolver is satisfied by *session.Manager.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.Session, error)
}

// AdminChecker reports whether a user may use the dashboard.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type AdminGuard struct {
	Sessions SessionResolver
	Admins   AdminChecker
	Logger   *zap.Logger
}

func NewAdminGuard(sessions SessionResolver, admins AdminChecker, logger *zap.Logger) *AdminGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminGuard{Sessions: sessions, Admins: admins, Logger: logger}
}

// SessionFrom returns the admin session attached by the guard.
func SessionFrom(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*session.Session)
	return s, ok
}

func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// Pages redirects unauthenticated requests to the login page, carrying the
// original path in ?next=. The login page itself is always reachable.
func (g *AdminGuard) Pages(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == LoginPath {
			next.ServeHTTP(w, r)
			return
		}
		sess, ok := g.authorize(r)
		if !ok {
			target := LoginPath + "?next=" + url.QueryEscape(r.URL.Path)
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// API answers 401 JSON instead of redirecting.
func (g *AdminGuard) API(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := g.authorize(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// authorize treats anything short of a live session for an admin profile
// as unauthenticated.
func (g *AdminGuard) authorize(r *http.Request) (*session.Session, bool) {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return nil, false
	}

	sess, err := g.Sessions.Resolve(r.Context(), cookie.Value)
	if err != nil {
		return nil, false
	}

	isAdmin, err := g.Admins.IsAdmin(r.Context(), sess.UserID)
	if err != nil {
		g.Logger.Error("admin profile lookup failed", zap.String("user_id", sess.UserID), zap.Error(err))
		return nil, false
	}
	if !isAdmin {
		g.Logger.Warn("non-admin session refused", zap.String("user_id", sess.UserID))
		return nil, false
	}
	return sess, true
}
