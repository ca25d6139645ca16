package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const CookieName = "ontriq_admin_session"

type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Manager issues, resolves and revokes session tokens.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(store Store, secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{store: store, secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue stores a new session and returns the signed cookie value.
func (m *Manager) Issue(ctx context.Context, userID, email string) (string, *Session, error) {
	now := m.now()
	sess := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Email:     email,
		CreatedAt: now,
	}
	if err := m.store.Save(ctx, sess, m.ttl); err != nil {
		return "", nil, err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Email: email,
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	return signed, sess, nil
}

// Resolve verifies the token and returns the live session it names.
func (m *Manager) Resolve(ctx context.Context, tokenStr string) (*Session, error) {
	c, err := m.parse(tokenStr)
	if err != nil {
		return nil, ErrNoSession
	}
	sess, err := m.store.Lookup(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != c.Subject {
		return nil, ErrNoSession
	}
	return sess, nil
}

// Revoke drops the session named by the token. Unknown or invalid tokens
// are not an error.
func (m *Manager) Revoke(ctx context.Context, tokenStr string) error {
	c, err := m.parse(tokenStr)
	if err != nil {
		return nil
	}
	return m.store.Revoke(ctx, c.ID)
}

func (m *Manager) parse(tokenStr string) (*claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.ID == "" {
		return nil, errors.New("invalid session claims")
	}
	return c, nil
}
