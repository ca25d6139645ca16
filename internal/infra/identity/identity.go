// Package identity is the password sign-in collaborator for admin users.
package identity

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/xavierca1/ontriq-site/internal/entity"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// dummyHash keeps the unknown-email path as slow as a real comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("ontriq-placeholder"), bcrypt.MinCost)

type Authenticator struct {
	Users    entity.UserRepositoryInterface
	Profiles entity.ProfileRepositoryInterface
	Cost     int
}

func NewAuthenticator(users entity.UserRepositoryInterface, profiles entity.ProfileRepositoryInterface) *Authenticator {
	return &Authenticator{Users: users, Profiles: profiles, Cost: bcrypt.DefaultCost}
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// SignIn returns the user for a matching email/password pair.
func (a *Authenticator) SignIn(ctx context.Context, email, password string) (*entity.User, error) {
	user, err := a.Users.FindByEmail(ctx, email)
	if errors.Is(err, entity.ErrNotFound) {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// IsAdmin reports whether the user's profile carries the admin flag. A
// missing profile is not an error, just not an admin.
func (a *Authenticator) IsAdmin(ctx context.Context, userID string) (bool, error) {
	p, err := a.Profiles.FindByID(ctx, userID)
	if errors.Is(err, entity.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.IsAdmin, nil
}

// CreateUser registers a user with a hashed password and its profile.
func (a *Authenticator) CreateUser(ctx context.Context, email, password string, isAdmin bool) (*entity.User, error) {
	if len(password) < 6 {
		return nil, errors.New("password must be at least 6 characters")
	}
	hash, err := HashPassword(password, a.Cost)
	if err != nil {
		return nil, err
	}
	user, err := entity.NewUser(email, hash)
	if err != nil {
		return nil, err
	}
	if err := a.Users.Create(ctx, user, isAdmin); err != nil {
		return nil, err
	}
	return user, nil
}
