package entity

import (
	"context"
	"errors"
	"strings"
)

// DefaultStageName is the stage converted inquiries land in when it exists.
const DefaultStageName = "new lead"

type Stage struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

func (s *Stage) Validate() error {
	if s.ID == "" {
		return errors.New("stage: id is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("stage: name is required")
	}
	return nil
}

// IsDefault reports whether the stage is the "New Lead" column, in any case.
func (s *Stage) IsDefault() bool {
	return strings.ToLower(s.Name) == DefaultStageName
}

type StageRepositoryInterface interface {
	// List returns stages ordered by position ascending.
	List(ctx context.Context) ([]*Stage, error)
	Create(ctx context.Context, name string, position int) (*Stage, error)
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}
