package entity

import "errors"

var (
	ErrNotFound           = errors.New("record not found")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrStageInUse         = errors.New("stage still has leads")
)
