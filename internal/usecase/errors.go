package usecase

import "errors"

const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeNoStages      = "NO_STAGES"
	CodeNotFound      = "NOT_FOUND"
	CodeDatabase      = "DATABASE_ERROR"
	CodeConversion    = "CONVERSION_INCOMPLETE"
	CodeNotConfigured = "NOT_CONFIGURED"
)

// DomainError is a failure the caller can act on; its message is safe to show.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError wraps an upstream failure (store, queue, provider).
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}
