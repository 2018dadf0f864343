package service

import "errors"

var (
	ErrValidationFailed   = errors.New("validation failed")
	ErrTournamentNotFound = errors.New("tournament not found")
)

const RequiredFieldsMessage = "必須項目を入力してください"

// ValidationError carries the message shown to the user. It matches
// ErrValidationFailed with errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
