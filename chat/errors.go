package chat

import "errors"

// ValidationError marks a caller-supplied input that violates a contract,
// e.g. an empty message list or a submit after completion. It is the only
// error class the engine surfaces synchronously; oracle and store failures
// are absorbed by documented fallbacks instead.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError.
func Validationf(msg string) error { return &ValidationError{Msg: msg} }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
