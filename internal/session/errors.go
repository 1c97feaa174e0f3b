package session

import (
	"errors"
	"fmt"
)

// ErrNotFound signals a missing resource: a code name with no catalog
// documents, or an advance/lookup against a session that does not
// exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports invalid caller input. It maps to HTTP 400 at
// the boundary.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
