package validator

import (
	"errors"
	"fmt"
)

// Validation error codes (E200-E299)
const (
	ErrProductCode = "E201" // two uppercase letters followed by two digits
	ErrQuantity    = "E202" // positive integer
	ErrUOM         = "E203" // within [MinUOM, MaxUOM]
	ErrTimestamp   = "E204" // after the epoch, not after now
)

// ValidationError reports the first field rule an instruction broke.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// IsValidationError returns true if err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
