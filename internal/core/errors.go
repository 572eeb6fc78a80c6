package core

import (
	"errors"
	"fmt"
)

// ValidationError marks input that a repository refused to persist.
// Callers use IsValidation to distinguish it from infrastructure failures.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Invalid builds a ValidationError with a fixed message.
func Invalid(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

// Invalidf builds a ValidationError with a formatted message.
func Invalidf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var (
	ErrEmptyName        = Invalid("empty name")
	ErrEmptyTitle       = Invalid("empty title")
	ErrInvalidAmount    = Invalid("invalid amount")
	ErrInvalidMonth     = Invalid("invalid month, want YYYY-MM")
	ErrInvalidDate      = Invalid("invalid date, want YYYY-MM-DD")
	ErrEmptyScopeRules  = Invalid("requires at least one category scope rule")
	ErrMissingGoal      = Invalid("saving transaction requires a goal")
	ErrDuplicateTitle   = Invalid("title already in use")
	ErrDuplicateName    = Invalid("name already in use")
	ErrInvalidTicker    = Invalid("empty ticker")
	ErrInvalidAssetType = Invalid("invalid asset type")
)
