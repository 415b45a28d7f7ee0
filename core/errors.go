package core

import (
	"errors"
	"fmt"
)

// ErrorCategory defines standardized error categories for analysis failures
type ErrorCategory string

const (
	// ErrorCategoryValidation covers rejected caller input, e.g. an absent
	// document body. The detector itself never raises it; the calling layer
	// does, before a scan is attempted.
	ErrorCategoryValidation ErrorCategory = "validation"

	// ErrorCategoryConfiguration covers defects in the rule table. These are
	// load-time failures and must never be deferred to scan time.
	ErrorCategoryConfiguration ErrorCategory = "configuration"

	// ErrorCategoryStorage covers analysis history store failures
	ErrorCategoryStorage ErrorCategory = "storage"
)

// ErrEmptyDocument is returned by calling layers when no document text was
// provided. Zero matches on a non-empty document is success, not an error.
var ErrEmptyDocument = newError(ErrorCategoryValidation, errors.New("no document text provided"))

// Error wraps errors with a standardized category so boundaries can map
// them to user-visible failures
type Error struct {
	Category    ErrorCategory
	OriginalErr error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Category, e.OriginalErr.Error())
}

func (e *Error) Unwrap() error {
	return e.OriginalErr
}

// newError creates a new Error with standard fields
func newError(category ErrorCategory, err error) *Error {
	return &Error{
		Category:    category,
		OriginalErr: err,
	}
}

// CategoryOf extracts the error category, or empty string for untagged errors
func CategoryOf(err error) ErrorCategory {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ""
}
