package core

import "errors"

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound is returned both for missing rows and for rows owned by
	// another user, so callers cannot probe for existence.
	ErrNotFound = errors.New("not found")

	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPermissionDenied   = errors.New("permission denied")
)

// ValidationError reports malformed or inconsistent input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is makes errors.Is(err, ErrValidation) true for any validation failure.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// relabel moves a field error onto another field, leaving other errors as is.
func relabel(err error, field string) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return &ValidationError{Field: field, Message: ve.Message}
	}
	return err
}

var (
	ErrInvalidAmount    = &ValidationError{Field: "amount", Message: "enter a valid amount"}
	ErrTooManyDecimals  = &ValidationError{Field: "amount", Message: "at most 2 decimal places are allowed"}
	ErrAmountTooLarge   = &ValidationError{Field: "amount", Message: "at most 10 digits are allowed"}
	ErrNegativeAmount   = &ValidationError{Field: "amount", Message: "amount cannot be negative"}
	ErrInvalidDate      = &ValidationError{Field: "date", Message: "enter a valid date (YYYY-MM-DD)"}
	ErrInvalidType      = &ValidationError{Field: "transaction_type", Message: "must be INCOME or EXPENSE"}
	ErrInvalidCurrency  = &ValidationError{Field: "currency", Message: "must be one of Ft, $, €"}
	ErrInvalidDirection = &ValidationError{Field: "action", Message: "must be add or subtract"}
	ErrPasswordMismatch = &ValidationError{Field: "confirm_password", Message: "Passwords do not match"}
)
