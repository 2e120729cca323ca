package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Request errors
	ErrValidation = errors.New("invalid outlier detection request")

	// Query errors
	ErrIllegalQuery   = errors.New("illegal outlier detection query")
	ErrDataIntegrity  = errors.New("data integrity violation")
	ErrZeroDispersion = errors.New("baseline dispersion is zero")

	// Configuration errors
	ErrUnsupported          = errors.New("unsupported configuration")
	ErrUnsupportedDialect   = fmt.Errorf("%w: sql dialect", ErrUnsupported)
	ErrUnsupportedAlgorithm = fmt.Errorf("%w: algorithm", ErrUnsupported)
	ErrUnknownPeriodType    = errors.New("unknown period type")
)

// ValidationError identifies the request field that failed validation.
type ValidationError struct {
	Field string
	Code  ErrorCode
	Args  []any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Code.Message(e.Args...))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IllegalQueryError is raised when the backing store cannot evaluate the
// generated query. The low-level cause is kept for logging only and is not
// part of Error().
type IllegalQueryError struct {
	Code  ErrorCode
	Cause error
}

func (e *IllegalQueryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Code.Message())
}

func (e *IllegalQueryError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrIllegalQuery}
	}
	return []error{ErrIllegalQuery, e.Cause}
}

// Error constructors with context
func NewValidationError(field string, code ErrorCode, args ...any) error {
	return &ValidationError{Field: field, Code: code, Args: args}
}

func NewIllegalQueryError(code ErrorCode, cause error) error {
	return &IllegalQueryError{Code: code, Cause: cause}
}

func NewDataIntegrityError(cause error) error {
	return fmt.Errorf("%w: %v", ErrDataIntegrity, cause)
}

// Error checking helpers
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsIllegalQueryError(err error) bool {
	return errors.Is(err, ErrIllegalQuery)
}

func IsUnsupportedError(err error) bool {
	return errors.Is(err, ErrUnsupported)
}

// CodeOf returns the error code carried by a validation or illegal query
// error, or an empty code.
func CodeOf(err error) ErrorCode {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Code
	}
	var qerr *IllegalQueryError
	if errors.As(err, &qerr) {
		return qerr.Code
	}
	return ""
}
