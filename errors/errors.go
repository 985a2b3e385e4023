// Package errors provides error handling for the HIRM text layer.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints for users editing data files by hand
//
// On top of that it defines the sentinel kinds every loader and the
// validator report through. Wrap a sentinel to add context while keeping
// it classifiable:
//
//	if len(fields) < 3 {
//	    return errors.Wrapf(errors.ErrMalformedRecord, "%s:%d", source, line)
//	}
//
//	if errors.IsMalformedRecord(err) {
//	    // reject the file
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// Sentinel error kinds shared by the loaders and the validator.
// Use these with Is() (or the Is* helpers) for type-safe classification.
var (
	// ErrRead indicates the source could not be opened or read, or held
	// bytes that are not valid UTF-8.
	ErrRead = New("read error")

	// ErrMalformedRecord indicates a record has the wrong field count for
	// its role.
	ErrMalformedRecord = New("malformed record")

	// ErrDuplicateDefinition indicates a key that must be unique was
	// repeated.
	ErrDuplicateDefinition = New("duplicate definition")

	// ErrStructuralOrder indicates the cluster file grammar was violated,
	// e.g. a domain-cluster record with no open cluster.
	ErrStructuralOrder = New("structural order error")

	// ErrReferenceViolation indicates a dangling reference or a broken
	// partition found by cross-reference validation.
	ErrReferenceViolation = New("reference violation")
)

// IsReadError checks if an error is or wraps ErrRead
func IsReadError(err error) bool {
	return err != nil && Is(err, ErrRead)
}

// IsMalformedRecord checks if an error is or wraps ErrMalformedRecord
func IsMalformedRecord(err error) bool {
	return err != nil && Is(err, ErrMalformedRecord)
}

// IsDuplicateDefinition checks if an error is or wraps ErrDuplicateDefinition
func IsDuplicateDefinition(err error) bool {
	return err != nil && Is(err, ErrDuplicateDefinition)
}

// IsStructuralOrder checks if an error is or wraps ErrStructuralOrder
func IsStructuralOrder(err error) bool {
	return err != nil && Is(err, ErrStructuralOrder)
}

// IsReferenceViolation checks if an error is or wraps ErrReferenceViolation
func IsReferenceViolation(err error) bool {
	return err != nil && Is(err, ErrReferenceViolation)
}

// WrapRead marks err as a read failure on source.
func WrapRead(err error, source string) error {
	if err == nil {
		return nil
	}
	return Wrapf(Mark(err, ErrRead), "reading %s", source)
}

// NewDuplicateError creates a duplicate-definition error with a formatted message
func NewDuplicateError(format string, args ...interface{}) error {
	return Wrap(ErrDuplicateDefinition, Newf(format, args...).Error())
}

// NewReferenceError creates a reference-violation error with a formatted message
func NewReferenceError(format string, args ...interface{}) error {
	return Wrap(ErrReferenceViolation, Newf(format, args...).Error())
}
