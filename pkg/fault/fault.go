// Package fault holds the error taxonomy shared by the vault client and the
// ledger node.
//
// Single instances are provided so callers can compare with errors.Is.
package fault

import (
	"errors"
	"fmt"
)

// common errors - keep in alphabetic order
var (
	ErrAddressCollision = errors.New("an active record already exists at the derived address")
	ErrBusy             = errors.New("another mutation is still pending for this session")
	ErrDecodeFailed     = errors.New("ledger payload could not be decoded")
	ErrInvalidSignature = errors.New("transaction signature is invalid")
	ErrInvalidState     = errors.New("operation is not allowed in the current session state")
	ErrNotFound         = errors.New("record not found")
	ErrTransportFailed  = errors.New("ledger transport failed")
	ErrUnauthorized     = errors.New("unauthorized")
)

// ValidationKind identifies which field constraint was violated.
type ValidationKind int

const (
	TitleEmpty ValidationKind = iota
	ContentEmpty
	TitleTooLong
	ContentTooLong
	TitleMalformed
	ContentMalformed
)

var validationKindNames = map[ValidationKind]string{
	TitleEmpty:       "TitleEmpty",
	ContentEmpty:     "ContentEmpty",
	TitleTooLong:     "TitleTooLong",
	ContentTooLong:   "ContentTooLong",
	TitleMalformed:   "TitleMalformed",
	ContentMalformed: "ContentMalformed",
}

var validationMessages = map[ValidationKind]string{
	TitleEmpty:       "title cannot be empty",
	ContentEmpty:     "content cannot be empty",
	TitleTooLong:     "title cannot be longer than 100 bytes",
	ContentTooLong:   "content cannot be longer than 1000 bytes",
	TitleMalformed:   "title must be valid UTF-8",
	ContentMalformed: "content must be valid UTF-8",
}

func (k ValidationKind) String() string {
	if name, ok := validationKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ValidationKind(%d)", int(k))
}

// ValidationError is returned when a title or content constraint fails,
// whether detected locally or reported by the ledger.
type ValidationError struct {
	Kind   ValidationKind
	Remote bool
}

func (e *ValidationError) Error() string {
	msg, ok := validationMessages[e.Kind]
	if !ok {
		msg = e.Kind.String()
	}
	if e.Remote {
		return "ledger rejected record: " + msg
	}
	return msg
}

// Is matches any ValidationError of the same kind, so
// errors.Is(err, fault.Validation(fault.TitleEmpty)) works for both local
// and remote failures.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// Validation builds a local ValidationError of the given kind.
func Validation(kind ValidationKind) *ValidationError {
	return &ValidationError{Kind: kind}
}

// IsValidation reports whether err is a validation failure, local or remote.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ValidationKindOf extracts the kind from a validation failure.
func ValidationKindOf(err error) (ValidationKind, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Kind, true
	}
	return 0, false
}

// IsLocal reports whether err was produced without a ledger round-trip.
func IsLocal(err error) bool {
	var v *ValidationError
	if errors.As(err, &v) {
		return !v.Remote
	}
	return errors.Is(err, ErrBusy) || errors.Is(err, ErrInvalidState)
}

// Transport wraps a network or signing failure as ErrTransportFailed.
func Transport(op string, cause error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrTransportFailed, cause)
}

// Decode wraps a payload decoding failure as ErrDecodeFailed.
func Decode(what string, cause error) error {
	return fmt.Errorf("decode %s: %w: %v", what, ErrDecodeFailed, cause)
}
