package ledger

import (
	"errors"
	"fmt"

	"notevault/pkg/fault"
)

// failure codes returned by the ledger; 6000-6004 are the note program's
// own errors
const (
	CodeTitleTooLong     = 6000
	CodeContentTooLong   = 6001
	CodeTitleEmpty       = 6002
	CodeContentEmpty     = 6003
	CodeUnauthorized     = 6004
	CodeInvalidRequest   = 4000
	CodeInvalidSignature = 4010
	CodeNotFound         = 4040
	CodeAddressCollision = 4090
	CodeDuplicate        = 4091
	CodeInternal         = 5000
)

var codeNames = map[int]string{
	CodeTitleTooLong:     "TitleTooLong",
	CodeContentTooLong:   "ContentTooLong",
	CodeTitleEmpty:       "TitleEmpty",
	CodeContentEmpty:     "ContentEmpty",
	CodeUnauthorized:     "Unauthorized",
	CodeInvalidRequest:   "InvalidRequest",
	CodeInvalidSignature: "InvalidSignature",
	CodeNotFound:         "AccountNotFound",
	CodeAddressCollision: "AccountAlreadyInUse",
	CodeDuplicate:        "DuplicateTransaction",
	CodeInternal:         "Internal",
}

// ErrDuplicateTransaction is returned by the node when a nonce is replayed.
var ErrDuplicateTransaction = errors.New("transaction already processed")

// ErrInvalidRequest marks malformed transactions or queries.
var ErrInvalidRequest = errors.New("invalid request")

// RemoteError is the structured failure reason carried on the wire.
type RemoteError struct {
	Code    int    `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("ledger error %d (%s): %s", e.Code, e.Name, e.Message)
}

// Unwrap maps the code onto the client taxonomy so callers can use
// errors.Is against fault sentinels.
func (e *RemoteError) Unwrap() error {
	switch e.Code {
	case CodeTitleTooLong:
		return &fault.ValidationError{Kind: fault.TitleTooLong, Remote: true}
	case CodeContentTooLong:
		return &fault.ValidationError{Kind: fault.ContentTooLong, Remote: true}
	case CodeTitleEmpty:
		return &fault.ValidationError{Kind: fault.TitleEmpty, Remote: true}
	case CodeContentEmpty:
		return &fault.ValidationError{Kind: fault.ContentEmpty, Remote: true}
	case CodeUnauthorized:
		return fault.ErrUnauthorized
	case CodeNotFound:
		return fault.ErrNotFound
	case CodeAddressCollision:
		return fault.ErrAddressCollision
	default:
		return fault.ErrTransportFailed
	}
}

// NewRemoteError builds the wire form for code.
func NewRemoteError(code int, message string) *RemoteError {
	return &RemoteError{Code: code, Name: codeNames[code], Message: message}
}

// RemoteErrorFrom classifies a node-side error for the wire.
func RemoteErrorFrom(err error) *RemoteError {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote
	}
	if kind, ok := fault.ValidationKindOf(err); ok {
		switch kind {
		case fault.TitleTooLong:
			return NewRemoteError(CodeTitleTooLong, err.Error())
		case fault.ContentTooLong:
			return NewRemoteError(CodeContentTooLong, err.Error())
		case fault.TitleEmpty:
			return NewRemoteError(CodeTitleEmpty, err.Error())
		case fault.ContentEmpty:
			return NewRemoteError(CodeContentEmpty, err.Error())
		case fault.TitleMalformed, fault.ContentMalformed:
			return NewRemoteError(CodeInvalidRequest, err.Error())
		}
	}
	switch {
	case errors.Is(err, fault.ErrUnauthorized):
		return NewRemoteError(CodeUnauthorized, err.Error())
	case errors.Is(err, fault.ErrNotFound):
		return NewRemoteError(CodeNotFound, err.Error())
	case errors.Is(err, fault.ErrAddressCollision):
		return NewRemoteError(CodeAddressCollision, err.Error())
	case errors.Is(err, fault.ErrInvalidSignature):
		return NewRemoteError(CodeInvalidSignature, err.Error())
	case errors.Is(err, ErrDuplicateTransaction):
		return NewRemoteError(CodeDuplicate, err.Error())
	case errors.Is(err, ErrInvalidRequest):
		return NewRemoteError(CodeInvalidRequest, err.Error())
	}
	return NewRemoteError(CodeInternal, err.Error())
}
