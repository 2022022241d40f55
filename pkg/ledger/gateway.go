// Package ledger defines the boundary between the vault client and the
// remote note ledger: the gateway contract, the signed transaction format,
// the note account layout and the wire error codes.
package ledger

import (
	"context"

	"notevault/internal/entity"
	"notevault/pkg/address"
	"notevault/pkg/identity"
)

// Gateway submits mutations to, and queries, the remote ledger.
//
// Each submit is a single atomic commitment; it either fully applies or has
// no effect. Implementations never retry.
type Gateway interface {
	// SubmitCreate fails with fault.ErrAddressCollision, a remote
	// fault.ValidationError or fault.ErrTransportFailed.
	SubmitCreate(ctx context.Context, owner identity.PublicKey, title, content string) (address.Address, error)
	// SubmitUpdate fails with fault.ErrUnauthorized, a remote
	// fault.ValidationError, fault.ErrNotFound or fault.ErrTransportFailed.
	SubmitUpdate(ctx context.Context, addr address.Address, acting identity.PublicKey, content string) error
	// SubmitDelete fails with fault.ErrUnauthorized, fault.ErrNotFound or
	// fault.ErrTransportFailed.
	SubmitDelete(ctx context.Context, addr address.Address, acting identity.PublicKey) error
	// QueryByOwner returns the ledger's current records for owner, possibly
	// none.
	QueryByOwner(ctx context.Context, owner identity.PublicKey) ([]*entity.Note, error)
}

// SubmitRequest is the body of POST /v1/transactions.
type SubmitRequest struct {
	Transaction *Transaction `json:"transaction"`
}

// Receipt confirms a commitment.
type Receipt struct {
	Signature string `json:"signature"`
	Sequence  uint64 `json:"sequence"`
}

// QueryRequest is the body of POST /v1/accounts/query.
type QueryRequest struct {
	Program identity.PublicKey `json:"program"`
	Filters []MemcmpFilter     `json:"filters"`
}

// RawAccount is an undecoded account as returned by a query.
type RawAccount struct {
	Address address.Address `json:"address"`
	Data    []byte          `json:"data"`
}

// QueryResponse is the body returned by a query.
type QueryResponse struct {
	Accounts []RawAccount `json:"accounts"`
}

// Envelope wraps every node response.
type Envelope[T any] struct {
	Success bool         `json:"success"`
	Data    T            `json:"data,omitempty"`
	Error   *RemoteError `json:"error,omitempty"`
}
