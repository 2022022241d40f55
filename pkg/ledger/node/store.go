// Package node implements the authoritative side of the note ledger: a
// program that verifies, validates and commits signed note transactions,
// and the stores that hold its accounts and append-only commitment log.
package node

import (
	"context"
	"time"

	"notevault/pkg/address"
	"notevault/pkg/identity"
	"notevault/pkg/ledger"
)

// Commitment is one entry of the append-only log. Data is the account
// content after the commitment; Closed marks a reclaimed account.
type Commitment struct {
	Sequence    uint64
	Signature   string
	Instruction ledger.Instruction
	Address     address.Address
	Signer      identity.PublicKey
	Nonce       string
	Data        []byte
	Closed      bool
	Payload     []byte
	CommittedAt time.Time
}

// AccountStore persists accounts and the commitment log.
//
// Commit must apply the account change and append the log entry atomically,
// assigning the sequence number.
type AccountStore interface {
	Load(ctx context.Context, addr address.Address) ([]byte, bool, error)
	Scan(ctx context.Context, filters []ledger.MemcmpFilter) ([]ledger.RawAccount, error)
	HasNonce(ctx context.Context, nonce string) (bool, error)
	Commit(ctx context.Context, c *Commitment) error
	History(ctx context.Context, addr address.Address) ([]*Commitment, error)
}
