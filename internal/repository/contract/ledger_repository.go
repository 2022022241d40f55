package contract

import (
	"context"

	"notevault/internal/repository/specification"
	"notevault/pkg/address"
	"notevault/pkg/identity"
	"notevault/pkg/ledger"
	"notevault/pkg/ledger/node"
)

type NoteAccountRepository interface {
	// FindData returns the account bytes at addr, or false when closed.
	FindData(ctx context.Context, addr address.Address) ([]byte, bool, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]ledger.RawAccount, error)
	Save(ctx context.Context, addr address.Address, owner identity.PublicKey, data []byte) error
	Delete(ctx context.Context, addr address.Address) error
}

type CommitmentRepository interface {
	// Create appends c and sets its Sequence.
	Create(ctx context.Context, c *node.Commitment) error
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*node.Commitment, error)
}
