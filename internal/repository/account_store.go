// Package repository adapts the gorm repositories to the ledger node's
// AccountStore so a node can keep its accounts and log in Postgres.
package repository

import (
	"context"
	"fmt"
	"sort"

	"notevault/internal/model"
	"notevault/internal/repository/specification"
	"notevault/internal/repository/unitofwork"
	"notevault/pkg/address"
	"notevault/pkg/identity"
	"notevault/pkg/ledger"
	"notevault/pkg/ledger/node"

	"github.com/mr-tron/base58"
	"gorm.io/gorm"
)

type AccountStore struct {
	factory unitofwork.RepositoryFactory
}

var _ node.AccountStore = (*AccountStore)(nil)

func NewAccountStore(factory unitofwork.RepositoryFactory) *AccountStore {
	return &AccountStore{factory: factory}
}

// Migrate creates or updates the ledger tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.NoteAccount{}, &model.Commitment{})
}

func (s *AccountStore) Load(ctx context.Context, addr address.Address) ([]byte, bool, error) {
	return s.factory.NewUnitOfWork(ctx).NoteAccountRepository().FindData(ctx, addr)
}

// Scan pushes an owner filter down to the indexed column and matches the
// remaining filters against the account bytes.
func (s *AccountStore) Scan(ctx context.Context, filters []ledger.MemcmpFilter) ([]ledger.RawAccount, error) {
	var specs []specification.Specification
	rest := make([]ledger.MemcmpFilter, 0, len(filters))
	for _, f := range filters {
		if owner, ok := ownerOf(f); ok {
			specs = append(specs, specification.ByOwner{Owner: owner})
			continue
		}
		rest = append(rest, f)
	}

	accounts, err := s.factory.NewUnitOfWork(ctx).NoteAccountRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	out := make([]ledger.RawAccount, 0, len(accounts))
	for _, acct := range accounts {
		ok, err := ledger.MatchAll(rest, acct.Data)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, acct)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address.Compare(out[j].Address) < 0
	})
	return out, nil
}

func ownerOf(f ledger.MemcmpFilter) (identity.PublicKey, bool) {
	if f.Offset != ledger.OwnerOffset {
		return identity.PublicKey{}, false
	}
	raw, err := base58.Decode(f.Bytes)
	if err != nil {
		return identity.PublicKey{}, false
	}
	pk, err := identity.PublicKeyFromBytes(raw)
	return pk, err == nil
}

func (s *AccountStore) HasNonce(ctx context.Context, nonce string) (bool, error) {
	count, err := s.factory.NewUnitOfWork(ctx).CommitmentRepository().Count(ctx, specification.ByNonce{Nonce: nonce})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Commit appends the log entry and applies the account change in one
// transaction.
func (s *AccountStore) Commit(ctx context.Context, c *node.Commitment) (err error) {
	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = uow.Rollback()
		}
	}()

	if err = uow.CommitmentRepository().Create(ctx, c); err != nil {
		return err
	}

	accounts := uow.NoteAccountRepository()
	if c.Closed {
		err = accounts.Delete(ctx, c.Address)
	} else {
		var owner identity.PublicKey
		owner, err = ownerFromData(c.Data)
		if err != nil {
			return err
		}
		err = accounts.Save(ctx, c.Address, owner, c.Data)
	}
	if err != nil {
		return err
	}
	return uow.Commit()
}

func ownerFromData(data []byte) (identity.PublicKey, error) {
	end := ledger.OwnerOffset + identity.PublicKeySize
	if len(data) < end {
		return identity.PublicKey{}, fmt.Errorf("account data too short for owner: %d bytes", len(data))
	}
	return identity.PublicKeyFromBytes(data[ledger.OwnerOffset:end])
}

func (s *AccountStore) History(ctx context.Context, addr address.Address) ([]*node.Commitment, error) {
	return s.factory.NewUnitOfWork(ctx).CommitmentRepository().FindAll(ctx,
		specification.ByAddress{Address: addr},
		specification.OrderBy{Field: "sequence"},
	)
}
