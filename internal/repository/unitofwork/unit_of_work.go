package unitofwork

import (
	"context"

	"notevault/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	NoteAccountRepository() contract.NoteAccountRepository
	CommitmentRepository() contract.CommitmentRepository
}
