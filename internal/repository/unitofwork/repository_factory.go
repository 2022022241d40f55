package unitofwork

import "context"

// RepositoryFactory hands out units of work over one database.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
