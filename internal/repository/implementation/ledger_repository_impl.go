package implementation

import (
	"context"
	"errors"

	"notevault/internal/mapper"
	"notevault/internal/model"
	"notevault/internal/repository/contract"
	"notevault/internal/repository/specification"
	"notevault/pkg/address"
	"notevault/pkg/identity"
	"notevault/pkg/ledger"
	"notevault/pkg/ledger/node"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

type NoteAccountRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.LedgerMapper
}

func NewNoteAccountRepository(db *gorm.DB) contract.NoteAccountRepository {
	return &NoteAccountRepositoryImpl{
		db:     db,
		mapper: mapper.NewLedgerMapper(),
	}
}

func (r *NoteAccountRepositoryImpl) FindData(ctx context.Context, addr address.Address) ([]byte, bool, error) {
	var m model.NoteAccount
	err := specification.ByAddress{Address: addr}.Apply(r.db.WithContext(ctx)).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return m.Data, true, nil
}

func (r *NoteAccountRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]ledger.RawAccount, error) {
	var models []*model.NoteAccount
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]ledger.RawAccount, 0, len(models))
	for _, m := range models {
		acct, err := r.mapper.ToRawAccount(m)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, nil
}

func (r *NoteAccountRepositoryImpl) Save(ctx context.Context, addr address.Address, owner identity.PublicKey, data []byte) error {
	m := r.mapper.ToAccountModel(addr, owner, data)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner", "data", "updated_at"}),
	}).Create(m).Error
}

func (r *NoteAccountRepositoryImpl) Delete(ctx context.Context, addr address.Address) error {
	return r.db.WithContext(ctx).Delete(&model.NoteAccount{}, "address = ?", addr.String()).Error
}

type CommitmentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.LedgerMapper
}

func NewCommitmentRepository(db *gorm.DB) contract.CommitmentRepository {
	return &CommitmentRepositoryImpl{
		db:     db,
		mapper: mapper.NewLedgerMapper(),
	}
}

func (r *CommitmentRepositoryImpl) Create(ctx context.Context, c *node.Commitment) error {
	m := r.mapper.ToCommitmentModel(c)
	m.Sequence = 0
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ledger.ErrDuplicateTransaction
		}
		return err
	}
	c.Sequence = m.Sequence
	return nil
}

func (r *CommitmentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Commitment{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *CommitmentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*node.Commitment, error) {
	var models []*model.Commitment
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToCommitments(models)
}
