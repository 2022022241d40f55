package mapper

import (
	"fmt"

	"notevault/internal/model"
	"notevault/pkg/address"
	"notevault/pkg/identity"
	"notevault/pkg/ledger"
	"notevault/pkg/ledger/node"

	"gorm.io/datatypes"
)

type LedgerMapper struct{}

func NewLedgerMapper() *LedgerMapper {
	return &LedgerMapper{}
}

func (m *LedgerMapper) ToAccountModel(addr address.Address, owner identity.PublicKey, data []byte) *model.NoteAccount {
	return &model.NoteAccount{
		Address: addr.String(),
		Owner:   owner.String(),
		Data:    append([]byte(nil), data...),
	}
}

func (m *LedgerMapper) ToRawAccount(a *model.NoteAccount) (ledger.RawAccount, error) {
	addr, err := address.Parse(a.Address)
	if err != nil {
		return ledger.RawAccount{}, fmt.Errorf("stored account %q: %w", a.Address, err)
	}
	return ledger.RawAccount{Address: addr, Data: a.Data}, nil
}

func (m *LedgerMapper) ToCommitmentModel(c *node.Commitment) *model.Commitment {
	if c == nil {
		return nil
	}
	return &model.Commitment{
		Sequence:    c.Sequence,
		Signature:   c.Signature,
		Instruction: string(c.Instruction),
		Address:     c.Address.String(),
		Signer:      c.Signer.String(),
		Nonce:       c.Nonce,
		Data:        c.Data,
		Closed:      c.Closed,
		Payload:     datatypes.JSON(c.Payload),
		CommittedAt: c.CommittedAt,
	}
}

func (m *LedgerMapper) ToCommitment(c *model.Commitment) (*node.Commitment, error) {
	if c == nil {
		return nil, nil
	}
	addr, err := address.Parse(c.Address)
	if err != nil {
		return nil, fmt.Errorf("commitment %d address: %w", c.Sequence, err)
	}
	signer, err := identity.PublicKeyFromBase58(c.Signer)
	if err != nil {
		return nil, fmt.Errorf("commitment %d signer: %w", c.Sequence, err)
	}
	return &node.Commitment{
		Sequence:    c.Sequence,
		Signature:   c.Signature,
		Instruction: ledger.Instruction(c.Instruction),
		Address:     addr,
		Signer:      signer,
		Nonce:       c.Nonce,
		Data:        c.Data,
		Closed:      c.Closed,
		Payload:     []byte(c.Payload),
		CommittedAt: c.CommittedAt.UTC(),
	}, nil
}

func (m *LedgerMapper) ToCommitments(models []*model.Commitment) ([]*node.Commitment, error) {
	out := make([]*node.Commitment, 0, len(models))
	for _, c := range models {
		entity, err := m.ToCommitment(c)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}
