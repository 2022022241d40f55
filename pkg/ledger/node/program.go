package node

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"notevault/internal/entity"
	"notevault/internal/pkg/logger"
	"notevault/pkg/address"
	"notevault/pkg/fault"
	"notevault/pkg/identity"
	"notevault/pkg/ledger"
	"notevault/pkg/validation"
)

const module = "LedgerProgram"

// Program executes note instructions. Transactions are applied one at a
// time, so each either commits fully or leaves the store untouched.
type Program struct {
	id     identity.PublicKey
	store  AccountStore
	clock  func() time.Time
	logger logger.ILogger

	mu sync.Mutex
}

type Option func(*Program)

// WithClock replaces the wall clock used for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(p *Program) { p.clock = clock }
}

func NewProgram(id identity.PublicKey, store AccountStore, log logger.ILogger, opts ...Option) *Program {
	p := &Program{
		id:     id,
		store:  store,
		clock:  time.Now,
		logger: log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Program) ID() identity.PublicKey {
	return p.id
}

// Execute verifies and applies tx, returning the commitment receipt.
func (p *Program) Execute(ctx context.Context, tx *ledger.Transaction) (*ledger.Receipt, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: missing transaction", ledger.ErrInvalidRequest)
	}
	if tx.Program != p.id {
		return nil, fmt.Errorf("%w: wrong program %s", ledger.ErrInvalidRequest, tx.Program)
	}
	if !tx.Instruction.Valid() {
		return nil, fmt.Errorf("%w: unknown instruction %q", ledger.ErrInvalidRequest, tx.Instruction)
	}
	if err := tx.Verify(); err != nil {
		return nil, fmt.Errorf("%w: %v", fault.ErrInvalidSignature, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	seen, err := p.store.HasNonce(ctx, tx.Nonce)
	if err != nil {
		return nil, err
	}
	if seen {
		return nil, ledger.ErrDuplicateTransaction
	}

	var c *Commitment
	switch tx.Instruction {
	case ledger.InstructionCreateNote:
		c, err = p.createNote(ctx, tx)
	case ledger.InstructionUpdateNote:
		c, err = p.updateNote(ctx, tx)
	case ledger.InstructionDeleteNote:
		c, err = p.deleteNote(ctx, tx)
	}
	if err != nil {
		p.logger.Warn(module, "Transaction rejected", map[string]interface{}{
			"instruction": tx.Instruction,
			"address":     tx.Address.String(),
			"signer":      tx.Signer.String(),
			"error":       err.Error(),
		})
		return nil, err
	}

	payload, err := json.Marshal(tx)
	if err != nil {
		return nil, err
	}
	c.Signature = tx.ID()
	c.Instruction = tx.Instruction
	c.Address = tx.Address
	c.Signer = tx.Signer
	c.Nonce = tx.Nonce
	c.Payload = payload
	c.CommittedAt = p.clock().UTC()

	if err := p.store.Commit(ctx, c); err != nil {
		return nil, err
	}

	p.logger.Info(module, "Transaction committed", map[string]interface{}{
		"instruction": tx.Instruction,
		"address":     tx.Address.String(),
		"sequence":    c.Sequence,
	})
	return &ledger.Receipt{Signature: c.Signature, Sequence: c.Sequence}, nil
}

func (p *Program) createNote(ctx context.Context, tx *ledger.Transaction) (*Commitment, error) {
	if err := validation.Validate(tx.Args.Title, tx.Args.Content); err != nil {
		return nil, err
	}
	expected, err := address.Derive(p.id, tx.Signer, tx.Args.Title)
	if err != nil {
		return nil, err
	}
	if expected != tx.Address {
		return nil, fmt.Errorf("%w: address does not match seeds", ledger.ErrInvalidRequest)
	}

	_, exists, err := p.store.Load(ctx, tx.Address)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fault.ErrAddressCollision
	}

	now := time.Unix(p.clock().Unix(), 0).UTC()
	note := &entity.Note{
		Address:   tx.Address,
		Owner:     tx.Signer,
		Title:     tx.Args.Title,
		Content:   tx.Args.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return &Commitment{Data: ledger.EncodeNote(note)}, nil
}

func (p *Program) updateNote(ctx context.Context, tx *ledger.Transaction) (*Commitment, error) {
	note, err := p.loadNote(ctx, tx.Address)
	if err != nil {
		return nil, err
	}
	if note.Owner != tx.Signer {
		return nil, fault.ErrUnauthorized
	}
	if err := validation.ValidateContent(tx.Args.Content); err != nil {
		return nil, err
	}

	// epoch seconds; keep updatedAt strictly increasing across fast updates
	now := p.clock().Unix()
	if prev := note.UpdatedAt.Unix(); now <= prev {
		now = prev + 1
	}
	note.Content = tx.Args.Content
	note.UpdatedAt = time.Unix(now, 0).UTC()
	return &Commitment{Data: ledger.EncodeNote(note)}, nil
}

func (p *Program) deleteNote(ctx context.Context, tx *ledger.Transaction) (*Commitment, error) {
	note, err := p.loadNote(ctx, tx.Address)
	if err != nil {
		return nil, err
	}
	if note.Owner != tx.Signer {
		return nil, fault.ErrUnauthorized
	}
	return &Commitment{Closed: true}, nil
}

func (p *Program) loadNote(ctx context.Context, addr address.Address) (*entity.Note, error) {
	data, ok, err := p.store.Load(ctx, addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fault.ErrNotFound
	}
	note, err := ledger.DecodeNote(addr, data)
	if err != nil {
		return nil, fault.Decode("account "+addr.String(), err)
	}
	return note, nil
}

// Query returns the program's accounts matching every filter.
func (p *Program) Query(ctx context.Context, req *ledger.QueryRequest) (*ledger.QueryResponse, error) {
	if req == nil || req.Program != p.id {
		return nil, fmt.Errorf("%w: wrong program", ledger.ErrInvalidRequest)
	}
	for _, f := range req.Filters {
		if _, err := f.Match(nil); err != nil || f.Offset < 0 {
			return nil, fmt.Errorf("%w: bad filter at offset %d", ledger.ErrInvalidRequest, f.Offset)
		}
	}
	accounts, err := p.store.Scan(ctx, req.Filters)
	if err != nil {
		return nil, err
	}
	return &ledger.QueryResponse{Accounts: accounts}, nil
}
