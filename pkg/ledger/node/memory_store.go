package node

import (
	"context"
	"sort"
	"sync"

	"notevault/pkg/address"
	"notevault/pkg/ledger"
)

// MemoryStore is a thread-safe in-process AccountStore.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[address.Address][]byte
	log      []*Commitment
	nonces   map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[address.Address][]byte),
		nonces:   make(map[string]struct{}),
	}
}

func (m *MemoryStore) Load(_ context.Context, addr address.Address) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.accounts[addr]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (m *MemoryStore) Scan(_ context.Context, filters []ledger.MemcmpFilter) ([]ledger.RawAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ledger.RawAccount, 0)
	for addr, data := range m.accounts {
		ok, err := ledger.MatchAll(filters, data)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, ledger.RawAccount{Address: addr, Data: append([]byte(nil), data...)})
		}
	}
	// map order is random; keep responses stable
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address.Compare(out[j].Address) < 0
	})
	return out, nil
}

func (m *MemoryStore) HasNonce(_ context.Context, nonce string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.nonces[nonce]
	return ok, nil
}

func (m *MemoryStore) Commit(_ context.Context, c *Commitment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.nonces[c.Nonce]; ok {
		return ledger.ErrDuplicateTransaction
	}
	c.Sequence = uint64(len(m.log)) + 1
	if c.Closed {
		delete(m.accounts, c.Address)
	} else {
		m.accounts[c.Address] = append([]byte(nil), c.Data...)
	}
	m.nonces[c.Nonce] = struct{}{}
	m.log = append(m.log, c)
	return nil
}

func (m *MemoryStore) History(_ context.Context, addr address.Address) ([]*Commitment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Commitment
	for _, c := range m.log {
		if c.Address == addr {
			out = append(out, c)
		}
	}
	return out, nil
}
