package entity

import (
	"sort"
	"time"

	"notevault/pkg/address"
	"notevault/pkg/identity"
)

// Note is a record held by the ledger at Address.
type Note struct {
	Address   address.Address
	Owner     identity.PublicKey
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LocalView is the owner-scoped snapshot of ledger state. It is rebuilt from
// a full query and never patched in place.
type LocalView struct {
	Owner        identity.PublicKey
	Notes        []*Note
	ReconciledAt time.Time
	Stale        bool
}

// NewLocalView orders notes by creation time, then address, so that two
// queries over the same ledger state compare equal.
func NewLocalView(owner identity.PublicKey, notes []*Note, reconciledAt time.Time) *LocalView {
	ordered := make([]*Note, len(notes))
	copy(ordered, notes)
	SortNotes(ordered)
	return &LocalView{
		Owner:        owner,
		Notes:        ordered,
		ReconciledAt: reconciledAt,
	}
}

func SortNotes(notes []*Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if !notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].CreatedAt.Before(notes[j].CreatedAt)
		}
		return notes[i].Address.Compare(notes[j].Address) < 0
	})
}

// Find returns the note at addr, or nil.
func (v *LocalView) Find(addr address.Address) *Note {
	if v == nil {
		return nil
	}
	for _, n := range v.Notes {
		if n.Address == addr {
			return n
		}
	}
	return nil
}

func (v *LocalView) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Notes)
}
