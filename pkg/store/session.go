package store

import (
	"sync"
	"time"

	"notevault/internal/entity"
	"notevault/pkg/address"
	"notevault/pkg/identity"

	"github.com/google/uuid"
)

// State is the vault session's position in its edit lifecycle.
type State string

const (
	StateViewing    State = "VIEWING"
	StateEditing    State = "EDITING"
	StateSubmitting State = "SUBMITTING"
)

// Operation identifies the mutation a session is waiting on.
type Operation string

const (
	OpNone   Operation = ""
	OpCreate Operation = "CREATE"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// Session is the per-identity vault state in memory. Callers must hold the
// lock while reading or changing the exported fields.
type Session struct {
	sync.Mutex

	ID    string
	Owner identity.PublicKey

	State State

	// THE WORKBENCH (set while Editing, and kept while a Create or Delete
	// submitted from Editing is in flight)
	Editing    address.Address
	HasEditing bool
	Buffer     string

	// Set while Submitting
	Pending       Operation
	PendingTarget address.Address

	// Last reconciled ledger state
	View *entity.LocalView

	reconcileSeq uint64
	appliedSeq   uint64
}

func NewSession(owner identity.PublicKey) *Session {
	return &Session{
		ID:    uuid.NewString(),
		Owner: owner,
		State: StateViewing,
		View:  entity.NewLocalView(owner, nil, time.Time{}),
	}
}

// Snapshot is a consistent copy of a session, safe to use without the lock.
type Snapshot struct {
	ID            string
	Owner         identity.PublicKey
	State         State
	Editing       *address.Address
	Buffer        string
	Pending       Operation
	PendingTarget *address.Address
	View          *entity.LocalView
}

func (s *Session) Snapshot() Snapshot {
	s.Lock()
	defer s.Unlock()

	snap := Snapshot{
		ID:      s.ID,
		Owner:   s.Owner,
		State:   s.State,
		Buffer:  s.Buffer,
		Pending: s.Pending,
		View:    s.View,
	}
	if s.HasEditing {
		addr := s.Editing
		snap.Editing = &addr
	}
	if s.State == StateSubmitting {
		target := s.PendingTarget
		snap.PendingTarget = &target
	}
	return snap
}

// ResetEdit returns the session to Viewing and drops the edit buffer.
func (s *Session) ResetEdit() {
	s.State = StateViewing
	s.Editing = address.Address{}
	s.HasEditing = false
	s.Buffer = ""
}

// BeginReconcile numbers a ledger query so that an older result can never
// replace a newer one.
func (s *Session) BeginReconcile() uint64 {
	s.reconcileSeq++
	return s.reconcileSeq
}

// ApplyView installs view unless a later reconciliation already did.
func (s *Session) ApplyView(seq uint64, view *entity.LocalView) bool {
	if seq <= s.appliedSeq {
		return false
	}
	s.appliedSeq = seq
	s.View = view
	return true
}

// MarkStale flags the current view as possibly out of date after the query
// numbered seq failed. The notes themselves are left untouched.
func (s *Session) MarkStale(seq uint64) bool {
	if seq <= s.appliedSeq || s.View == nil {
		return false
	}
	stale := *s.View
	stale.Stale = true
	s.View = &stale
	return true
}
