package access

import (
	"fmt"

	"notevault/internal/entity"
	"notevault/pkg/address"
	"notevault/pkg/fault"
	"notevault/pkg/identity"
)

// Guard performs the client-side ownership checks. They are advisory: the
// ledger repeats them and its verdict is final.
type Guard struct{}

// NewGuard creates a new authorization guard
func NewGuard() *Guard {
	return &Guard{}
}

// Authorize permits update and delete only for the record's owner.
func (g *Guard) Authorize(acting identity.PublicKey, note *entity.Note) error {
	if note == nil {
		return fault.ErrNotFound
	}
	if acting.IsZero() || acting != note.Owner {
		return fmt.Errorf("%w: %s does not own %s", fault.ErrUnauthorized, acting, note.Address)
	}
	return nil
}

// AuthorizeCreate only checks that the derived address is not already
// occupied in the known view. Ownership is established by the create itself.
func (g *Guard) AuthorizeCreate(acting identity.PublicKey, target address.Address, view *entity.LocalView) error {
	if acting.IsZero() {
		return fault.ErrUnauthorized
	}
	if existing := view.Find(target); existing != nil {
		return fmt.Errorf("%w: %s", fault.ErrAddressCollision, target)
	}
	return nil
}
