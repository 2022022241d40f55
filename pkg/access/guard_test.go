package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notevault/internal/entity"
	"notevault/pkg/address"
	"notevault/pkg/fault"
	"notevault/pkg/identity"
)

func TestAuthorize(t *testing.T) {
	alice, err := identity.GenerateKeypairSigner()
	require.NoError(t, err)
	bob, err := identity.GenerateKeypairSigner()
	require.NoError(t, err)

	note := &entity.Note{Address: address.Address{7}, Owner: alice.PublicKey(), Title: "Groceries"}
	guard := NewGuard()

	tests := []struct {
		name    string
		acting  identity.PublicKey
		note    *entity.Note
		wantErr error
	}{
		{"owner", alice.PublicKey(), note, nil},
		{"other identity", bob.PublicKey(), note, fault.ErrUnauthorized},
		{"zero identity", identity.PublicKey{}, note, fault.ErrUnauthorized},
		{"missing record", alice.PublicKey(), nil, fault.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.Authorize(tt.acting, tt.note)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthorizeCreate(t *testing.T) {
	alice, err := identity.GenerateKeypairSigner()
	require.NoError(t, err)

	occupied := address.Address{1}
	view := entity.NewLocalView(alice.PublicKey(), []*entity.Note{
		{Address: occupied, Owner: alice.PublicKey(), Title: "Groceries", CreatedAt: time.Unix(1, 0)},
	}, time.Now())
	guard := NewGuard()

	assert.NoError(t, guard.AuthorizeCreate(alice.PublicKey(), address.Address{2}, view))
	assert.ErrorIs(t, guard.AuthorizeCreate(alice.PublicKey(), occupied, view), fault.ErrAddressCollision)
	assert.ErrorIs(t, guard.AuthorizeCreate(identity.PublicKey{}, address.Address{2}, view), fault.ErrUnauthorized)

	// no view yet: nothing to collide with locally
	assert.NoError(t, guard.AuthorizeCreate(alice.PublicKey(), occupied, nil))
}
