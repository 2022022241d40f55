package memory

import (
	"testing"
	"time"

	"notevault/pkg/identity"
	"notevault/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository(t *testing.T) {
	signer, err := identity.GenerateKeypairSigner()
	require.NoError(t, err)

	repo := NewSessionRepository(time.Hour)
	session := store.NewSession(signer.PublicKey())
	repo.Save(session)

	got, ok := repo.Get(session.ID)
	require.True(t, ok)
	assert.Same(t, session, got)
	assert.Equal(t, 1, repo.Count())

	repo.Delete(session.ID)
	_, ok = repo.Get(session.ID)
	assert.False(t, ok)
}

func TestSessionRepositoryExpiry(t *testing.T) {
	signer, err := identity.GenerateKeypairSigner()
	require.NoError(t, err)

	repo := NewSessionRepository(20 * time.Millisecond)
	session := store.NewSession(signer.PublicKey())
	repo.Save(session)

	time.Sleep(40 * time.Millisecond)
	_, ok := repo.Get(session.ID)
	assert.False(t, ok)
}
