package address

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"notevault/pkg/identity"
)

func keyGenerator() *rapid.Generator[identity.PublicKey] {
	return rapid.Custom(func(t *rapid.T) identity.PublicKey {
		raw := rapid.SliceOfN(rapid.Byte(), identity.PublicKeySize, identity.PublicKeySize).Draw(t, "key")
		pk, _ := identity.PublicKeyFromBytes(raw)
		return pk
	})
}

func titleGenerator() *rapid.Generator[string] {
	return rapid.StringOfN(rapid.Rune(), 1, 100, 100)
}

func TestDeriveIsDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		program := keyGenerator().Draw(t, "program")
		owner := keyGenerator().Draw(t, "owner")
		title := titleGenerator().Draw(t, "title")

		first, err := Derive(program, owner, title)
		if err != nil {
			t.Fatalf("derive: %v", err)
		}
		second, err := Derive(program, owner, title)
		if err != nil {
			t.Fatalf("derive again: %v", err)
		}
		if first != second {
			t.Fatalf("derive(%s, %q) not deterministic: %s != %s", owner, title, first, second)
		}
	})
}

func TestDeriveDistinctInputsGiveDistinctAddresses(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		program := keyGenerator().Draw(t, "program")
		owner1 := keyGenerator().Draw(t, "owner1")
		owner2 := keyGenerator().Draw(t, "owner2")
		title1 := titleGenerator().Draw(t, "title1")
		title2 := titleGenerator().Draw(t, "title2")

		if owner1 == owner2 && title1 == title2 {
			return
		}

		a1, err := Derive(program, owner1, title1)
		if err != nil {
			t.Fatalf("derive: %v", err)
		}
		a2, err := Derive(program, owner2, title2)
		if err != nil {
			t.Fatalf("derive: %v", err)
		}
		if a1 == a2 {
			t.Fatalf("collision: (%s, %q) and (%s, %q) -> %s", owner1, title1, owner2, title2, a1)
		}
	})
}

func TestDeriveSameTitleDifferentOwners(t *testing.T) {
	alice, err := identity.GenerateKeypairSigner()
	require.NoError(t, err)
	bob, err := identity.GenerateKeypairSigner()
	require.NoError(t, err)
	program, err := identity.GenerateKeypairSigner()
	require.NoError(t, err)

	a, err := Derive(program.PublicKey(), alice.PublicKey(), "Groceries")
	require.NoError(t, err)
	b, err := Derive(program.PublicKey(), bob.PublicKey(), "Groceries")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDeriveIsOffCurve(t *testing.T) {
	program, err := identity.GenerateKeypairSigner()
	require.NoError(t, err)
	owner, err := identity.GenerateKeypairSigner()
	require.NoError(t, err)

	addr, bump, err := FindAddress(program.PublicKey(), owner.PublicKey(), "Groceries")
	require.NoError(t, err)
	assert.False(t, onCurve(addr))

	again, err := CreateWithBump(program.PublicKey(), owner.PublicKey(), "Groceries", bump)
	require.NoError(t, err)
	assert.Equal(t, addr, again)
}

func TestDeriveUsesEncodedBytes(t *testing.T) {
	program, err := identity.GenerateKeypairSigner()
	require.NoError(t, err)
	owner, err := identity.GenerateKeypairSigner()
	require.NoError(t, err)

	// "é" precomposed vs "e" + combining acute accent: same glyph, different bytes
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"

	a, err := Derive(program.PublicKey(), owner.PublicKey(), composed)
	require.NoError(t, err)
	b, err := Derive(program.PublicKey(), owner.PublicKey(), decomposed)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	long := strings.Repeat("日", 33)
	_, err = Derive(program.PublicKey(), owner.PublicKey(), long)
	assert.NoError(t, err)
}

func TestParseRoundTrip(t *testing.T) {
	program, err := identity.GenerateKeypairSigner()
	require.NoError(t, err)

	addr, err := Derive(program.PublicKey(), program.PublicKey(), "x")
	require.NoError(t, err)

	parsed, err := Parse(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)

	_, err = Parse("not-an-address")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
