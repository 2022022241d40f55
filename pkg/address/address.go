// Package address derives the deterministic storage location of a note.
//
// A note lives at a program-derived address: a SHA-256 digest of the
// namespace tag, the owner's public key, the exact title bytes, a bump byte
// and the program identity, chosen so that the result is not a valid ed25519
// point and therefore has no private key.
package address

import (
	"bytes"
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"notevault/pkg/identity"
)

// Size is the address length in bytes.
const Size = 32

// NoteNamespace is the fixed seed that scopes note addresses.
const NoteNamespace = "note"

const pdaMarker = "ProgramDerivedAddress"

var (
	ErrNoViableBump   = errors.New("no bump seed yields an off-curve address")
	ErrInvalidAddress = errors.New("address is invalid")
)

// Address is the storage key of a note on the ledger.
type Address [Size]byte

// Parse decodes the base58 text form.
func Parse(s string) (Address, error) {
	var a Address
	decoded, err := base58.Decode(s)
	if err != nil || len(decoded) != Size {
		return a, ErrInvalidAddress
	}
	copy(a[:], decoded)
	return a, nil
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// Compare orders addresses bytewise.
func (a Address) Compare(other Address) int {
	return bytes.Compare(a[:], other[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(s []byte) error {
	parsed, err := Parse(string(s))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Derive returns the address of the note titled title owned by owner under
// program. The title is used as its exact byte sequence, with no
// normalisation.
func Derive(program, owner identity.PublicKey, title string) (Address, error) {
	addr, _, err := FindAddress(program, owner, title)
	return addr, err
}

// FindAddress is Derive that also reports the bump seed that produced the
// address.
func FindAddress(program, owner identity.PublicKey, title string) (Address, uint8, error) {
	return findProgramAddress(program, []byte(NoteNamespace), owner.Bytes(), []byte(title))
}

func findProgramAddress(program identity.PublicKey, seeds ...[]byte) (Address, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		candidate := hashSeeds(program, append(seeds, []byte{byte(bump)}))
		if !onCurve(candidate) {
			return candidate, uint8(bump), nil
		}
	}
	return Address{}, 0, ErrNoViableBump
}

// CreateWithBump recomputes an address from a known bump. It fails if the
// result lies on the curve.
func CreateWithBump(program, owner identity.PublicKey, title string, bump uint8) (Address, error) {
	candidate := hashSeeds(program, [][]byte{[]byte(NoteNamespace), owner.Bytes(), []byte(title), {bump}})
	if onCurve(candidate) {
		return Address{}, ErrInvalidAddress
	}
	return candidate, nil
}

func hashSeeds(program identity.PublicKey, seeds [][]byte) Address {
	h := sha256.New()
	for _, s := range seeds {
		h.Write(s)
	}
	h.Write(program.Bytes())
	h.Write([]byte(pdaMarker))

	var a Address
	copy(a[:], h.Sum(nil))
	return a
}

func onCurve(a Address) bool {
	_, err := new(edwards25519.Point).SetBytes(a[:])
	return err == nil
}
