// Package identity models the cryptographic principals that own notes and
// sign ledger transactions.
package identity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ed25519"
)

// PublicKeySize is the length of an identity public key in bytes.
const PublicKeySize = ed25519.PublicKeySize

var (
	ErrInvalidKeyLength = errors.New("public key length is invalid")
	ErrCannotDecodeKey  = errors.New("public key cannot be decoded")
)

// PublicKey identifies an owner. The zero value is not a valid identity.
type PublicKey [PublicKeySize]byte

// PublicKeyFromBase58 decodes the text form of a public key.
func PublicKeyFromBase58(s string) (PublicKey, error) {
	var pk PublicKey
	decoded, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("%w: %v", ErrCannotDecodeKey, err)
	}
	return PublicKeyFromBytes(decoded)
}

// PublicKeyFromBytes copies a raw 32-byte key.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var pk PublicKey
	if len(b) != PublicKeySize {
		return pk, ErrInvalidKeyLength
	}
	copy(pk[:], b)
	return pk, nil
}

func (pk PublicKey) Bytes() []byte {
	return pk[:]
}

func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

func (pk PublicKey) Equal(other PublicKey) bool {
	return bytes.Equal(pk[:], other[:])
}

func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

func (pk *PublicKey) UnmarshalText(s []byte) error {
	decoded, err := PublicKeyFromBase58(string(s))
	if err != nil {
		return err
	}
	*pk = decoded
	return nil
}

// Verify checks an ed25519 signature made by pk over message.
func (pk PublicKey) Verify(message, signature []byte) bool {
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pk[:]), message, signature)
}

// Signer supplies the active identity and a signing capability. The vault
// core never sees private key material directly.
type Signer interface {
	PublicKey() PublicKey
	Sign(message []byte) ([]byte, error)
}

// KeypairSigner signs with an in-memory ed25519 private key.
type KeypairSigner struct {
	private ed25519.PrivateKey
	public  PublicKey
}

// NewKeypairSigner wraps an existing ed25519 private key.
func NewKeypairSigner(private ed25519.PrivateKey) (*KeypairSigner, error) {
	if len(private) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKeyLength
	}
	pub, err := PublicKeyFromBytes(private.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &KeypairSigner{private: private, public: pub}, nil
}

// GenerateKeypairSigner creates a fresh random keypair.
func GenerateKeypairSigner() (*KeypairSigner, error) {
	_, private, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, err
	}
	return NewKeypairSigner(private)
}

func (s *KeypairSigner) PublicKey() PublicKey {
	return s.public
}

func (s *KeypairSigner) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(s.private, message), nil
}

// MarshalJSON writes the keypair as a JSON array of 64 byte values, the
// format used by common wallet command line tools.
func (s *KeypairSigner) MarshalJSON() ([]byte, error) {
	values := make([]int, len(s.private))
	for i, b := range s.private {
		values[i] = int(b)
	}
	return json.Marshal(values)
}

// KeypairFromJSON parses the JSON array form written by MarshalJSON.
func KeypairFromJSON(data []byte) (*KeypairSigner, error) {
	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse keypair: %w", err)
	}
	if len(values) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKeyLength
	}
	private := make(ed25519.PrivateKey, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("parse keypair: byte %d out of range", i)
		}
		private[i] = byte(v)
	}
	return NewKeypairSigner(private)
}
