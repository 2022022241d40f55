package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/mr-tron/base58"

	"notevault/internal/entity"
	"notevault/pkg/address"
	"notevault/pkg/identity"
)

// structure of a note account:
//
//	discriminator(8) ⧺ owner(32) ⧺ u32 len ⧺ title ⧺ u32 len ⧺ content ⧺ i64 createdAt ⧺ i64 updatedAt
//
// integers are little endian, timestamps are epoch seconds
const (
	discriminatorLength = 8
	lengthPrefixSize    = 4
	timestampSize       = 8

	// OwnerOffset is where the owner key starts; queries filter on it.
	OwnerOffset = discriminatorLength
	ownerFinish = OwnerOffset + identity.PublicKeySize
)

// NoteDiscriminator tags account data as a note.
var NoteDiscriminator = accountDiscriminator("Note")

var (
	errShortAccount        = errors.New("account data too short")
	errWrongDiscriminator  = errors.New("account is not a note")
	errTrailingAccountData = errors.New("unexpected trailing account data")
)

func accountDiscriminator(name string) [discriminatorLength]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [discriminatorLength]byte
	copy(d[:], sum[:discriminatorLength])
	return d
}

// EncodeNote packs a note into account data. The address is not part of the
// data; it is the key the data is stored under.
func EncodeNote(n *entity.Note) []byte {
	buf := make([]byte, 0, ownerFinish+2*lengthPrefixSize+len(n.Title)+len(n.Content)+2*timestampSize)
	buf = append(buf, NoteDiscriminator[:]...)
	buf = append(buf, n.Owner.Bytes()...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(n.Title)))
	buf = append(buf, n.Title...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(n.Content)))
	buf = append(buf, n.Content...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(n.CreatedAt.Unix()))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(n.UpdatedAt.Unix()))
	return buf
}

// DecodeNote unpacks account data stored at addr.
func DecodeNote(addr address.Address, data []byte) (*entity.Note, error) {
	if len(data) < ownerFinish {
		return nil, errShortAccount
	}
	if !bytes.Equal(data[:discriminatorLength], NoteDiscriminator[:]) {
		return nil, errWrongDiscriminator
	}
	owner, err := identity.PublicKeyFromBytes(data[OwnerOffset:ownerFinish])
	if err != nil {
		return nil, err
	}

	rest := data[ownerFinish:]
	title, rest, err := readString(rest)
	if err != nil {
		return nil, fmt.Errorf("title: %w", err)
	}
	content, rest, err := readString(rest)
	if err != nil {
		return nil, fmt.Errorf("content: %w", err)
	}
	if len(rest) < 2*timestampSize {
		return nil, errShortAccount
	}
	createdAt := int64(binary.LittleEndian.Uint64(rest[:timestampSize]))
	updatedAt := int64(binary.LittleEndian.Uint64(rest[timestampSize : 2*timestampSize]))
	if len(rest) != 2*timestampSize {
		return nil, errTrailingAccountData
	}

	return &entity.Note{
		Address:   addr,
		Owner:     owner,
		Title:     title,
		Content:   content,
		CreatedAt: time.Unix(createdAt, 0).UTC(),
		UpdatedAt: time.Unix(updatedAt, 0).UTC(),
	}, nil
}

func readString(b []byte) (string, []byte, error) {
	if len(b) < lengthPrefixSize {
		return "", nil, errShortAccount
	}
	n := binary.LittleEndian.Uint32(b[:lengthPrefixSize])
	b = b[lengthPrefixSize:]
	if uint64(len(b)) < uint64(n) {
		return "", nil, errShortAccount
	}
	return string(b[:n]), b[n:], nil
}

// MemcmpFilter selects accounts whose data holds Bytes at Offset.
type MemcmpFilter struct {
	Offset int    `json:"offset"`
	Bytes  string `json:"bytes"` // base58
}

// OwnerFilter matches notes owned by owner.
func OwnerFilter(owner identity.PublicKey) MemcmpFilter {
	return MemcmpFilter{Offset: OwnerOffset, Bytes: owner.String()}
}

// Match reports whether data satisfies the filter.
func (f MemcmpFilter) Match(data []byte) (bool, error) {
	want, err := base58.Decode(f.Bytes)
	if err != nil {
		return false, fmt.Errorf("memcmp bytes: %w", err)
	}
	if f.Offset < 0 || f.Offset+len(want) > len(data) {
		return false, nil
	}
	return bytes.Equal(data[f.Offset:f.Offset+len(want)], want), nil
}

// MatchAll applies every filter to data.
func MatchAll(filters []MemcmpFilter, data []byte) (bool, error) {
	for _, f := range filters {
		ok, err := f.Match(data)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}
