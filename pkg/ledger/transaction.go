package ledger

import (
	"encoding/binary"
	"errors"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"notevault/pkg/address"
	"notevault/pkg/identity"
)

// Instruction names a note program operation.
type Instruction string

const (
	InstructionCreateNote Instruction = "createNote"
	InstructionUpdateNote Instruction = "updateNote"
	InstructionDeleteNote Instruction = "deleteNote"
)

func (i Instruction) Valid() bool {
	switch i {
	case InstructionCreateNote, InstructionUpdateNote, InstructionDeleteNote:
		return true
	}
	return false
}

// NoteArgs is the instruction payload. Title is only meaningful for
// createNote; content is empty for deleteNote.
type NoteArgs struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

// Transaction is a signed request keyed by program, record address and
// payload.
type Transaction struct {
	Program     identity.PublicKey `json:"program"`
	Instruction Instruction        `json:"instruction"`
	Address     address.Address    `json:"address"`
	Signer      identity.PublicKey `json:"signer"`
	Args        NoteArgs           `json:"args"`
	Nonce       string             `json:"nonce"`
	Signature   []byte             `json:"signature"`
}

var ErrUnsigned = errors.New("transaction is not signed")

// NewTransaction builds an unsigned transaction with a fresh nonce.
func NewTransaction(program identity.PublicKey, ins Instruction, addr address.Address, signer identity.PublicKey, args NoteArgs) *Transaction {
	return &Transaction{
		Program:     program,
		Instruction: ins,
		Address:     addr,
		Signer:      signer,
		Args:        args,
		Nonce:       uuid.NewString(),
	}
}

// Message is the canonical byte form that gets signed. Every variable
// length field is length prefixed.
func (tx *Transaction) Message() []byte {
	buf := make([]byte, 0, 128+len(tx.Args.Title)+len(tx.Args.Content))
	buf = append(buf, tx.Program.Bytes()...)
	buf = appendField(buf, []byte(tx.Instruction))
	buf = append(buf, tx.Address.Bytes()...)
	buf = append(buf, tx.Signer.Bytes()...)
	buf = appendField(buf, []byte(tx.Args.Title))
	buf = appendField(buf, []byte(tx.Args.Content))
	buf = appendField(buf, []byte(tx.Nonce))
	return buf
}

func appendField(buf, field []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(field)))
	return append(buf, field...)
}

// Sign attaches a signature from s. The signer must be the transaction's
// declared signer.
func (tx *Transaction) Sign(s identity.Signer) error {
	if s.PublicKey() != tx.Signer {
		return errors.New("signer does not match transaction signer")
	}
	sig, err := s.Sign(tx.Message())
	if err != nil {
		return err
	}
	tx.Signature = sig
	return nil
}

// Verify checks the signature against the declared signer.
func (tx *Transaction) Verify() error {
	if len(tx.Signature) == 0 {
		return ErrUnsigned
	}
	if !tx.Signer.Verify(tx.Message(), tx.Signature) {
		return errors.New("signature does not verify")
	}
	return nil
}

// ID is the base58 signature, used as the transaction identifier.
func (tx *Transaction) ID() string {
	return base58.Encode(tx.Signature)
}
