package model

import (
	"time"

	"gorm.io/datatypes"
)

// NoteAccount is the live state of one ledger address. Owner duplicates
// bytes 8..40 of Data so owner queries can use the index.
type NoteAccount struct {
	Address   string    `gorm:"type:varchar(44);primaryKey"`
	Owner     string    `gorm:"type:varchar(44);not null;index"`
	Data      []byte    `gorm:"type:bytea;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (NoteAccount) TableName() string {
	return "note_accounts"
}

// Commitment is one entry of the append-only transaction log.
type Commitment struct {
	Sequence    uint64         `gorm:"primaryKey;autoIncrement"`
	Signature   string         `gorm:"type:varchar(128);not null"`
	Instruction string         `gorm:"type:varchar(32);not null"`
	Address     string         `gorm:"type:varchar(44);not null;index"`
	Signer      string         `gorm:"type:varchar(44);not null"`
	Nonce       string         `gorm:"type:varchar(64);not null;uniqueIndex"`
	Data        []byte         `gorm:"type:bytea"`
	Closed      bool           `gorm:"not null;default:false"`
	Payload     datatypes.JSON `gorm:"type:jsonb"`
	CommittedAt time.Time      `gorm:"not null"`
}

func (Commitment) TableName() string {
	return "ledger_commitments"
}
