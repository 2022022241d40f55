package specification

import (
	"notevault/pkg/address"
	"notevault/pkg/identity"

	"gorm.io/gorm"
)

type ByAddress struct {
	Address address.Address
}

func (s ByAddress) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("address = ?", s.Address.String())
}

type ByOwner struct {
	Owner identity.PublicKey
}

func (s ByOwner) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("owner = ?", s.Owner.String())
}

type ByNonce struct {
	Nonce string
}

func (s ByNonce) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("nonce = ?", s.Nonce)
}
