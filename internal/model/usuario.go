package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles
const (
	RolAdmin    = "admin"
	RolVendedor = "vendedor"
)

// Usuario is a register operator. Operators authenticate with username + PIN;
// only the bcrypt hash of the PIN is stored.
type Usuario struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username  string    `gorm:"uniqueIndex;not null"`
	Nome      string    `gorm:"not null"`
	Email     *string
	PinHash   string `gorm:"not null"`
	Rol       string `gorm:"type:varchar(20);not null"`
	Ativo     bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *Usuario) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
