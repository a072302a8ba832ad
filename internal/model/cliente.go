package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConsumidorFinal is the customer name recorded on sales without a registered customer.
const ConsumidorFinal = "Consumidor Final"

// Cliente is a registered customer. Required for crediário sales.
type Cliente struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nome      string    `gorm:"index;not null"`
	Contato   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Cliente) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
