package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EstoqueBaixoLimite is the quantity under which a product is flagged as low stock.
const EstoqueBaixoLimite = 5

// Produto is a catalog entry. Codigo is the scan/lookup key; it is indexed
// but not unique, the catalog tolerates duplicated codes.
type Produto struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Nome        string          `gorm:"index;not null"`
	Codigo      string          `gorm:"index;not null"`
	PrecoCompra decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PrecoVenda  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// Quantidade is never driven below zero by the ledger.
	Quantidade int `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (p *Produto) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// EstoqueBaixo reports whether the product should be highlighted for restock.
func (p *Produto) EstoqueBaixo() bool { return p.Quantidade < EstoqueBaixoLimite }
