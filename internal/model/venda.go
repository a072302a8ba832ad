package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale status
const (
	VendaFinalizada = "finalizada"
	VendaCancelada  = "cancelada"
)

// Installment status
const (
	ParcelaPendente = "pendente"
	ParcelaPago     = "pago"
)

// Payment methods
const (
	MetodoPix       = "pix"
	MetodoDinheiro  = "dinheiro"
	MetodoDebito    = "debito"
	MetodoCredito   = "credito"
	MetodoCrediario = "crediario"
)

// MetodosPagamento lists every accepted payment method.
var MetodosPagamento = []string{MetodoPix, MetodoDinheiro, MetodoDebito, MetodoCredito, MetodoCrediario}

// Venda is a finalized (or later cancelled) sale. Operator and customer are
// snapshots, not joins; the record is never deleted.
type Venda struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OperadorID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	OperadorNome    string          `gorm:"not null"`
	ClienteID       *uuid.UUID      `gorm:"type:uuid;index"`
	ClienteNome     string          `gorm:"not null"`
	Status          string          `gorm:"type:varchar(20);not null;default:'finalizada';index"`
	MetodoPagamento string          `gorm:"type:varchar(20);not null"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Taxa            decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ValorPago       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Troco           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// ConflitoEstoque is set when at least one item sold more than was in stock.
	ConflitoEstoque bool `gorm:"not null;default:false"`
	CanceladaEm     *time.Time
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time

	Itens    []VendaItem `gorm:"foreignKey:VendaID"`
	Parcelas []Parcela   `gorm:"foreignKey:VendaID"`
}

func (v *Venda) BeforeCreate(_ *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// VendaItem is an immutable snapshot of a cart line at finalization time.
type VendaItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VendaID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProdutoID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Nome          string          `gorm:"not null"`
	Codigo        string
	PrecoUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantidade    int             `gorm:"not null"`
	// Desconto is per unit, in currency.
	Desconto decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Subtotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName overrides GORM's default pluralization.
func (VendaItem) TableName() string { return "venda_itens" }

func (i *VendaItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Parcela is one installment of a crediário sale. The set is created with the
// sale and never resized; only Status and PagoEm change afterwards.
type Parcela struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VendaID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_parcela_venda_numero"`
	Numero     int             `gorm:"not null;uniqueIndex:idx_parcela_venda_numero"`
	Valor      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Vencimento time.Time       `gorm:"not null;index"`
	Status     string          `gorm:"type:varchar(20);not null;default:'pendente'"`
	PagoEm     *time.Time
}

func (p *Parcela) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Todos lists every persisted model, in dependency order, for AutoMigrate in tests.
func Todos() []interface{} {
	return []interface{}{
		&Produto{}, &Cliente{}, &Usuario{}, &Configuracao{},
		&Venda{}, &VendaItem{}, &Parcela{}, &MovimentoEstoque{},
	}
}
