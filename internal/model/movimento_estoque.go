package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Movement types
const (
	MovimentoVenda        = "venda"
	MovimentoEstorno      = "estorno_cancelamento"
	MovimentoAjusteManual = "ajuste_manual"
)

// MovimentoEstoque records every change to a product's quantity.
// Created by the ledger on sale and void, and by manual adjustments.
type MovimentoEstoque struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProdutoID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Tipo       string    `gorm:"type:varchar(30);not null"`
	Quantidade int       `gorm:"not null"` // positive = entrada, negative = saída
	// Aplicada is the delta actually applied; differs from Quantidade when clamped at zero.
	Aplicada    int `gorm:"not null"`
	EstoqueNovo int `gorm:"not null"`
	Motivo      string
	VendaID     *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt   time.Time
}

// TableName overrides GORM's default pluralization.
func (MovimentoEstoque) TableName() string { return "movimentos_estoque" }

func (m *MovimentoEstoque) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
