package model

import "time"

// NomeEmpresaPadrao is shown on receipts and labels until the store saves its own name.
const NomeEmpresaPadrao = "Vibrant POS"

// ConfiguracaoID is the primary key of the single settings row.
const ConfiguracaoID = 1

// Configuracao holds display settings used by receipts and labels.
type Configuracao struct {
	ID          int    `gorm:"primaryKey"`
	NomeEmpresa string `gorm:"not null;default:''"`
	LogoURL     string `gorm:"column:logo_url"`
	PixQRURL    string `gorm:"column:pix_qr_url"`
	UpdatedAt   time.Time
}

// TableName overrides GORM's default pluralization (configuracaos → configuracoes).
func (Configuracao) TableName() string { return "configuracoes" }

// NomeExibicao returns the company name, falling back to the default.
func (c *Configuracao) NomeExibicao() string {
	if c == nil || c.NomeEmpresa == "" {
		return NomeEmpresaPadrao
	}
	return c.NomeEmpresa
}
