package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CriarProdutoRequest struct {
	Nome        string `json:"nome"         validate:"required,min=1,max=200"`
	Codigo      string `json:"codigo"       validate:"required,max=64,printascii"`
	PrecoCompra Valor  `json:"preco_compra" validate:"min=0"`
	PrecoVenda  Valor  `json:"preco_venda"  validate:"min=0"`
	Quantidade  int    `json:"quantidade"   validate:"min=0"`
}

// AtualizarProdutoRequest is a partial update; nil fields are left untouched.
// Stock is changed through AjustarEstoqueRequest only.
type AtualizarProdutoRequest struct {
	Nome        *string `json:"nome"         validate:"omitempty,min=1,max=200"`
	Codigo      *string `json:"codigo"       validate:"omitempty,max=64,printascii"`
	PrecoCompra *Valor  `json:"preco_compra" validate:"omitempty,min=0"`
	PrecoVenda  *Valor  `json:"preco_venda"  validate:"omitempty,min=0"`
}

type AjustarEstoqueRequest struct {
	// Delta is signed: positive = entrada, negative = saída.
	Delta  int    `json:"delta"  validate:"required"`
	Motivo string `json:"motivo" validate:"required,min=3,max=200"`
}

type ProdutoFilter struct {
	Busca string `form:"q"                 validate:"max=100"`
	Page  int    `form:"page,default=1"    validate:"min=1"`
	Limit int    `form:"limit,default=100" validate:"min=1,max=1000"`
}

type EtiquetasQuery struct {
	Copias int `form:"copias,default=1" validate:"min=1,max=270"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProdutoResponse struct {
	ID           string          `json:"id"`
	Nome         string          `json:"nome"`
	Codigo       string          `json:"codigo"`
	PrecoCompra  decimal.Decimal `json:"preco_compra"`
	PrecoVenda   decimal.Decimal `json:"preco_venda"`
	Quantidade   int             `json:"quantidade"`
	EstoqueBaixo bool            `json:"estoque_baixo"`
}

type ProdutoListResponse struct {
	Data  []ProdutoResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// PrecoResponse is the public price check payload; cost price is never exposed.
type PrecoResponse struct {
	Nome       string          `json:"nome"`
	Codigo     string          `json:"codigo"`
	PrecoVenda decimal.Decimal `json:"preco_venda"`
	Disponivel bool            `json:"disponivel"`
}

type MovimentoEstoqueResponse struct {
	ID          string  `json:"id"`
	ProdutoID   string  `json:"produto_id"`
	Tipo        string  `json:"tipo"`
	Quantidade  int     `json:"quantidade"`
	Aplicada    int     `json:"aplicada"`
	EstoqueNovo int     `json:"estoque_novo"`
	Motivo      string  `json:"motivo"`
	VendaID     *string `json:"venda_id"`
	CreatedAt   string  `json:"created_at"`
}
