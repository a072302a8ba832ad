package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// VendaFilter is bound from query string of GET /v1/vendas.
type VendaFilter struct {
	Status    string `form:"status"     validate:"omitempty,oneof=finalizada cancelada"`
	De        string `form:"de"         validate:"omitempty,datetime=2006-01-02"`
	Ate       string `form:"ate"        validate:"omitempty,datetime=2006-01-02"`
	ClienteID string `form:"cliente_id" validate:"omitempty,uuid"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=500"`
}

type VendaListResponse struct {
	Data  []VendaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// CrediarioFilter is bound from query string of GET /v1/crediario.
type CrediarioFilter struct {
	ClienteID string `form:"cliente_id" validate:"omitempty,uuid"`
	// Pendentes keeps only sales with at least one unpaid installment.
	Pendentes bool `form:"pendentes"`
}

// ResumoFilter is bound from query string of GET /v1/vendas/resumo.
type ResumoFilter struct {
	De  string `form:"de"  validate:"omitempty,datetime=2006-01-02"`
	Ate string `form:"ate" validate:"omitempty,datetime=2006-01-02"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ItemVendaRequest is a cart line. Nome, Codigo and PrecoUnitario are the
// snapshot taken when the product was added to the cart.
type ItemVendaRequest struct {
	ProdutoID     string `json:"produto_id"     validate:"required,uuid"`
	Nome          string `json:"nome"           validate:"required,max=200"`
	Codigo        string `json:"codigo"         validate:"max=64"`
	PrecoUnitario Valor  `json:"preco_unitario" validate:"min=0"`
	// Quantidade 0 (blank) counts as 1.
	Quantidade int   `json:"quantidade" validate:"min=0,max=100000"`
	Desconto   Valor `json:"desconto"   validate:"min=0"`
}

type FinalizarVendaRequest struct {
	Itens           []ItemVendaRequest `json:"itens"            validate:"dive"`
	ClienteID       *string            `json:"cliente_id"       validate:"omitempty,uuid"`
	MetodoPagamento string             `json:"metodo_pagamento" validate:"required,oneof=pix dinheiro debito credito crediario"`
	// ValorRecebido is required for cash payments only.
	ValorRecebido Valor `json:"valor_recebido"`
	// NumeroParcelas applies to crediário; 0 means a single installment.
	NumeroParcelas int `json:"numero_parcelas" validate:"min=0,max=24"`
	// ClienteEmail is optional; when present, the receipt worker mails the PDF.
	ClienteEmail *string `json:"cliente_email" validate:"omitempty,email"`
}

type CancelarVendaRequest struct {
	CodigoAutorizacao string `json:"codigo_autorizacao" validate:"required,max=128"`
}

type AtualizarParcelaRequest struct {
	Status string `json:"status" validate:"required,oneof=pendente pago"`
}

// LinhaCarrinhoRequest is a line of a cart preview; no product reference needed.
type LinhaCarrinhoRequest struct {
	PrecoUnitario Valor `json:"preco_unitario" validate:"min=0"`
	Quantidade    int   `json:"quantidade"     validate:"min=0,max=100000"`
	Desconto      Valor `json:"desconto"       validate:"min=0"`
}

type CarrinhoTotaisRequest struct {
	Itens           []LinhaCarrinhoRequest `json:"itens"            validate:"dive"`
	MetodoPagamento string                 `json:"metodo_pagamento" validate:"required,oneof=pix dinheiro debito credito crediario"`
	ValorRecebido   Valor                  `json:"valor_recebido"`
	NumeroParcelas  int                    `json:"numero_parcelas"  validate:"min=0,max=24"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVendaResponse struct {
	ProdutoID     string          `json:"produto_id"`
	Nome          string          `json:"nome"`
	Codigo        string          `json:"codigo"`
	PrecoUnitario decimal.Decimal `json:"preco_unitario"`
	Quantidade    int             `json:"quantidade"`
	Desconto      decimal.Decimal `json:"desconto"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

type ParcelaResponse struct {
	Numero     int             `json:"numero"`
	Valor      decimal.Decimal `json:"valor"`
	Vencimento string          `json:"vencimento"`
	Status     string          `json:"status"`
	PagoEm     *string         `json:"pago_em"`
}

type VendaResponse struct {
	ID              string              `json:"id"`
	OperadorID      string              `json:"operador_id"`
	OperadorNome    string              `json:"operador_nome"`
	ClienteID       *string             `json:"cliente_id"`
	ClienteNome     string              `json:"cliente_nome"`
	Status          string              `json:"status"`
	MetodoPagamento string              `json:"metodo_pagamento"`
	Itens           []ItemVendaResponse `json:"itens"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	Taxa            decimal.Decimal     `json:"taxa"`
	Total           decimal.Decimal     `json:"total"`
	ValorPago       decimal.Decimal     `json:"valor_pago"`
	Troco           decimal.Decimal     `json:"troco"`
	ConflitoEstoque bool                `json:"conflito_estoque"`
	Parcelas        []ParcelaResponse   `json:"parcelas"`
	CanceladaEm     *string             `json:"cancelada_em"`
	CreatedAt       string              `json:"created_at"`
}

type CrediarioResponse struct {
	VendaID           string            `json:"venda_id"`
	ClienteID         *string           `json:"cliente_id"`
	ClienteNome       string            `json:"cliente_nome"`
	Total             decimal.Decimal   `json:"total"`
	Pago              decimal.Decimal   `json:"pago"`
	Pendente          decimal.Decimal   `json:"pendente"`
	ParcelasPendentes int               `json:"parcelas_pendentes"`
	Atrasadas         int               `json:"atrasadas"`
	ProximoVencimento *string           `json:"proximo_vencimento"`
	Parcelas          []ParcelaResponse `json:"parcelas"`
	CreatedAt         string            `json:"created_at"`
}

type ResumoResponse struct {
	De               string                     `json:"de"`
	Ate              string                     `json:"ate"`
	QuantidadeVendas int64                      `json:"quantidade_vendas"`
	Faturamento      decimal.Decimal            `json:"faturamento"`
	Taxas            decimal.Decimal            `json:"taxas"`
	TicketMedio      decimal.Decimal            `json:"ticket_medio"`
	PorMetodo        map[string]decimal.Decimal `json:"por_metodo"`
	Canceladas       int64                      `json:"canceladas"`
}

type CarrinhoTotaisResponse struct {
	Subtotal          decimal.Decimal   `json:"subtotal"`
	Taxa              decimal.Decimal   `json:"taxa"`
	Total             decimal.Decimal   `json:"total"`
	Troco             decimal.Decimal   `json:"troco"`
	ValorInsuficiente bool              `json:"valor_insuficiente"`
	Parcelas          []ParcelaResponse `json:"parcelas"`
}

// VendaCSV is one row of GET /v1/vendas/export.csv.
type VendaCSV struct {
	ID              string `csv:"id"`
	Data            string `csv:"data"`
	Operador        string `csv:"operador"`
	Cliente         string `csv:"cliente"`
	MetodoPagamento string `csv:"metodo_pagamento"`
	Status          string `csv:"status"`
	Itens           int    `csv:"itens"`
	Subtotal        string `csv:"subtotal"`
	Taxa            string `csv:"taxa"`
	Total           string `csv:"total"`
	Parcelas        int    `csv:"parcelas"`
}
