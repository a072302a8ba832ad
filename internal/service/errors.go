package service

import (
	"errors"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/pricing"
)

// Validation failures: rejected before anything is persisted.
var (
	ErrCarrinhoVazio       = errors.New("o carrinho está vazio")
	ErrOperadorAusente     = errors.New("nenhum operador autenticado")
	ErrValorInsuficiente   = pricing.ErrValorInsuficiente
	ErrValorForaDoLimite   = pricing.ErrValorForaDoLimite
	ErrClienteObrigatorio  = errors.New("selecione um cliente para vendas no crediário")
	ErrQuantidadeParcelas  = pricing.ErrQuantidadeParcelas
	ErrMetodoPagamento     = errors.New("forma de pagamento inválida")
	ErrItemInvalido        = errors.New("item do carrinho inválido")
	ErrStatusParcela       = errors.New("status de parcela inválido")
	ErrCodigoInvalido      = errors.New("código inválido")
	ErrPeriodoInvalido     = errors.New("período inválido")
	ErrEstoqueInsuficiente = errors.New("estoque insuficiente")
	ErrUsuarioJaExiste     = errors.New("nome de usuário já cadastrado")
)

// Not found.
var (
	ErrVendaNaoEncontrada   = errors.New("venda não encontrada")
	ErrParcelaNaoEncontrada = errors.New("parcela não encontrada")
	ErrProdutoNaoEncontrado = errors.New("produto não encontrado")
	ErrClienteNaoEncontrado = errors.New("cliente não encontrado")
	ErrUsuarioNaoEncontrado = errors.New("usuário não encontrado")
)

// State conflicts.
var (
	ErrVendaCancelada = errors.New("a venda está cancelada")
)

// Authentication and authorization.
var (
	ErrCredenciaisInvalidas = errors.New("credenciais inválidas")
	ErrTokenInvalido        = errors.New("token inválido ou expirado")
	ErrNaoAutorizado        = errors.New("autorização de supervisor inválida")
)

// External collaborators.
var (
	ErrInsightsDesabilitado = errors.New("insights não configurado")
	ErrInsightsIndisponivel = errors.New("serviço de insights indisponível")
)
