package service_test

import (
	"context"
	"testing"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/dto"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/model"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/repository"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ledgerSQLite runs the sale service against real GORM repositories on an
// in-memory SQLite database, so transactions actually commit and roll back.
type ledgerSQLite struct {
	db       *gorm.DB
	svc      service.VendaService
	produtos repository.ProdutoRepository
	vendas   repository.VendaRepository
	movs     repository.MovimentoEstoqueRepository
}

func novoLedger(t *testing.T, bloquear bool) *ledgerSQLite {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.Todos()...))

	l := &ledgerSQLite{
		db:       db,
		produtos: repository.NewProdutoRepository(db),
		vendas:   repository.NewVendaRepository(db),
		movs:     repository.NewMovimentoEstoqueRepository(db),
	}
	l.svc = service.NewVendaService(service.VendaServiceParams{
		Vendas:           l.vendas,
		Produtos:         l.produtos,
		Movimentos:       l.movs,
		Clientes:         repository.NewClienteRepository(db),
		Configuracao:     repository.NewConfiguracaoRepository(db),
		BloquearSemSaldo: bloquear,
	})
	return l
}

func (l *ledgerSQLite) produto(t *testing.T, qtd int) *model.Produto {
	t.Helper()
	p := &model.Produto{Nome: "Caneca", Codigo: "CAN-01", PrecoVenda: decimal.RequireFromString("15.00"), Quantidade: qtd}
	require.NoError(t, l.produtos.Create(context.Background(), p))
	return p
}

func (l *ledgerSQLite) estoque(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := l.produtos.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Quantidade
}

func autorizacaoPorCodigo(t *testing.T) *service.Autorizacao {
	t.Helper()
	return buildVendaSvc(false).autorizacao(t)
}

func TestLedgerSQLite_VendaECancelamento(t *testing.T) {
	l := novoLedger(t, false)
	p := l.produto(t, 5)

	resp, err := l.svc.FinalizarVenda(context.Background(), operador, dto.FinalizarVendaRequest{
		Itens:           []dto.ItemVendaRequest{itemDe(p, 2)},
		MetodoPagamento: model.MetodoPix,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, l.estoque(t, p.ID))

	id := uuid.MustParse(resp.ID)
	aut := autorizacaoPorCodigo(t)
	require.NoError(t, l.svc.CancelarVenda(context.Background(), id, aut))
	require.NoError(t, l.svc.CancelarVenda(context.Background(), id, aut))
	assert.Equal(t, 5, l.estoque(t, p.ID))

	movs, err := l.movs.List(context.Background(), repository.MovimentoEstoqueFilter{VendaID: &id})
	require.NoError(t, err)
	require.Len(t, movs, 2)

	venda, err := l.vendas.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.VendaCancelada, venda.Status)
}

func TestLedgerSQLite_ModoEstritoDesfazTudo(t *testing.T) {
	l := novoLedger(t, true)
	farto := l.produto(t, 10)
	escasso := l.produto(t, 1)

	_, err := l.svc.FinalizarVenda(context.Background(), operador, dto.FinalizarVendaRequest{
		Itens:           []dto.ItemVendaRequest{itemDe(farto, 3), itemDe(escasso, 2)},
		MetodoPagamento: model.MetodoPix,
	})
	assert.ErrorIs(t, err, service.ErrEstoqueInsuficiente)

	assert.Equal(t, 10, l.estoque(t, farto.ID), "first item's decrement rolled back")
	assert.Equal(t, 1, l.estoque(t, escasso.ID))

	var vendas int64
	require.NoError(t, l.db.Model(&model.Venda{}).Count(&vendas).Error)
	assert.Zero(t, vendas)
	var movs int64
	require.NoError(t, l.db.Model(&model.MovimentoEstoque{}).Count(&movs).Error)
	assert.Zero(t, movs)
}

func TestLedgerSQLite_ConflitoPersistido(t *testing.T) {
	l := novoLedger(t, false)
	p := l.produto(t, 1)

	resp, err := l.svc.FinalizarVenda(context.Background(), operador, dto.FinalizarVendaRequest{
		Itens:           []dto.ItemVendaRequest{itemDe(p, 3)},
		MetodoPagamento: model.MetodoDinheiro,
		ValorRecebido:   dto.NewValor("50"),
	})
	require.NoError(t, err)
	assert.True(t, resp.ConflitoEstoque)
	assert.Equal(t, 0, l.estoque(t, p.ID))

	venda, err := l.vendas.FindByID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.True(t, venda.ConflitoEstoque)
	assert.True(t, venda.Troco.Equal(decimal.NewFromInt(5)))
}
