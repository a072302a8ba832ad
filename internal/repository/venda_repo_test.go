package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/model"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func novaVenda(metodo, total string, criada time.Time, parcelas int) *model.Venda {
	v := &model.Venda{
		OperadorID:      uuid.New(),
		OperadorNome:    "Ana",
		ClienteNome:     model.ConsumidorFinal,
		Status:          model.VendaFinalizada,
		MetodoPagamento: metodo,
		Subtotal:        dec(total),
		Total:           dec(total),
		ValorPago:       dec(total),
		CreatedAt:       criada.UTC(),
		Itens: []model.VendaItem{{
			ProdutoID:     uuid.New(),
			Nome:          "Camiseta",
			PrecoUnitario: dec(total),
			Quantidade:    1,
			Subtotal:      dec(total),
		}},
	}
	for n := parcelas; n >= 1; n-- {
		v.Parcelas = append(v.Parcelas, model.Parcela{
			Numero:     n,
			Valor:      dec(total).Div(decimal.NewFromInt(int64(parcelas))).Round(2),
			Vencimento: criada.UTC().AddDate(0, 0, 30*n),
			Status:     model.ParcelaPendente,
		})
	}
	return v
}

func TestVendaRepo_CreateEFindByID(t *testing.T) {
	db := novoBanco(t)
	repo := repository.NewVendaRepository(db)
	v := novaVenda(model.MetodoCrediario, "105.50", time.Now(), 3)

	require.NoError(t, repo.Create(context.Background(), db, v))
	got, err := repo.FindByID(context.Background(), v.ID)
	require.NoError(t, err)

	assert.Equal(t, model.VendaFinalizada, got.Status)
	assert.True(t, got.Total.Equal(dec("105.50")))
	require.Len(t, got.Itens, 1)
	require.Len(t, got.Parcelas, 3)
	for i, p := range got.Parcelas {
		assert.Equal(t, i+1, p.Numero, "parcelas ordered by numero")
	}
}

func TestVendaRepo_MarcarCanceladaUmaVez(t *testing.T) {
	db := novoBanco(t)
	repo := repository.NewVendaRepository(db)
	v := novaVenda(model.MetodoPix, "20.00", time.Now(), 0)
	require.NoError(t, repo.Create(context.Background(), db, v))

	ok, err := repo.MarcarCanceladaTx(db, v.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarcarCanceladaTx(db, v.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VendaCancelada, got.Status)
	assert.NotNil(t, got.CanceladaEm)
}

func TestVendaRepo_AtualizarParcela(t *testing.T) {
	db := novoBanco(t)
	repo := repository.NewVendaRepository(db)
	v := novaVenda(model.MetodoCrediario, "30.00", time.Now(), 2)
	require.NoError(t, repo.Create(context.Background(), db, v))

	agora := time.Now().UTC()
	ok, err := repo.AtualizarParcela(context.Background(), v.ID, 2, model.ParcelaPago, &agora)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.AtualizarParcela(context.Background(), v.ID, 3, model.ParcelaPago, &agora)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ParcelaPendente, got.Parcelas[0].Status)
	assert.Equal(t, model.ParcelaPago, got.Parcelas[1].Status)
	assert.NotNil(t, got.Parcelas[1].PagoEm)

	ok, err = repo.AtualizarParcela(context.Background(), v.ID, 2, model.ParcelaPendente, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	got, err = repo.FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Parcelas[1].PagoEm)
}

func TestVendaRepo_ListFiltros(t *testing.T) {
	db := novoBanco(t)
	repo := repository.NewVendaRepository(db)
	ontem := time.Now().Add(-24 * time.Hour)
	antiga := novaVenda(model.MetodoPix, "10.00", ontem, 0)
	nova := novaVenda(model.MetodoDebito, "20.00", time.Now(), 0)
	require.NoError(t, repo.Create(context.Background(), db, antiga))
	require.NoError(t, repo.Create(context.Background(), db, nova))

	todas, total, err := repo.List(context.Background(), repository.VendaFiltro{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, nova.ID, todas[0].ID, "newest first")

	corte := time.Now().Add(-time.Hour).UTC()
	recentes, total, err := repo.List(context.Background(), repository.VendaFiltro{De: &corte, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, nova.ID, recentes[0].ID)

	paginada, total, err := repo.List(context.Background(), repository.VendaFiltro{Page: 2, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, paginada, 1)
	assert.Equal(t, antiga.ID, paginada[0].ID)
}

func TestVendaRepo_Agregados(t *testing.T) {
	db := novoBanco(t)
	repo := repository.NewVendaRepository(db)
	agora := time.Now()
	for _, v := range []*model.Venda{
		novaVenda(model.MetodoPix, "10.00", agora, 0),
		novaVenda(model.MetodoPix, "15.00", agora, 0),
		novaVenda(model.MetodoDebito, "7.50", agora, 0),
	} {
		require.NoError(t, repo.Create(context.Background(), db, v))
	}
	cancelada := novaVenda(model.MetodoPix, "99.00", agora, 0)
	require.NoError(t, repo.Create(context.Background(), db, cancelada))
	_, err := repo.MarcarCanceladaTx(db, cancelada.ID, agora.UTC())
	require.NoError(t, err)

	de, ate := agora.Add(-time.Hour).UTC(), agora.Add(time.Hour).UTC()
	linhas, err := repo.TotaisPorMetodo(context.Background(), de, ate)
	require.NoError(t, err)
	require.Len(t, linhas, 2)
	assert.Equal(t, model.MetodoDebito, linhas[0].MetodoPagamento)
	assert.Equal(t, int64(1), linhas[0].Quantidade)
	assert.Equal(t, model.MetodoPix, linhas[1].MetodoPagamento)
	assert.Equal(t, int64(2), linhas[1].Quantidade)
	assert.True(t, linhas[1].Total.Equal(dec("25")))

	n, err := repo.CountCanceladas(context.Background(), de, ate)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestVendaRepo_CrediarioEAtrasadas(t *testing.T) {
	db := novoBanco(t)
	repo := repository.NewVendaRepository(db)
	velha := novaVenda(model.MetodoCrediario, "100.00", time.Now().AddDate(0, 0, -45), 2)
	require.NoError(t, repo.Create(context.Background(), db, velha))
	cancelada := novaVenda(model.MetodoCrediario, "60.00", time.Now().AddDate(0, 0, -45), 1)
	require.NoError(t, repo.Create(context.Background(), db, cancelada))
	_, err := repo.MarcarCanceladaTx(db, cancelada.ID, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), db, novaVenda(model.MetodoPix, "5.00", time.Now(), 0)))

	lista, err := repo.ListCrediario(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, lista, 1)
	assert.Equal(t, velha.ID, lista[0].ID)

	// first installment of the old sale is 15 days overdue
	n, valor, err := repo.ContarParcelasAtrasadas(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.True(t, valor.Equal(dec("50")))

	recentes, err := repo.ListRecentes(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, recentes, 2)
}
