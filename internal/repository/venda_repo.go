package repository

import (
	"context"
	"time"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VendaFiltro is the query-level form of dto.VendaFilter, dates already parsed.
type VendaFiltro struct {
	Status    string
	De        *time.Time // inclusive
	Ate       *time.Time // exclusive
	ClienteID *uuid.UUID
	Page      int
	Limit     int
}

// TotalMetodo is one row of the revenue aggregate, grouped by payment method.
type TotalMetodo struct {
	MetodoPagamento string
	Quantidade      int64
	Total           decimal.Decimal
	Taxa            decimal.Decimal
}

type VendaRepository interface {
	// Create inserts the sale with its items and installments.
	Create(ctx context.Context, tx *gorm.DB, v *model.Venda) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venda, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Venda, error)
	// MarcarCanceladaTx flips finalizada → cancelada. Returns false when the
	// sale was not in finalizada, so a second void changes nothing.
	MarcarCanceladaTx(tx *gorm.DB, id uuid.UUID, em time.Time) (bool, error)
	// MarcarConflitoEstoqueTx flags a sale whose items were clamped at zero stock.
	MarcarConflitoEstoqueTx(tx *gorm.DB, id uuid.UUID) error
	// AtualizarParcela sets status and pago_em of one installment; returns false
	// when the sale has no installment with that number.
	AtualizarParcela(ctx context.Context, vendaID uuid.UUID, numero int, status string, pagoEm *time.Time) (bool, error)
	List(ctx context.Context, filter VendaFiltro) ([]model.Venda, int64, error)
	ListRecentes(ctx context.Context, limit int) ([]model.Venda, error)
	// ListCrediario returns non-cancelled crediário sales with their installments.
	ListCrediario(ctx context.Context, clienteID *uuid.UUID) ([]model.Venda, error)
	TotaisPorMetodo(ctx context.Context, de, ate time.Time) ([]TotalMetodo, error)
	CountCanceladas(ctx context.Context, de, ate time.Time) (int64, error)
	// ContarParcelasAtrasadas counts pending installments of active sales due before ref.
	ContarParcelasAtrasadas(ctx context.Context, ref time.Time) (int64, decimal.Decimal, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type vendaRepo struct{ db *gorm.DB }

func NewVendaRepository(db *gorm.DB) VendaRepository { return &vendaRepo{db: db} }

func (r *vendaRepo) DB() *gorm.DB { return r.db }

func (r *vendaRepo) Create(ctx context.Context, tx *gorm.DB, v *model.Venda) error {
	return tx.WithContext(ctx).Create(v).Error
}

func (r *vendaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venda, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *vendaRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Venda, error) {
	var v model.Venda
	err := preloadDetalhes(tx).Where("id = ?", id).First(&v).Error
	return &v, err
}

func (r *vendaRepo) MarcarCanceladaTx(tx *gorm.DB, id uuid.UUID, em time.Time) (bool, error) {
	res := tx.Model(&model.Venda{}).
		Where("id = ? AND status = ?", id, model.VendaFinalizada).
		Updates(map[string]interface{}{
			"status":       model.VendaCancelada,
			"cancelada_em": em,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *vendaRepo) MarcarConflitoEstoqueTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Model(&model.Venda{}).Where("id = ?", id).Update("conflito_estoque", true).Error
}

func (r *vendaRepo) AtualizarParcela(ctx context.Context, vendaID uuid.UUID, numero int, status string, pagoEm *time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Parcela{}).
		Where("venda_id = ? AND numero = ?", vendaID, numero).
		Updates(map[string]interface{}{
			"status":  status,
			"pago_em": pagoEm,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *vendaRepo) List(ctx context.Context, filter VendaFiltro) ([]model.Venda, int64, error) {
	var vendas []model.Venda
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Venda{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.De != nil {
		q = q.Where("created_at >= ?", *filter.De)
	}
	if filter.Ate != nil {
		q = q.Where("created_at < ?", *filter.Ate)
	}
	if filter.ClienteID != nil {
		q = q.Where("cliente_id = ?", *filter.ClienteID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := preloadDetalhes(q).
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&vendas).Error
	return vendas, total, err
}

func (r *vendaRepo) ListRecentes(ctx context.Context, limit int) ([]model.Venda, error) {
	var vendas []model.Venda
	err := preloadDetalhes(r.db.WithContext(ctx)).
		Where("status = ?", model.VendaFinalizada).
		Order("created_at DESC").
		Limit(limit).
		Find(&vendas).Error
	return vendas, err
}

func (r *vendaRepo) ListCrediario(ctx context.Context, clienteID *uuid.UUID) ([]model.Venda, error) {
	q := preloadDetalhes(r.db.WithContext(ctx)).
		Where("metodo_pagamento = ? AND status = ?", model.MetodoCrediario, model.VendaFinalizada)
	if clienteID != nil {
		q = q.Where("cliente_id = ?", *clienteID)
	}
	var vendas []model.Venda
	err := q.Order("created_at DESC").Find(&vendas).Error
	return vendas, err
}

func (r *vendaRepo) TotaisPorMetodo(ctx context.Context, de, ate time.Time) ([]TotalMetodo, error) {
	var rows []TotalMetodo
	err := r.db.WithContext(ctx).Model(&model.Venda{}).
		Select("metodo_pagamento, COUNT(*) AS quantidade, COALESCE(SUM(total), 0) AS total, COALESCE(SUM(taxa), 0) AS taxa").
		Where("status = ? AND created_at >= ? AND created_at < ?", model.VendaFinalizada, de, ate).
		Group("metodo_pagamento").
		Order("metodo_pagamento").
		Scan(&rows).Error
	return rows, err
}

func (r *vendaRepo) CountCanceladas(ctx context.Context, de, ate time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Venda{}).
		Where("status = ? AND created_at >= ? AND created_at < ?", model.VendaCancelada, de, ate).
		Count(&n).Error
	return n, err
}

func (r *vendaRepo) ContarParcelasAtrasadas(ctx context.Context, ref time.Time) (int64, decimal.Decimal, error) {
	var row struct {
		Quantidade int64
		Valor      decimal.Decimal
	}
	err := r.db.WithContext(ctx).Table("parcelas").
		Select("COUNT(*) AS quantidade, COALESCE(SUM(parcelas.valor), 0) AS valor").
		Joins("JOIN vendas ON vendas.id = parcelas.venda_id").
		Where("vendas.status = ? AND parcelas.status = ? AND parcelas.vencimento < ?",
			model.VendaFinalizada, model.ParcelaPendente, ref).
		Scan(&row).Error
	return row.Quantidade, row.Valor, err
}

func preloadDetalhes(q *gorm.DB) *gorm.DB {
	return q.Preload("Itens").
		Preload("Parcelas", func(db *gorm.DB) *gorm.DB { return db.Order("numero ASC") })
}
