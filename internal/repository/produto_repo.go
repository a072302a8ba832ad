package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/dto"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrSaldoInsuficiente is returned by stock decrements in blocking mode when
// the product holds less than the requested quantity.
var ErrSaldoInsuficiente = errors.New("saldo de estoque insuficiente")

// maxTentativasCAS bounds the compare-and-swap loop of a clamped decrement.
const maxTentativasCAS = 5

// MudancaEstoque describes the effect of one atomic stock update.
type MudancaEstoque struct {
	// Encontrado is false when the product no longer exists; nothing was changed.
	Encontrado bool
	// Aplicada is the signed delta actually written.
	Aplicada    int
	EstoqueNovo int
	// Limitada is true when a decrement was clamped at zero.
	Limitada bool
}

// ProdutoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via in-memory stubs.
type ProdutoRepository interface {
	Create(ctx context.Context, p *model.Produto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Produto, error)
	FindByCodigo(ctx context.Context, codigo string) (*model.Produto, error)
	List(ctx context.Context, filter dto.ProdutoFilter) ([]model.Produto, int64, error)
	ListAll(ctx context.Context) ([]model.Produto, error)
	Update(ctx context.Context, p *model.Produto) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Used inside transactions: callers must pass the tx instance.
	// Decrements never drive quantidade below zero: the excess is clamped,
	// or rejected with ErrSaldoInsuficiente when bloquear is set.
	DecrementarEstoqueTx(tx *gorm.DB, id uuid.UUID, qtd int, bloquear bool) (MudancaEstoque, error)
	IncrementarEstoqueTx(tx *gorm.DB, id uuid.UUID, qtd int) (MudancaEstoque, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type produtoRepo struct{ db *gorm.DB }

func NewProdutoRepository(db *gorm.DB) ProdutoRepository { return &produtoRepo{db: db} }

func (r *produtoRepo) DB() *gorm.DB { return r.db }

func (r *produtoRepo) Create(ctx context.Context, p *model.Produto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *produtoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Produto, error) {
	var p model.Produto
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	return &p, err
}

// FindByCodigo returns the oldest product with the code; codes are not unique.
func (r *produtoRepo) FindByCodigo(ctx context.Context, codigo string) (*model.Produto, error) {
	var p model.Produto
	err := r.db.WithContext(ctx).Where("codigo = ?", codigo).Order("created_at ASC").First(&p).Error
	return &p, err
}

func (r *produtoRepo) List(ctx context.Context, filter dto.ProdutoFilter) ([]model.Produto, int64, error) {
	var produtos []model.Produto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Produto{})
	if filter.Busca != "" {
		like := "%" + filter.Busca + "%"
		q = q.Where("LOWER(nome) LIKE LOWER(?) OR codigo LIKE ?", like, like)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("nome ASC").Limit(filter.Limit).Offset(offset).Find(&produtos).Error
	return produtos, total, err
}

func (r *produtoRepo) ListAll(ctx context.Context) ([]model.Produto, error) {
	var produtos []model.Produto
	err := r.db.WithContext(ctx).Order("nome ASC").Find(&produtos).Error
	return produtos, err
}

func (r *produtoRepo) Update(ctx context.Context, p *model.Produto) error {
	return r.db.WithContext(ctx).Model(p).Select("nome", "codigo", "preco_compra", "preco_venda").Updates(p).Error
}

func (r *produtoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Produto{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementarEstoqueTx takes qtd units out of stock without a read-then-write.
// The fast path is a conditional UPDATE guarded by quantidade >= qtd. When it
// misses, the current quantity is read and swapped to zero only if unchanged.
func (r *produtoRepo) DecrementarEstoqueTx(tx *gorm.DB, id uuid.UUID, qtd int, bloquear bool) (MudancaEstoque, error) {
	for tentativa := 0; tentativa < maxTentativasCAS; tentativa++ {
		res := tx.Model(&model.Produto{}).
			Where("id = ? AND quantidade >= ?", id, qtd).
			Update("quantidade", gorm.Expr("quantidade - ?", qtd))
		if res.Error != nil {
			return MudancaEstoque{}, res.Error
		}
		if res.RowsAffected == 1 {
			novo, err := quantidadeAtual(tx, id)
			if err != nil {
				return MudancaEstoque{}, err
			}
			return MudancaEstoque{Encontrado: true, Aplicada: -qtd, EstoqueNovo: novo}, nil
		}

		atual, err := quantidadeAtual(tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MudancaEstoque{}, nil
		}
		if err != nil {
			return MudancaEstoque{}, err
		}
		if atual >= qtd {
			// restocked between the two statements
			continue
		}
		if bloquear {
			return MudancaEstoque{Encontrado: true, EstoqueNovo: atual}, ErrSaldoInsuficiente
		}

		res = tx.Model(&model.Produto{}).
			Where("id = ? AND quantidade = ?", id, atual).
			Update("quantidade", 0)
		if res.Error != nil {
			return MudancaEstoque{}, res.Error
		}
		if res.RowsAffected == 1 {
			return MudancaEstoque{Encontrado: true, Aplicada: -atual, EstoqueNovo: 0, Limitada: true}, nil
		}
	}
	return MudancaEstoque{}, fmt.Errorf("estoque do produto %s em disputa, tente novamente", id)
}

func (r *produtoRepo) IncrementarEstoqueTx(tx *gorm.DB, id uuid.UUID, qtd int) (MudancaEstoque, error) {
	res := tx.Model(&model.Produto{}).
		Where("id = ?", id).
		Update("quantidade", gorm.Expr("quantidade + ?", qtd))
	if res.Error != nil {
		return MudancaEstoque{}, res.Error
	}
	if res.RowsAffected == 0 {
		return MudancaEstoque{}, nil
	}
	novo, err := quantidadeAtual(tx, id)
	if err != nil {
		return MudancaEstoque{}, err
	}
	return MudancaEstoque{Encontrado: true, Aplicada: qtd, EstoqueNovo: novo}, nil
}

func quantidadeAtual(tx *gorm.DB, id uuid.UUID) (int, error) {
	var p model.Produto
	if err := tx.Select("quantidade").Where("id = ?", id).First(&p).Error; err != nil {
		return 0, err
	}
	return p.Quantidade, nil
}
