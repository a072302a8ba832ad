package repository

import (
	"context"
	"errors"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConfiguracaoRepository reads and writes the single settings row.
type ConfiguracaoRepository interface {
	// Get returns the stored settings, or an empty row when none was saved yet.
	Get(ctx context.Context) (*model.Configuracao, error)
	Save(ctx context.Context, c *model.Configuracao) error
}

type configuracaoRepo struct{ db *gorm.DB }

func NewConfiguracaoRepository(db *gorm.DB) ConfiguracaoRepository {
	return &configuracaoRepo{db: db}
}

func (r *configuracaoRepo) Get(ctx context.Context) (*model.Configuracao, error) {
	var c model.Configuracao
	err := r.db.WithContext(ctx).Where("id = ?", model.ConfiguracaoID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.Configuracao{ID: model.ConfiguracaoID}, nil
	}
	return &c, err
}

func (r *configuracaoRepo) Save(ctx context.Context, c *model.Configuracao) error {
	c.ID = model.ConfiguracaoID
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(c).Error
}
