package service

import (
	"context"
	"strings"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/dto"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/model"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/realtime"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/repository"
)

type ConfiguracaoService interface {
	Obter(ctx context.Context) (*dto.ConfiguracaoResponse, error)
	Salvar(ctx context.Context, req dto.ConfiguracaoRequest) (*dto.ConfiguracaoResponse, error)
}

type configuracaoService struct {
	repo        repository.ConfiguracaoRepository
	notificador Notificador
}

func NewConfiguracaoService(repo repository.ConfiguracaoRepository, notificador Notificador) ConfiguracaoService {
	return &configuracaoService{repo: repo, notificador: notificador}
}

func (s *configuracaoService) Obter(ctx context.Context) (*dto.ConfiguracaoResponse, error) {
	c, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	return configuracaoToResponse(c), nil
}

func (s *configuracaoService) Salvar(ctx context.Context, req dto.ConfiguracaoRequest) (*dto.ConfiguracaoResponse, error) {
	c := &model.Configuracao{
		ID:          model.ConfiguracaoID,
		NomeEmpresa: strings.TrimSpace(req.NomeEmpresa),
		LogoURL:     strings.TrimSpace(req.LogoURL),
		PixQRURL:    strings.TrimSpace(req.PixQRURL),
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	if s.notificador != nil {
		s.notificador.Publicar(ctx, realtime.ColecaoConfiguracoes)
	}
	return configuracaoToResponse(c), nil
}

// configuracaoToResponse reports the effective company name, so clients
// never render an empty header.
func configuracaoToResponse(c *model.Configuracao) *dto.ConfiguracaoResponse {
	return &dto.ConfiguracaoResponse{
		NomeEmpresa: c.NomeExibicao(),
		LogoURL:     c.LogoURL,
		PixQRURL:    c.PixQRURL,
	}
}
