package service

import (
	"context"
	"strings"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/dto"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/model"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/realtime"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/repository"

	"github.com/google/uuid"
)

type ClienteService interface {
	Criar(ctx context.Context, req dto.CriarClienteRequest) (*dto.ClienteResponse, error)
	Atualizar(ctx context.Context, id uuid.UUID, req dto.AtualizarClienteRequest) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, filter dto.ClienteFilter) ([]dto.ClienteResponse, error)
	ObterPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
}

type clienteService struct {
	repo        repository.ClienteRepository
	notificador Notificador
}

func NewClienteService(repo repository.ClienteRepository, notificador Notificador) ClienteService {
	return &clienteService{repo: repo, notificador: notificador}
}

func (s *clienteService) Criar(ctx context.Context, req dto.CriarClienteRequest) (*dto.ClienteResponse, error) {
	c := &model.Cliente{
		Nome:    strings.TrimSpace(req.Nome),
		Contato: strings.TrimSpace(req.Contato),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.mudou(ctx)
	return clienteToResponse(c), nil
}

func (s *clienteService) Atualizar(ctx context.Context, id uuid.UUID, req dto.AtualizarClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, naoEncontrado(err, ErrClienteNaoEncontrado)
	}
	if req.Nome != nil {
		c.Nome = strings.TrimSpace(*req.Nome)
	}
	if req.Contato != nil {
		c.Contato = strings.TrimSpace(*req.Contato)
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.mudou(ctx)
	return clienteToResponse(c), nil
}

func (s *clienteService) Listar(ctx context.Context, filter dto.ClienteFilter) ([]dto.ClienteResponse, error) {
	clientes, err := s.repo.List(ctx, strings.TrimSpace(filter.Busca))
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ClienteResponse, len(clientes))
	for i := range clientes {
		resp[i] = *clienteToResponse(&clientes[i])
	}
	return resp, nil
}

func (s *clienteService) ObterPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, naoEncontrado(err, ErrClienteNaoEncontrado)
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) mudou(ctx context.Context) {
	if s.notificador != nil {
		s.notificador.Publicar(ctx, realtime.ColecaoClientes)
	}
}

func clienteToResponse(c *model.Cliente) *dto.ClienteResponse {
	return &dto.ClienteResponse{
		ID:        c.ID.String(),
		Nome:      c.Nome,
		Contato:   c.Contato,
		CreatedAt: c.CreatedAt.UTC().Format(dataHoraLayout),
	}
}
