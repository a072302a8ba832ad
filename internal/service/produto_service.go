package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/dto"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/infra"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/model"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/realtime"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	// MaxCodigo bounds scanner and typed product codes alike.
	MaxCodigo = 64

	precoCachePrefix = "preco:"
	precoCacheTTL    = 30 * time.Second
)

// PrecoCache is the subset of the Redis client used by the public price check.
type PrecoCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ProdutoService defines the business logic contract for products.
type ProdutoService interface {
	Criar(ctx context.Context, req dto.CriarProdutoRequest) (*dto.ProdutoResponse, error)
	ObterPorID(ctx context.Context, id uuid.UUID) (*dto.ProdutoResponse, error)
	// ObterPorCodigo resolves a scanned or typed code; the text is untrusted.
	ObterPorCodigo(ctx context.Context, codigo string) (*dto.ProdutoResponse, error)
	// ConsultarPreco is the public price check, served from cache when possible.
	ConsultarPreco(ctx context.Context, codigo string) (*dto.PrecoResponse, error)
	Listar(ctx context.Context, filter dto.ProdutoFilter) (*dto.ProdutoListResponse, error)
	ListarTodos(ctx context.Context) ([]dto.ProdutoResponse, error)
	Atualizar(ctx context.Context, id uuid.UUID, req dto.AtualizarProdutoRequest) (*dto.ProdutoResponse, error)
	Remover(ctx context.Context, id uuid.UUID) error
	AjustarEstoque(ctx context.Context, id uuid.UUID, req dto.AjustarEstoqueRequest) (*dto.ProdutoResponse, error)
	ListarMovimentos(ctx context.Context, id uuid.UUID, limit int) ([]dto.MovimentoEstoqueResponse, error)
	// Etiquetas renders a label sheet: copias labels of one product, or of
	// every product when id is nil.
	Etiquetas(ctx context.Context, id *uuid.UUID, copias int) ([]byte, error)
}

type produtoService struct {
	repo        repository.ProdutoRepository
	movRepo     repository.MovimentoEstoqueRepository
	configRepo  repository.ConfiguracaoRepository
	cache       PrecoCache
	notificador Notificador
}

// NewProdutoService wires the catalog service. cache and notificador may be nil.
func NewProdutoService(
	repo repository.ProdutoRepository,
	movRepo repository.MovimentoEstoqueRepository,
	configRepo repository.ConfiguracaoRepository,
	cache PrecoCache,
	notificador Notificador,
) ProdutoService {
	return &produtoService{
		repo:        repo,
		movRepo:     movRepo,
		configRepo:  configRepo,
		cache:       cache,
		notificador: notificador,
	}
}

// NormalizarCodigo trims a scanned or typed code and rejects empty, oversized
// or control-character input.
func NormalizarCodigo(codigo string) (string, error) {
	codigo = strings.TrimSpace(codigo)
	if codigo == "" || len([]rune(codigo)) > MaxCodigo {
		return "", ErrCodigoInvalido
	}
	for _, r := range codigo {
		if unicode.IsControl(r) || !unicode.IsPrint(r) {
			return "", ErrCodigoInvalido
		}
	}
	return codigo, nil
}

func (s *produtoService) Criar(ctx context.Context, req dto.CriarProdutoRequest) (*dto.ProdutoResponse, error) {
	codigo, err := NormalizarCodigo(req.Codigo)
	if err != nil {
		return nil, err
	}
	p := &model.Produto{
		Nome:        strings.TrimSpace(req.Nome),
		Codigo:      codigo,
		PrecoCompra: req.PrecoCompra.Round(2),
		PrecoVenda:  req.PrecoVenda.Round(2),
		Quantidade:  req.Quantidade,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	log.Info().Str("produto_id", p.ID.String()).Str("codigo", p.Codigo).Msg("produto criado")
	s.mudou(ctx, p.Codigo)
	return produtoToResponse(p), nil
}

func (s *produtoService) ObterPorID(ctx context.Context, id uuid.UUID) (*dto.ProdutoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, naoEncontrado(err, ErrProdutoNaoEncontrado)
	}
	return produtoToResponse(p), nil
}

func (s *produtoService) ObterPorCodigo(ctx context.Context, codigo string) (*dto.ProdutoResponse, error) {
	codigo, err := NormalizarCodigo(codigo)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.FindByCodigo(ctx, codigo)
	if err != nil {
		return nil, naoEncontrado(err, ErrProdutoNaoEncontrado)
	}
	return produtoToResponse(p), nil
}

func (s *produtoService) ConsultarPreco(ctx context.Context, codigo string) (*dto.PrecoResponse, error) {
	codigo, err := NormalizarCodigo(codigo)
	if err != nil {
		return nil, err
	}

	key := precoCachePrefix + codigo
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var cached dto.PrecoResponse
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		}
	}

	p, err := s.repo.FindByCodigo(ctx, codigo)
	if err != nil {
		return nil, naoEncontrado(err, ErrProdutoNaoEncontrado)
	}
	resp := &dto.PrecoResponse{
		Nome:       p.Nome,
		Codigo:     p.Codigo,
		PrecoVenda: p.PrecoVenda,
		Disponivel: p.Quantidade > 0,
	}
	if s.cache != nil {
		if data, err := json.Marshal(resp); err == nil {
			if err := s.cache.Set(ctx, key, data, precoCacheTTL).Err(); err != nil {
				log.Debug().Err(err).Str("codigo", codigo).Msg("preco cache: set failed")
			}
		}
	}
	return resp, nil
}

func (s *produtoService) Listar(ctx context.Context, filter dto.ProdutoFilter) (*dto.ProdutoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 100
	}
	filter.Busca = strings.TrimSpace(filter.Busca)
	produtos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProdutoResponse, len(produtos))
	for i := range produtos {
		data[i] = *produtoToResponse(&produtos[i])
	}
	return &dto.ProdutoListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *produtoService) ListarTodos(ctx context.Context) ([]dto.ProdutoResponse, error) {
	produtos, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProdutoResponse, len(produtos))
	for i := range produtos {
		data[i] = *produtoToResponse(&produtos[i])
	}
	return data, nil
}

func (s *produtoService) Atualizar(ctx context.Context, id uuid.UUID, req dto.AtualizarProdutoRequest) (*dto.ProdutoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, naoEncontrado(err, ErrProdutoNaoEncontrado)
	}
	codigoAnterior := p.Codigo

	if req.Nome != nil {
		p.Nome = strings.TrimSpace(*req.Nome)
	}
	if req.Codigo != nil {
		codigo, err := NormalizarCodigo(*req.Codigo)
		if err != nil {
			return nil, err
		}
		p.Codigo = codigo
	}
	if req.PrecoCompra != nil {
		p.PrecoCompra = req.PrecoCompra.Round(2)
	}
	if req.PrecoVenda != nil {
		p.PrecoVenda = req.PrecoVenda.Round(2)
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.mudou(ctx, codigoAnterior, p.Codigo)
	return produtoToResponse(p), nil
}

func (s *produtoService) Remover(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return naoEncontrado(err, ErrProdutoNaoEncontrado)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return naoEncontrado(err, ErrProdutoNaoEncontrado)
	}
	log.Info().Str("produto_id", id.String()).Msg("produto removido")
	s.mudou(ctx, p.Codigo)
	return nil
}

// AjustarEstoque applies a signed manual correction. Negative deltas are
// floored at zero like sales; the movement records what was actually applied.
func (s *produtoService) AjustarEstoque(ctx context.Context, id uuid.UUID, req dto.AjustarEstoqueRequest) (*dto.ProdutoResponse, error) {
	if req.Delta == 0 {
		return nil, fmt.Errorf("%w: delta deve ser diferente de zero", ErrItemInvalido)
	}

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var (
			mudanca repository.MudancaEstoque
			err     error
		)
		if req.Delta > 0 {
			mudanca, err = s.repo.IncrementarEstoqueTx(tx, id, req.Delta)
		} else {
			mudanca, err = s.repo.DecrementarEstoqueTx(tx, id, -req.Delta, false)
		}
		if err != nil {
			return err
		}
		if !mudanca.Encontrado {
			return ErrProdutoNaoEncontrado
		}
		return s.movRepo.CreateTx(tx, &model.MovimentoEstoque{
			ProdutoID:   id,
			Tipo:        model.MovimentoAjusteManual,
			Quantidade:  req.Delta,
			Aplicada:    mudanca.Aplicada,
			EstoqueNovo: mudanca.EstoqueNovo,
			Motivo:      strings.TrimSpace(req.Motivo),
		})
	})
	if err != nil {
		return nil, err
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, naoEncontrado(err, ErrProdutoNaoEncontrado)
	}
	log.Info().
		Str("produto_id", id.String()).
		Int("delta", req.Delta).
		Int("estoque", p.Quantidade).
		Msg("estoque ajustado")
	s.mudou(ctx, p.Codigo)
	return produtoToResponse(p), nil
}

func (s *produtoService) ListarMovimentos(ctx context.Context, id uuid.UUID, limit int) ([]dto.MovimentoEstoqueResponse, error) {
	movs, err := s.movRepo.List(ctx, repository.MovimentoEstoqueFilter{ProdutoID: &id, Limit: limit})
	if err != nil {
		return nil, err
	}
	resp := make([]dto.MovimentoEstoqueResponse, len(movs))
	for i, m := range movs {
		resp[i] = dto.MovimentoEstoqueResponse{
			ID:          m.ID.String(),
			ProdutoID:   m.ProdutoID.String(),
			Tipo:        m.Tipo,
			Quantidade:  m.Quantidade,
			Aplicada:    m.Aplicada,
			EstoqueNovo: m.EstoqueNovo,
			Motivo:      m.Motivo,
			CreatedAt:   m.CreatedAt.UTC().Format(dataHoraLayout),
		}
		if m.VendaID != nil {
			v := m.VendaID.String()
			resp[i].VendaID = &v
		}
	}
	return resp, nil
}

func (s *produtoService) Etiquetas(ctx context.Context, id *uuid.UUID, copias int) ([]byte, error) {
	var produtos []model.Produto
	if id != nil {
		p, err := s.repo.FindByID(ctx, *id)
		if err != nil {
			return nil, naoEncontrado(err, ErrProdutoNaoEncontrado)
		}
		produtos = []model.Produto{*p}
	} else {
		todos, err := s.repo.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		produtos = todos
	}

	var cfg *model.Configuracao
	if s.configRepo != nil {
		c, err := s.configRepo.Get(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("etiquetas: settings unavailable, using defaults")
		} else {
			cfg = c
		}
	}
	return infra.RenderEtiquetasPDF(produtos, copias, cfg)
}

// mudou drops cached price checks of the given codes and notifies listeners.
func (s *produtoService) mudou(ctx context.Context, codigos ...string) {
	invalidarPrecos(ctx, s.cache, codigos...)
	if s.notificador != nil {
		s.notificador.Publicar(ctx, realtime.ColecaoProdutos)
	}
}

// invalidarPrecos deletes the price-check entries of the given product codes.
// Blank and repeated codes are skipped.
func invalidarPrecos(ctx context.Context, cache PrecoCache, codigos ...string) {
	if cache == nil {
		return
	}
	vistos := make(map[string]struct{}, len(codigos))
	keys := make([]string, 0, len(codigos))
	for _, c := range codigos {
		if _, ok := vistos[c]; ok || c == "" {
			continue
		}
		vistos[c] = struct{}{}
		keys = append(keys, precoCachePrefix+c)
	}
	if len(keys) == 0 {
		return
	}
	if err := cache.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Strs("keys", keys).Msg("preco cache: invalidation failed")
	}
}

func produtoToResponse(p *model.Produto) *dto.ProdutoResponse {
	return &dto.ProdutoResponse{
		ID:           p.ID.String(),
		Nome:         p.Nome,
		Codigo:       p.Codigo,
		PrecoCompra:  p.PrecoCompra,
		PrecoVenda:   p.PrecoVenda,
		Quantidade:   p.Quantidade,
		EstoqueBaixo: p.EstoqueBaixo(),
	}
}
