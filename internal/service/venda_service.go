package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/dto"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/infra"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/metrics"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/model"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/pricing"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/realtime"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/repository"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/worker"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	dataLayout     = "2006-01-02"
	dataHoraLayout = time.RFC3339
)

// Notificador is told about every committed write, by collection name.
// *realtime.Hub implements it.
type Notificador interface {
	Publicar(ctx context.Context, colecao string)
}

// ReciboEnqueuer schedules receipt rendering; *worker.Dispatcher implements it.
type ReciboEnqueuer interface {
	EnqueueRecibo(ctx context.Context, payload worker.ReciboJobPayload) error
}

type VendaService interface {
	FinalizarVenda(ctx context.Context, op Operador, req dto.FinalizarVendaRequest) (*dto.VendaResponse, error)
	// CancelarVenda voids a sale and returns its items to stock. Voiding an
	// already voided sale is a no-op.
	CancelarVenda(ctx context.Context, id uuid.UUID, aut *Autorizacao) error
	AtualizarParcela(ctx context.Context, vendaID uuid.UUID, numero int, status string) (*dto.ParcelaResponse, error)
	ObterVenda(ctx context.Context, id uuid.UUID) (*dto.VendaResponse, error)
	ListarVendas(ctx context.Context, filter dto.VendaFilter) (*dto.VendaListResponse, error)
	ListarCrediario(ctx context.Context, filter dto.CrediarioFilter) ([]dto.CrediarioResponse, error)
	Resumo(ctx context.Context, filter dto.ResumoFilter) (*dto.ResumoResponse, error)
	CalcularCarrinho(req dto.CarrinhoTotaisRequest) (*dto.CarrinhoTotaisResponse, error)
	ExportarCSV(ctx context.Context, filter dto.VendaFilter, w io.Writer) error
	// Recibo renders the receipt PDF of a sale on demand.
	Recibo(ctx context.Context, id uuid.UUID) ([]byte, error)
}

// VendaServiceParams groups the ledger's collaborators. Dispatcher,
// Notificador and Metrics may be nil.
type VendaServiceParams struct {
	Vendas       repository.VendaRepository
	Produtos     repository.ProdutoRepository
	Movimentos   repository.MovimentoEstoqueRepository
	Clientes     repository.ClienteRepository
	Configuracao repository.ConfiguracaoRepository
	Dispatcher   ReciboEnqueuer
	Notificador  Notificador
	// Cache holds price-check entries that a sale or void makes stale; may be nil.
	Cache        PrecoCache
	Metrics      *metrics.Metrics
	// BloquearSemSaldo rejects sales that exceed stock instead of clamping at zero.
	BloquearSemSaldo bool
}

type vendaService struct {
	repo             repository.VendaRepository
	produtoRepo      repository.ProdutoRepository
	movRepo          repository.MovimentoEstoqueRepository
	clienteRepo      repository.ClienteRepository
	configRepo       repository.ConfiguracaoRepository
	dispatcher       ReciboEnqueuer
	notificador      Notificador
	cache            PrecoCache
	metrics          *metrics.Metrics
	bloquearSemSaldo bool
	now              func() time.Time
}

func NewVendaService(p VendaServiceParams) VendaService {
	return &vendaService{
		repo:             p.Vendas,
		produtoRepo:      p.Produtos,
		movRepo:          p.Movimentos,
		clienteRepo:      p.Clientes,
		configRepo:       p.Configuracao,
		dispatcher:       p.Dispatcher,
		notificador:      p.Notificador,
		cache:            p.Cache,
		metrics:          p.Metrics,
		bloquearSemSaldo: p.BloquearSemSaldo,
		now:              time.Now,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── FinalizarVenda ───────────────────────────────────────────────────────────
// Validation happens before the transaction; nothing is persisted on failure.
//   1. operator, cart, payment method, customer and installments are checked
//   2. totals are priced from the cart's price snapshot
//   3. BEGIN TX: insert sale+items+installments, decrement stock per item,
//      record one movement per item, flag the sale if any item was clamped
//   4. COMMIT, then (async) receipt job and change notifications

func (s *vendaService) FinalizarVenda(ctx context.Context, op Operador, req dto.FinalizarVendaRequest) (*dto.VendaResponse, error) {
	if op.ID == uuid.Nil {
		return nil, ErrOperadorAusente
	}
	if len(req.Itens) == 0 {
		return nil, ErrCarrinhoVazio
	}
	if !metodoValido(req.MetodoPagamento) {
		return nil, ErrMetodoPagamento
	}

	itens := make([]model.VendaItem, 0, len(req.Itens))
	linhas := make([]pricing.LinhaCarrinho, 0, len(req.Itens))
	for i, item := range req.Itens {
		pid, err := uuid.Parse(item.ProdutoID)
		if err != nil {
			return nil, fmt.Errorf("%w: linha %d: produto_id", ErrItemInvalido, i+1)
		}
		linha := pricing.LinhaCarrinho{
			PrecoUnitario: item.PrecoUnitario.Decimal,
			Quantidade:    pricing.QuantidadeEfetiva(item.Quantidade),
			Desconto:      item.Desconto.Decimal,
		}
		linhas = append(linhas, linha)
		itens = append(itens, model.VendaItem{
			ProdutoID:     pid,
			Nome:          strings.TrimSpace(item.Nome),
			Codigo:        strings.TrimSpace(item.Codigo),
			PrecoUnitario: linha.PrecoUnitario,
			Quantidade:    linha.Quantidade,
			Desconto:      linha.Desconto,
			Subtotal:      pricing.SubtotalLinha(linha).Round(2),
		})
	}
	totais := pricing.Calcular(linhas, req.MetodoPagamento)
	if err := conferirTotais(totais, itens); err != nil {
		return nil, err
	}

	cliente, err := s.resolverCliente(ctx, req.ClienteID)
	if err != nil {
		return nil, err
	}

	agora := s.now().UTC()
	venda := model.Venda{
		ID:              uuid.New(),
		OperadorID:      op.ID,
		OperadorNome:    op.Nome,
		ClienteNome:     model.ConsumidorFinal,
		Status:          model.VendaFinalizada,
		MetodoPagamento: req.MetodoPagamento,
		Subtotal:        totais.Subtotal,
		Taxa:            totais.Taxa,
		Total:           totais.Total,
		ValorPago:       totais.Total,
		Troco:           decimal.Zero,
		CreatedAt:       agora,
		Itens:           itens,
	}
	if cliente != nil {
		venda.ClienteID = &cliente.ID
		venda.ClienteNome = cliente.Nome
	}

	switch req.MetodoPagamento {
	case model.MetodoDinheiro:
		troco, err := pricing.Troco(req.ValorRecebido.Decimal, totais.Total)
		if err != nil {
			return nil, err
		}
		venda.ValorPago = req.ValorRecebido.Decimal
		venda.Troco = troco
	case model.MetodoCrediario:
		if cliente == nil {
			return nil, ErrClienteObrigatorio
		}
		n := req.NumeroParcelas
		if n == 0 {
			n = 1
		}
		parcelas, err := pricing.GerarParcelas(totais.Total, n, agora)
		if err != nil {
			return nil, err
		}
		for _, p := range parcelas {
			venda.Parcelas = append(venda.Parcelas, model.Parcela{
				Numero:     p.Numero,
				Valor:      p.Valor,
				Vencimento: p.Vencimento,
				Status:     model.ParcelaPendente,
			})
		}
	}

	conflitos := 0
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, &venda); err != nil {
			return fmt.Errorf("inserir venda: %w", err)
		}

		for _, item := range venda.Itens {
			mudanca, err := s.produtoRepo.DecrementarEstoqueTx(tx, item.ProdutoID, item.Quantidade, s.bloquearSemSaldo)
			if errors.Is(err, repository.ErrSaldoInsuficiente) {
				return fmt.Errorf("%w: %s (disponível %d, pedido %d)",
					ErrEstoqueInsuficiente, item.Nome, mudanca.EstoqueNovo, item.Quantidade)
			}
			if err != nil {
				return fmt.Errorf("baixar estoque de %s: %w", item.ProdutoID, err)
			}
			if !mudanca.Encontrado {
				// product removed from the catalog after it entered the cart
				log.Warn().
					Str("venda_id", venda.ID.String()).
					Str("produto_id", item.ProdutoID.String()).
					Msg("venda: item sold for a product no longer in the catalog")
				continue
			}
			if mudanca.Limitada {
				conflitos++
				log.Warn().
					Str("venda_id", venda.ID.String()).
					Str("produto_id", item.ProdutoID.String()).
					Int("pedido", item.Quantidade).
					Int("baixado", -mudanca.Aplicada).
					Msg("venda: stock clamped at zero")
			}

			vendaID := venda.ID
			mov := &model.MovimentoEstoque{
				ProdutoID:   item.ProdutoID,
				Tipo:        model.MovimentoVenda,
				Quantidade:  -item.Quantidade,
				Aplicada:    mudanca.Aplicada,
				EstoqueNovo: mudanca.EstoqueNovo,
				Motivo:      "venda " + venda.ID.String()[:8],
				VendaID:     &vendaID,
			}
			if err := s.movRepo.CreateTx(tx, mov); err != nil {
				return fmt.Errorf("registrar movimento: %w", err)
			}
		}

		if conflitos > 0 {
			venda.ConflitoEstoque = true
			if err := s.repo.MarcarConflitoEstoqueTx(tx, venda.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("venda_id", venda.ID.String()).
		Str("operador", op.Nome).
		Str("metodo", venda.MetodoPagamento).
		Str("total", venda.Total.StringFixed(2)).
		Int("itens", len(venda.Itens)).
		Msg("venda finalizada")

	s.metrics.VendaFinalizada(venda.MetodoPagamento, venda.Total)
	for i := 0; i < conflitos; i++ {
		s.metrics.ConflitoEstoque()
	}

	if s.dispatcher != nil {
		payload := worker.ReciboJobPayload{VendaID: venda.ID.String(), ClienteEmail: req.ClienteEmail}
		if err := s.dispatcher.EnqueueRecibo(ctx, payload); err != nil {
			log.Warn().Err(err).Str("venda_id", venda.ID.String()).Msg("venda: failed to enqueue recibo job")
		}
	}
	invalidarPrecos(ctx, s.cache, codigosDe(venda.Itens)...)
	s.notificar(ctx, realtime.ColecaoVendas, realtime.ColecaoProdutos)

	return vendaToResponse(&venda), nil
}

func (s *vendaService) resolverCliente(ctx context.Context, clienteID *string) (*model.Cliente, error) {
	if clienteID == nil || strings.TrimSpace(*clienteID) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*clienteID))
	if err != nil {
		return nil, ErrClienteNaoEncontrado
	}
	c, err := s.clienteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, naoEncontrado(err, ErrClienteNaoEncontrado)
	}
	return c, nil
}

// ── CancelarVenda ────────────────────────────────────────────────────────────

func (s *vendaService) CancelarVenda(ctx context.Context, id uuid.UUID, aut *Autorizacao) error {
	if !aut.valida() {
		return ErrNaoAutorizado
	}

	cancelada := false
	var codigos []string
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		venda, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return naoEncontrado(err, ErrVendaNaoEncontrada)
		}
		codigos = codigosDe(venda.Itens)

		ok, err := s.repo.MarcarCanceladaTx(tx, id, s.now().UTC())
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		cancelada = true

		for _, item := range venda.Itens {
			mudanca, err := s.produtoRepo.IncrementarEstoqueTx(tx, item.ProdutoID, item.Quantidade)
			if err != nil {
				return fmt.Errorf("devolver estoque de %s: %w", item.ProdutoID, err)
			}
			if !mudanca.Encontrado {
				log.Warn().
					Str("venda_id", id.String()).
					Str("produto_id", item.ProdutoID.String()).
					Msg("cancelamento: product no longer in the catalog, stock not restored")
				continue
			}
			vendaID := id
			mov := &model.MovimentoEstoque{
				ProdutoID:   item.ProdutoID,
				Tipo:        model.MovimentoEstorno,
				Quantidade:  item.Quantidade,
				Aplicada:    mudanca.Aplicada,
				EstoqueNovo: mudanca.EstoqueNovo,
				Motivo:      "cancelamento " + id.String()[:8],
				VendaID:     &vendaID,
			}
			if err := s.movRepo.CreateTx(tx, mov); err != nil {
				return fmt.Errorf("registrar movimento: %w", err)
			}
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}
	if !cancelada {
		log.Info().Str("venda_id", id.String()).Msg("cancelamento: venda already cancelled")
		return nil
	}

	log.Info().
		Str("venda_id", id.String()).
		Str("autorizado_por", aut.Supervisor()).
		Msg("venda cancelada")
	s.metrics.VendaCancelada()
	invalidarPrecos(ctx, s.cache, codigos...)
	s.notificar(ctx, realtime.ColecaoVendas, realtime.ColecaoProdutos)
	return nil
}

// ── Parcelas ─────────────────────────────────────────────────────────────────

func (s *vendaService) AtualizarParcela(ctx context.Context, vendaID uuid.UUID, numero int, status string) (*dto.ParcelaResponse, error) {
	if status != model.ParcelaPendente && status != model.ParcelaPago {
		return nil, ErrStatusParcela
	}
	venda, err := s.repo.FindByID(ctx, vendaID)
	if err != nil {
		return nil, naoEncontrado(err, ErrVendaNaoEncontrada)
	}
	if venda.Status == model.VendaCancelada {
		return nil, ErrVendaCancelada
	}

	var pagoEm *time.Time
	if status == model.ParcelaPago {
		t := s.now().UTC()
		pagoEm = &t
	}
	ok, err := s.repo.AtualizarParcela(ctx, vendaID, numero, status, pagoEm)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrParcelaNaoEncontrada
	}

	var resp *dto.ParcelaResponse
	for _, p := range venda.Parcelas {
		if p.Numero == numero {
			p.Status = status
			p.PagoEm = pagoEm
			r := parcelaToResponse(p)
			resp = &r
		}
	}
	if resp == nil {
		return nil, ErrParcelaNaoEncontrada
	}

	log.Info().
		Str("venda_id", vendaID.String()).
		Int("parcela", numero).
		Str("status", status).
		Msg("parcela atualizada")
	s.notificar(ctx, realtime.ColecaoVendas)
	return resp, nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *vendaService) ObterVenda(ctx context.Context, id uuid.UUID) (*dto.VendaResponse, error) {
	venda, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, naoEncontrado(err, ErrVendaNaoEncontrada)
	}
	return vendaToResponse(venda), nil
}

func (s *vendaService) ListarVendas(ctx context.Context, filter dto.VendaFilter) (*dto.VendaListResponse, error) {
	filtro, err := s.filtroVendas(filter)
	if err != nil {
		return nil, err
	}
	vendas, total, err := s.repo.List(ctx, filtro)
	if err != nil {
		return nil, err
	}
	data := make([]dto.VendaResponse, len(vendas))
	for i := range vendas {
		data[i] = *vendaToResponse(&vendas[i])
	}
	return &dto.VendaListResponse{Data: data, Total: total, Page: filtro.Page, Limit: filtro.Limit}, nil
}

func (s *vendaService) filtroVendas(filter dto.VendaFilter) (repository.VendaFiltro, error) {
	filtro := repository.VendaFiltro{Status: filter.Status, Page: filter.Page, Limit: filter.Limit}
	if filtro.Page < 1 {
		filtro.Page = 1
	}
	if filtro.Limit < 1 {
		filtro.Limit = 50
	}
	de, ate, err := periodo(filter.De, filter.Ate)
	if err != nil {
		return filtro, err
	}
	filtro.De, filtro.Ate = de, ate
	if filter.ClienteID != "" {
		id, err := uuid.Parse(filter.ClienteID)
		if err != nil {
			return filtro, ErrClienteNaoEncontrado
		}
		filtro.ClienteID = &id
	}
	return filtro, nil
}

// periodo parses local calendar days into a UTC half-open range [de, ate+1d).
func periodo(deStr, ateStr string) (*time.Time, *time.Time, error) {
	var de, ate *time.Time
	if deStr != "" {
		d, err := time.ParseInLocation(dataLayout, deStr, time.Local)
		if err != nil {
			return nil, nil, ErrPeriodoInvalido
		}
		u := d.UTC()
		de = &u
	}
	if ateStr != "" {
		a, err := time.ParseInLocation(dataLayout, ateStr, time.Local)
		if err != nil {
			return nil, nil, ErrPeriodoInvalido
		}
		u := a.AddDate(0, 0, 1).UTC()
		ate = &u
	}
	if de != nil && ate != nil && !de.Before(*ate) {
		return nil, nil, ErrPeriodoInvalido
	}
	return de, ate, nil
}

func (s *vendaService) ListarCrediario(ctx context.Context, filter dto.CrediarioFilter) ([]dto.CrediarioResponse, error) {
	var clienteID *uuid.UUID
	if filter.ClienteID != "" {
		id, err := uuid.Parse(filter.ClienteID)
		if err != nil {
			return nil, ErrClienteNaoEncontrado
		}
		clienteID = &id
	}
	vendas, err := s.repo.ListCrediario(ctx, clienteID)
	if err != nil {
		return nil, err
	}

	agora := s.now()
	resp := make([]dto.CrediarioResponse, 0, len(vendas))
	for i := range vendas {
		r := crediarioToResponse(&vendas[i], agora)
		if filter.Pendentes && r.ParcelasPendentes == 0 {
			continue
		}
		resp = append(resp, r)
	}
	return resp, nil
}

func (s *vendaService) Resumo(ctx context.Context, filter dto.ResumoFilter) (*dto.ResumoResponse, error) {
	de, ate, err := periodo(filter.De, filter.Ate)
	if err != nil {
		return nil, err
	}
	// open ends default to today, local calendar day
	hoje := s.now().In(time.Local)
	inicio := time.Date(hoje.Year(), hoje.Month(), hoje.Day(), 0, 0, 0, 0, time.Local)
	if de == nil {
		d := inicio.UTC()
		de = &d
	}
	if ate == nil {
		a := inicio.AddDate(0, 0, 1).UTC()
		ate = &a
	}
	if !de.Before(*ate) {
		return nil, ErrPeriodoInvalido
	}

	linhas, err := s.repo.TotaisPorMetodo(ctx, *de, *ate)
	if err != nil {
		return nil, err
	}
	canceladas, err := s.repo.CountCanceladas(ctx, *de, *ate)
	if err != nil {
		return nil, err
	}

	resp := &dto.ResumoResponse{
		De:          de.In(time.Local).Format(dataLayout),
		Ate:         ate.In(time.Local).AddDate(0, 0, -1).Format(dataLayout),
		Faturamento: decimal.Zero,
		Taxas:       decimal.Zero,
		TicketMedio: decimal.Zero,
		PorMetodo:   make(map[string]decimal.Decimal, len(linhas)),
		Canceladas:  canceladas,
	}
	for _, l := range linhas {
		resp.QuantidadeVendas += l.Quantidade
		resp.Faturamento = resp.Faturamento.Add(l.Total)
		resp.Taxas = resp.Taxas.Add(l.Taxa)
		resp.PorMetodo[l.MetodoPagamento] = l.Total
	}
	if resp.QuantidadeVendas > 0 {
		resp.TicketMedio = resp.Faturamento.Div(decimal.NewFromInt(resp.QuantidadeVendas)).Round(2)
	}
	return resp, nil
}

// CalcularCarrinho previews totals, change and installments without touching
// the database. An insufficient cash amount is reported, not rejected.
func (s *vendaService) CalcularCarrinho(req dto.CarrinhoTotaisRequest) (*dto.CarrinhoTotaisResponse, error) {
	if !metodoValido(req.MetodoPagamento) {
		return nil, ErrMetodoPagamento
	}
	linhas := make([]pricing.LinhaCarrinho, len(req.Itens))
	for i, l := range req.Itens {
		linhas[i] = pricing.LinhaCarrinho{
			PrecoUnitario: l.PrecoUnitario.Decimal,
			Quantidade:    l.Quantidade,
			Desconto:      l.Desconto.Decimal,
		}
	}
	totais := pricing.Calcular(linhas, req.MetodoPagamento)
	if err := conferirTotais(totais, nil); err != nil {
		return nil, err
	}
	resp := &dto.CarrinhoTotaisResponse{
		Subtotal: totais.Subtotal,
		Taxa:     totais.Taxa,
		Total:    totais.Total,
		Troco:    decimal.Zero,
		Parcelas: []dto.ParcelaResponse{},
	}

	switch req.MetodoPagamento {
	case model.MetodoDinheiro:
		troco, err := pricing.Troco(req.ValorRecebido.Decimal, totais.Total)
		if err != nil {
			resp.ValorInsuficiente = true
		} else {
			resp.Troco = troco
		}
	case model.MetodoCrediario:
		n := req.NumeroParcelas
		if n == 0 {
			n = 1
		}
		parcelas, err := pricing.GerarParcelas(totais.Total, n, s.now().UTC())
		if err != nil {
			return nil, err
		}
		for _, p := range parcelas {
			resp.Parcelas = append(resp.Parcelas, dto.ParcelaResponse{
				Numero:     p.Numero,
				Valor:      p.Valor,
				Vencimento: p.Vencimento.Format(dataHoraLayout),
				Status:     model.ParcelaPendente,
			})
		}
	}
	return resp, nil
}

// ExportarCSV writes every sale matching filter, newest first, as CSV.
func (s *vendaService) ExportarCSV(ctx context.Context, filter dto.VendaFilter, w io.Writer) error {
	filtro, err := s.filtroVendas(filter)
	if err != nil {
		return err
	}
	const lote = 500
	filtro.Limit = lote

	linhas := []*dto.VendaCSV{}
	for filtro.Page = 1; ; filtro.Page++ {
		vendas, total, err := s.repo.List(ctx, filtro)
		if err != nil {
			return err
		}
		for i := range vendas {
			linhas = append(linhas, vendaToCSV(&vendas[i]))
		}
		if len(vendas) < lote || int64(filtro.Page*lote) >= total {
			break
		}
	}
	return gocsv.Marshal(linhas, w)
}

func (s *vendaService) Recibo(ctx context.Context, id uuid.UUID) ([]byte, error) {
	venda, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, naoEncontrado(err, ErrVendaNaoEncontrada)
	}
	var cfg *model.Configuracao
	if s.configRepo != nil {
		if cfg, err = s.configRepo.Get(ctx); err != nil {
			log.Warn().Err(err).Msg("recibo: settings unavailable, using defaults")
			cfg = nil
		}
	}
	return infra.RenderReciboPDF(venda, cfg)
}

func (s *vendaService) notificar(ctx context.Context, colecoes ...string) {
	if s.notificador == nil {
		return
	}
	for _, c := range colecoes {
		s.notificador.Publicar(ctx, c)
	}
}

func codigosDe(itens []model.VendaItem) []string {
	codigos := make([]string, 0, len(itens))
	for _, it := range itens {
		codigos = append(codigos, it.Codigo)
	}
	return codigos
}

// conferirTotais rejects carts whose totals or line subtotals overflow the
// money columns; quantity times a capped price can still exceed them.
func conferirTotais(t pricing.Totais, itens []model.VendaItem) error {
	valores := []decimal.Decimal{t.Subtotal, t.Taxa, t.Total}
	for _, it := range itens {
		valores = append(valores, it.Subtotal)
	}
	if err := pricing.ConferirLimite(valores...); err != nil {
		return fmt.Errorf("%w: total %s", err, t.Total.StringFixed(2))
	}
	return nil
}

func metodoValido(m string) bool {
	for _, v := range model.MetodosPagamento {
		if v == m {
			return true
		}
	}
	return false
}

// ── Mapping ──────────────────────────────────────────────────────────────────

func vendaToResponse(v *model.Venda) *dto.VendaResponse {
	resp := &dto.VendaResponse{
		ID:              v.ID.String(),
		OperadorID:      v.OperadorID.String(),
		OperadorNome:    v.OperadorNome,
		ClienteNome:     v.ClienteNome,
		Status:          v.Status,
		MetodoPagamento: v.MetodoPagamento,
		Itens:           make([]dto.ItemVendaResponse, len(v.Itens)),
		Subtotal:        v.Subtotal,
		Taxa:            v.Taxa,
		Total:           v.Total,
		ValorPago:       v.ValorPago,
		Troco:           v.Troco,
		ConflitoEstoque: v.ConflitoEstoque,
		Parcelas:        make([]dto.ParcelaResponse, len(v.Parcelas)),
		CreatedAt:       v.CreatedAt.UTC().Format(dataHoraLayout),
	}
	if v.ClienteID != nil {
		id := v.ClienteID.String()
		resp.ClienteID = &id
	}
	if v.CanceladaEm != nil {
		em := v.CanceladaEm.UTC().Format(dataHoraLayout)
		resp.CanceladaEm = &em
	}
	for i, it := range v.Itens {
		resp.Itens[i] = dto.ItemVendaResponse{
			ProdutoID:     it.ProdutoID.String(),
			Nome:          it.Nome,
			Codigo:        it.Codigo,
			PrecoUnitario: it.PrecoUnitario,
			Quantidade:    it.Quantidade,
			Desconto:      it.Desconto,
			Subtotal:      it.Subtotal,
		}
	}
	for i, p := range v.Parcelas {
		resp.Parcelas[i] = parcelaToResponse(p)
	}
	return resp
}

func parcelaToResponse(p model.Parcela) dto.ParcelaResponse {
	r := dto.ParcelaResponse{
		Numero:     p.Numero,
		Valor:      p.Valor,
		Vencimento: p.Vencimento.UTC().Format(dataHoraLayout),
		Status:     p.Status,
	}
	if p.PagoEm != nil {
		em := p.PagoEm.UTC().Format(dataHoraLayout)
		r.PagoEm = &em
	}
	return r
}

func crediarioToResponse(v *model.Venda, agora time.Time) dto.CrediarioResponse {
	r := dto.CrediarioResponse{
		VendaID:     v.ID.String(),
		ClienteNome: v.ClienteNome,
		Total:       v.Total,
		Pago:        decimal.Zero,
		Pendente:    decimal.Zero,
		Parcelas:    make([]dto.ParcelaResponse, len(v.Parcelas)),
		CreatedAt:   v.CreatedAt.UTC().Format(dataHoraLayout),
	}
	if v.ClienteID != nil {
		id := v.ClienteID.String()
		r.ClienteID = &id
	}
	for i, p := range v.Parcelas {
		r.Parcelas[i] = parcelaToResponse(p)
		if p.Status == model.ParcelaPago {
			r.Pago = r.Pago.Add(p.Valor)
			continue
		}
		r.Pendente = r.Pendente.Add(p.Valor)
		r.ParcelasPendentes++
		if p.Vencimento.Before(agora) {
			r.Atrasadas++
		}
		if r.ProximoVencimento == nil {
			venc := p.Vencimento.UTC().Format(dataHoraLayout)
			r.ProximoVencimento = &venc
		}
	}
	return r
}

func vendaToCSV(v *model.Venda) *dto.VendaCSV {
	itens := 0
	for _, it := range v.Itens {
		itens += it.Quantidade
	}
	return &dto.VendaCSV{
		ID:              v.ID.String(),
		Data:            v.CreatedAt.In(time.Local).Format("2006-01-02 15:04:05"),
		Operador:        v.OperadorNome,
		Cliente:         v.ClienteNome,
		MetodoPagamento: v.MetodoPagamento,
		Status:          v.Status,
		Itens:           itens,
		Subtotal:        v.Subtotal.StringFixed(2),
		Taxa:            v.Taxa.StringFixed(2),
		Total:           v.Total.StringFixed(2),
		Parcelas:        len(v.Parcelas),
	}
}
