package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/dto"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/model"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/repository"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/service"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubVendaRepo is an in-memory VendaRepository for testing.
type stubVendaRepo struct {
	vendas map[uuid.UUID]*model.Venda
	// falharCreate simulates a store that rejects the insert.
	falharCreate error
}

func newStubVendaRepo() *stubVendaRepo {
	return &stubVendaRepo{vendas: make(map[uuid.UUID]*model.Venda)}
}

func (r *stubVendaRepo) Create(_ context.Context, _ *gorm.DB, v *model.Venda) error {
	if r.falharCreate != nil {
		return r.falharCreate
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	r.vendas[v.ID] = v
	return nil
}

func (r *stubVendaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venda, error) {
	v, ok := r.vendas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *stubVendaRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Venda, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubVendaRepo) MarcarCanceladaTx(_ *gorm.DB, id uuid.UUID, em time.Time) (bool, error) {
	v, ok := r.vendas[id]
	if !ok || v.Status != model.VendaFinalizada {
		return false, nil
	}
	v.Status = model.VendaCancelada
	v.CanceladaEm = &em
	return true, nil
}

func (r *stubVendaRepo) MarcarConflitoEstoqueTx(_ *gorm.DB, id uuid.UUID) error {
	if v, ok := r.vendas[id]; ok {
		v.ConflitoEstoque = true
	}
	return nil
}

func (r *stubVendaRepo) AtualizarParcela(_ context.Context, vendaID uuid.UUID, numero int, status string, pagoEm *time.Time) (bool, error) {
	v, ok := r.vendas[vendaID]
	if !ok {
		return false, nil
	}
	for i := range v.Parcelas {
		if v.Parcelas[i].Numero == numero {
			v.Parcelas[i].Status = status
			v.Parcelas[i].PagoEm = pagoEm
			return true, nil
		}
	}
	return false, nil
}

func (r *stubVendaRepo) ordenadas() []model.Venda {
	out := make([]model.Venda, 0, len(r.vendas))
	for _, v := range r.vendas {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *stubVendaRepo) List(_ context.Context, f repository.VendaFiltro) ([]model.Venda, int64, error) {
	var out []model.Venda
	for _, v := range r.ordenadas() {
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		if f.De != nil && v.CreatedAt.Before(*f.De) {
			continue
		}
		if f.Ate != nil && !v.CreatedAt.Before(*f.Ate) {
			continue
		}
		if f.ClienteID != nil && (v.ClienteID == nil || *v.ClienteID != *f.ClienteID) {
			continue
		}
		out = append(out, v)
	}
	total := int64(len(out))
	ini := (f.Page - 1) * f.Limit
	if ini > len(out) {
		ini = len(out)
	}
	fim := ini + f.Limit
	if fim > len(out) {
		fim = len(out)
	}
	return out[ini:fim], total, nil
}

func (r *stubVendaRepo) ListRecentes(_ context.Context, limit int) ([]model.Venda, error) {
	var out []model.Venda
	for _, v := range r.ordenadas() {
		if v.Status == model.VendaFinalizada && len(out) < limit {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *stubVendaRepo) ListCrediario(_ context.Context, clienteID *uuid.UUID) ([]model.Venda, error) {
	var out []model.Venda
	for _, v := range r.ordenadas() {
		if v.MetodoPagamento != model.MetodoCrediario || v.Status != model.VendaFinalizada {
			continue
		}
		if clienteID != nil && (v.ClienteID == nil || *v.ClienteID != *clienteID) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *stubVendaRepo) TotaisPorMetodo(_ context.Context, de, ate time.Time) ([]repository.TotalMetodo, error) {
	por := map[string]*repository.TotalMetodo{}
	for _, v := range r.vendas {
		if v.Status != model.VendaFinalizada || v.CreatedAt.Before(de) || !v.CreatedAt.Before(ate) {
			continue
		}
		t, ok := por[v.MetodoPagamento]
		if !ok {
			t = &repository.TotalMetodo{MetodoPagamento: v.MetodoPagamento}
			por[v.MetodoPagamento] = t
		}
		t.Quantidade++
		t.Total = t.Total.Add(v.Total)
		t.Taxa = t.Taxa.Add(v.Taxa)
	}
	out := make([]repository.TotalMetodo, 0, len(por))
	for _, t := range por {
		out = append(out, *t)
	}
	return out, nil
}

func (r *stubVendaRepo) CountCanceladas(_ context.Context, de, ate time.Time) (int64, error) {
	var n int64
	for _, v := range r.vendas {
		if v.Status == model.VendaCancelada && !v.CreatedAt.Before(de) && v.CreatedAt.Before(ate) {
			n++
		}
	}
	return n, nil
}

func (r *stubVendaRepo) ContarParcelasAtrasadas(_ context.Context, ref time.Time) (int64, decimal.Decimal, error) {
	var n int64
	valor := decimal.Zero
	for _, v := range r.vendas {
		if v.Status != model.VendaFinalizada {
			continue
		}
		for _, p := range v.Parcelas {
			if p.Status == model.ParcelaPendente && p.Vencimento.Before(ref) {
				n++
				valor = valor.Add(p.Valor)
			}
		}
	}
	return n, valor, nil
}

func (r *stubVendaRepo) DB() *gorm.DB { return nil }

var _ repository.VendaRepository = (*stubVendaRepo)(nil)

// stubProdutoRepo mirrors the clamping rules of the GORM implementation.
type stubProdutoRepo struct {
	produtos map[uuid.UUID]*model.Produto
}

func newStubProdutoRepo() *stubProdutoRepo {
	return &stubProdutoRepo{produtos: make(map[uuid.UUID]*model.Produto)}
}

func (r *stubProdutoRepo) Create(_ context.Context, p *model.Produto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	r.produtos[p.ID] = p
	return nil
}

func (r *stubProdutoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Produto, error) {
	p, ok := r.produtos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProdutoRepo) FindByCodigo(_ context.Context, codigo string) (*model.Produto, error) {
	for _, p := range r.produtos {
		if p.Codigo == codigo {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProdutoRepo) List(_ context.Context, f dto.ProdutoFilter) ([]model.Produto, int64, error) {
	var out []model.Produto
	for _, p := range r.produtos {
		if f.Busca == "" || strings.Contains(strings.ToLower(p.Nome), strings.ToLower(f.Busca)) || strings.Contains(p.Codigo, f.Busca) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nome < out[j].Nome })
	return out, int64(len(out)), nil
}

func (r *stubProdutoRepo) ListAll(ctx context.Context) ([]model.Produto, error) {
	out, _, err := r.List(ctx, dto.ProdutoFilter{})
	return out, err
}

func (r *stubProdutoRepo) Update(_ context.Context, p *model.Produto) error {
	atual, ok := r.produtos[p.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	atual.Nome, atual.Codigo, atual.PrecoCompra, atual.PrecoVenda = p.Nome, p.Codigo, p.PrecoCompra, p.PrecoVenda
	return nil
}

func (r *stubProdutoRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.produtos[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.produtos, id)
	return nil
}

func (r *stubProdutoRepo) DecrementarEstoqueTx(_ *gorm.DB, id uuid.UUID, qtd int, bloquear bool) (repository.MudancaEstoque, error) {
	p, ok := r.produtos[id]
	if !ok {
		return repository.MudancaEstoque{}, nil
	}
	if p.Quantidade >= qtd {
		p.Quantidade -= qtd
		return repository.MudancaEstoque{Encontrado: true, Aplicada: -qtd, EstoqueNovo: p.Quantidade}, nil
	}
	if bloquear {
		return repository.MudancaEstoque{Encontrado: true, EstoqueNovo: p.Quantidade}, repository.ErrSaldoInsuficiente
	}
	aplicada := -p.Quantidade
	p.Quantidade = 0
	return repository.MudancaEstoque{Encontrado: true, Aplicada: aplicada, EstoqueNovo: 0, Limitada: true}, nil
}

func (r *stubProdutoRepo) IncrementarEstoqueTx(_ *gorm.DB, id uuid.UUID, qtd int) (repository.MudancaEstoque, error) {
	p, ok := r.produtos[id]
	if !ok {
		return repository.MudancaEstoque{}, nil
	}
	p.Quantidade += qtd
	return repository.MudancaEstoque{Encontrado: true, Aplicada: qtd, EstoqueNovo: p.Quantidade}, nil
}

func (r *stubProdutoRepo) DB() *gorm.DB { return nil }

var _ repository.ProdutoRepository = (*stubProdutoRepo)(nil)

// seedProduto inserts a product with sale price preco and the given stock.
func seedProduto(repo *stubProdutoRepo, nome, codigo, preco string, quantidade int) *model.Produto {
	p := &model.Produto{
		ID:         uuid.New(),
		Nome:       nome,
		Codigo:     codigo,
		PrecoVenda: decimal.RequireFromString(preco),
		Quantidade: quantidade,
	}
	repo.produtos[p.ID] = p
	return p
}

type stubMovRepo struct {
	movimentos []model.MovimentoEstoque
}

func (r *stubMovRepo) CreateTx(_ *gorm.DB, m *model.MovimentoEstoque) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movimentos = append(r.movimentos, *m)
	return nil
}

func (r *stubMovRepo) List(_ context.Context, f repository.MovimentoEstoqueFilter) ([]model.MovimentoEstoque, error) {
	var out []model.MovimentoEstoque
	for _, m := range r.movimentos {
		if f.ProdutoID != nil && m.ProdutoID != *f.ProdutoID {
			continue
		}
		if f.Tipo != "" && m.Tipo != f.Tipo {
			continue
		}
		out = append(out, m)
	}
	// newest first, like the GORM implementation
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *stubMovRepo) porTipo(tipo string) []model.MovimentoEstoque {
	out, _ := r.List(context.Background(), repository.MovimentoEstoqueFilter{Tipo: tipo})
	return out
}

var _ repository.MovimentoEstoqueRepository = (*stubMovRepo)(nil)

type stubClienteRepo struct {
	clientes map[uuid.UUID]*model.Cliente
}

func newStubClienteRepo() *stubClienteRepo {
	return &stubClienteRepo{clientes: make(map[uuid.UUID]*model.Cliente)}
}

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clientes[c.ID] = c
	return nil
}

func (r *stubClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubClienteRepo) List(_ context.Context, busca string) ([]model.Cliente, error) {
	var out []model.Cliente
	for _, c := range r.clientes {
		if busca == "" || strings.Contains(strings.ToLower(c.Nome), strings.ToLower(busca)) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nome < out[j].Nome })
	return out, nil
}

func (r *stubClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	if _, ok := r.clientes[c.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *c
	r.clientes[c.ID] = &cp
	return nil
}

var _ repository.ClienteRepository = (*stubClienteRepo)(nil)

func seedCliente(repo *stubClienteRepo, nome string) *model.Cliente {
	c := &model.Cliente{ID: uuid.New(), Nome: nome}
	repo.clientes[c.ID] = c
	return c
}

type stubConfigRepo struct {
	cfg *model.Configuracao
}

func (r *stubConfigRepo) Get(_ context.Context) (*model.Configuracao, error) {
	if r.cfg == nil {
		return &model.Configuracao{ID: model.ConfiguracaoID}, nil
	}
	cp := *r.cfg
	return &cp, nil
}

func (r *stubConfigRepo) Save(_ context.Context, c *model.Configuracao) error {
	cp := *c
	r.cfg = &cp
	return nil
}

var _ repository.ConfiguracaoRepository = (*stubConfigRepo)(nil)

type stubUsuarioRepo struct {
	usuarios map[uuid.UUID]*model.Usuario
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{usuarios: make(map[uuid.UUID]*model.Usuario)}
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.usuarios[u.ID] = u
	return nil
}

func (r *stubUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if strings.EqualFold(u.Username, username) && u.Ativo {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUsuarioRepo) List(_ context.Context) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.usuarios {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nome < out[j].Nome })
	return out, nil
}

func (r *stubUsuarioRepo) ListByRol(_ context.Context, rol string) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.usuarios {
		if u.Rol == rol && u.Ativo {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUsuarioRepo) setAtivo(id uuid.UUID, ativo bool) error {
	u, ok := r.usuarios[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Ativo = ativo
	return nil
}

func (r *stubUsuarioRepo) SoftDelete(_ context.Context, id uuid.UUID) error { return r.setAtivo(id, false) }
func (r *stubUsuarioRepo) Reactivar(_ context.Context, id uuid.UUID) error  { return r.setAtivo(id, true) }

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

// seedUsuario stores a user whose PIN is hashed at the minimum bcrypt cost.
func seedUsuario(repo *stubUsuarioRepo, username, pin, rol string) *model.Usuario {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	u := &model.Usuario{ID: uuid.New(), Username: username, Nome: strings.ToUpper(username[:1]) + username[1:], PinHash: string(hash), Rol: rol, Ativo: true}
	repo.usuarios[u.ID] = u
	return u
}

// notificadorFake records published collections.
type notificadorFake struct {
	mu       sync.Mutex
	colecoes []string
}

func (n *notificadorFake) Publicar(_ context.Context, colecao string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.colecoes = append(n.colecoes, colecao)
}

var _ service.Notificador = (*notificadorFake)(nil)

type reciboEnqueuerFake struct {
	jobs []worker.ReciboJobPayload
}

func (f *reciboEnqueuerFake) EnqueueRecibo(_ context.Context, p worker.ReciboJobPayload) error {
	f.jobs = append(f.jobs, p)
	return nil
}

var _ service.ReciboEnqueuer = (*reciboEnqueuerFake)(nil)
