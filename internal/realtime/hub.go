// Package realtime turns write notifications into streams of full-collection
// snapshots. Writers call Publicar after commit; readers call Assinar and get
// the current snapshot first, then a fresh one after every change.
package realtime

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Collections published by the services.
const (
	ColecaoProdutos      = "produtos"
	ColecaoClientes      = "clientes"
	ColecaoVendas        = "vendas"
	ColecaoConfiguracoes = "configuracoes"
)

var ErrColecaoDesconhecida = errors.New("coleção desconhecida")

// Broker carries change notifications between processes. Subscribe returns
// a channel that coalesces bursts: a pending notification absorbs new ones.
type Broker interface {
	Publish(ctx context.Context, canal string) error
	Subscribe(ctx context.Context, canal string) (<-chan struct{}, func(), error)
}

// Loader reads the full current content of a collection.
type Loader func(ctx context.Context) (any, error)

type Snapshot struct {
	Colecao string    `json:"colecao"`
	Versao  uint64    `json:"versao"` // 1-based, per subscription
	Dados   any       `json:"dados"`
	Em      time.Time `json:"em"`
}

type Hub struct {
	broker  Broker
	mu      sync.RWMutex
	loaders map[string]Loader
}

func NewHub(broker Broker) *Hub {
	return &Hub{broker: broker, loaders: make(map[string]Loader)}
}

// Registrar binds a collection name to the loader that snapshots it.
func (h *Hub) Registrar(colecao string, l Loader) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loaders[colecao] = l
}

func (h *Hub) Colecoes() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.loaders))
	for c := range h.loaders {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Publicar notifies subscribers that colecao changed. Best-effort: the write
// is already committed, a lost notification only delays the next snapshot.
func (h *Hub) Publicar(ctx context.Context, colecao string) {
	if h == nil || h.broker == nil {
		return
	}
	if err := h.broker.Publish(ctx, colecao); err != nil {
		log.Warn().Err(err).Str("colecao", colecao).Msg("realtime: falha ao publicar notificação")
	}
}

// Assinar streams snapshots of colecao until ctx is cancelled, then closes the
// channel. Each call is an independent stream starting from the current state.
func (h *Hub) Assinar(ctx context.Context, colecao string) (<-chan Snapshot, error) {
	h.mu.RLock()
	load, ok := h.loaders[colecao]
	h.mu.RUnlock()
	if !ok {
		return nil, ErrColecaoDesconhecida
	}

	// subscribe before the first load so no change falls between the two
	notif, cancel, err := h.broker.Subscribe(ctx, colecao)
	if err != nil {
		return nil, err
	}

	out := make(chan Snapshot)
	go func() {
		defer close(out)
		defer cancel()

		var versao uint64
		emitir := func() bool {
			dados, err := load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return false
				}
				log.Error().Err(err).Str("colecao", colecao).Msg("realtime: falha ao carregar snapshot")
				return true
			}
			versao++
			select {
			case out <- Snapshot{Colecao: colecao, Versao: versao, Dados: dados, Em: time.Now().UTC()}:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emitir() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-notif:
				if !ok || !emitir() {
					return
				}
			}
		}
	}()
	return out, nil
}
