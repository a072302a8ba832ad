package realtime

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const canalPrefix = "tenda:mudancas:"

// RedisBroker fans notifications out through Redis Pub/Sub so every API
// instance sees writes made by the others.
type RedisBroker struct{ rdb *redis.Client }

func NewRedisBroker(rdb *redis.Client) *RedisBroker { return &RedisBroker{rdb: rdb} }

func (b *RedisBroker) Publish(ctx context.Context, canal string) error {
	return b.rdb.Publish(ctx, canalPrefix+canal, strconv.FormatInt(time.Now().UnixNano(), 10)).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, canal string) (<-chan struct{}, func(), error) {
	ps := b.rdb.Subscribe(ctx, canalPrefix+canal)
	// wait for the subscription to be confirmed before the caller loads state
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, err
	}
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for range ps.Channel() {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()
	return out, func() { _ = ps.Close() }, nil
}

// MemoryBroker is an in-process Broker for single-instance deployments.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[chan struct{}]struct{})}
}

func (b *MemoryBroker) Publish(_ context.Context, canal string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[canal] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, canal string) (<-chan struct{}, func(), error) {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	if b.subs[canal] == nil {
		b.subs[canal] = make(map[chan struct{}]struct{})
	}
	b.subs[canal][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[canal], ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}
