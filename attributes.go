package vesta

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrAttributeNotFound = errors.New("attribute not found")

// AttributeStore is the key/value map actions use to hand data to the view layer.
// Attribute returns ErrAttributeNotFound for keys that were never set.
type AttributeStore interface {
	SetAttribute(ctx context.Context, key string, value any) error
	Attribute(ctx context.Context, key string) (any, error)
}

// AttributeBackend hands out attribute stores shared by every request of one scope,
// usually a session.
type AttributeBackend interface {
	Scope(id string) AttributeStore
}

// Attributes is an in-memory AttributeStore.
type Attributes struct {
	mu   sync.RWMutex
	data map[string]any
}

func NewAttributes() *Attributes {
	return &Attributes{
		data: make(map[string]any),
	}
}

func (a *Attributes) SetAttribute(_ context.Context, key string, value any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.data[key] = value

	return nil
}

func (a *Attributes) Attribute(_ context.Context, key string) (any, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	v, ok := a.data[key]
	if !ok {
		return nil, ErrAttributeNotFound
	}

	return v, nil
}

func (a *Attributes) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return len(a.data)
}

const sweepInterval = 30 * time.Second

// MemoryBackend keeps one Attributes per scope in process memory. Scopes not touched
// for longer than the idle timeout are dropped by Sweep.
type MemoryBackend struct {
	idle time.Duration

	mu     sync.Mutex
	scopes map[string]*memoryScope
	stopCh chan struct{}
	once   sync.Once
}

type memoryScope struct {
	attrs    *Attributes
	lastSeen time.Time
}

func NewMemoryBackend(idle time.Duration) *MemoryBackend {
	return &MemoryBackend{
		idle:   idle,
		scopes: make(map[string]*memoryScope),
		stopCh: make(chan struct{}),
	}
}

func (b *MemoryBackend) Scope(id string) AttributeStore {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.scopes[id]
	if !ok {
		s = &memoryScope{attrs: NewAttributes()}
		b.scopes[id] = s
	}
	s.lastSeen = time.Now()

	return s.attrs
}

// Sweep removes scopes idle since before now minus the idle timeout.
// A zero idle timeout keeps scopes forever.
func (b *MemoryBackend) Sweep(now time.Time) int {
	if b.idle <= 0 {
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for id, s := range b.scopes {
		if now.Sub(s.lastSeen) > b.idle {
			delete(b.scopes, id)
			removed++
		}
	}

	return removed
}

func (b *MemoryBackend) Start() {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case now := <-ticker.C:
				b.Sweep(now)
			case <-b.stopCh:
				return
			}
		}
	}()
}

func (b *MemoryBackend) Stop() {
	b.once.Do(func() { close(b.stopCh) })
}
