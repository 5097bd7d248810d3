package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"golang.org/x/time/rate"

	"github.com/xff16/vesta"
)

func init() {
	vesta.RegisterMiddleware("ratelimit", NewMiddleware)
}

const (
	defLimit  = 60
	defWindow = 60 * time.Second

	tickerDur = 10 * time.Second
)

type config struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
	Burst  int           `mapstructure:"burst"`
}

// Middleware allows every client IP limit requests per window, with bursts up to
// burst requests. Limiters of clients idle for a whole window are dropped.
type Middleware struct {
	limit  int
	window time.Duration
	burst  int

	mu      sync.Mutex
	clients map[string]*client
	stopCh  chan struct{}
	once    sync.Once
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewMiddleware() vesta.Middleware {
	return &Middleware{}
}

func (m *Middleware) Name() string { return "ratelimit" }

func (m *Middleware) Init(cfg map[string]interface{}) error {
	var c config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &c,
	})
	if err != nil {
		return err
	}

	if err = decoder.Decode(cfg); err != nil {
		return err
	}

	m.limit = c.Limit
	if m.limit <= 0 {
		m.limit = defLimit
	}

	m.window = c.Window
	if m.window <= 0 {
		m.window = defWindow
	}

	m.burst = c.Burst
	if m.burst <= 0 {
		m.burst = m.limit
	}

	m.clients = make(map[string]*client)
	m.stopCh = make(chan struct{})

	m.start()

	return nil
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Allow(extractClientIP(r)) {
			w.Header().Set("Retry-After", "1")
			vesta.WriteError(w, vesta.ErrorCodeRateLimitExceeded, "rate limit exceeded", vesta.RequestID(r.Context()), http.StatusTooManyRequests)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) Allow(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.clients[key]
	if !ok {
		every := m.window / time.Duration(m.limit)
		c = &client{limiter: rate.NewLimiter(rate.Every(every), m.burst)}
		m.clients[key] = c
	}
	c.lastSeen = time.Now()

	return c.limiter.Allow()
}

func (m *Middleware) start() {
	go func() {
		ticker := time.NewTicker(tickerDur)
		defer ticker.Stop()

		for {
			select {
			case now := <-ticker.C:
				m.cleanup(now)
			case <-m.stopCh:
				return
			}
		}
	}()
}

func (m *Middleware) Stop() {
	m.once.Do(func() { close(m.stopCh) })
}

func (m *Middleware) cleanup(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, c := range m.clients {
		if now.Sub(c.lastSeen) > m.window {
			delete(m.clients, key)
		}
	}
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}

	return r.RemoteAddr
}
