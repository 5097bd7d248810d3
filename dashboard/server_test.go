package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/xff16/vesta"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	noop := func(*vesta.Action) error { return nil }
	ctrl := vesta.NewController("pages").
		MustHandle("index", noop).
		MustHandle("about", noop)

	cfg := &vesta.Config{
		Name:    "test",
		Version: "1",
		Attributes: vesta.AttributesConfig{
			Backend: vesta.AttributeBackendRedis,
			Redis:   vesta.RedisConfig{Addr: "localhost:6379", Password: "secret"},
		},
		Middlewares: []vesta.MiddlewareConfig{
			{Name: "auth", Config: map[string]any{"issuer": "vesta", "hmac_secret": "global-hmac"}},
		},
		Routes: []vesta.RouteConfig{
			{Path: "/pages", Method: http.MethodGet, Controller: "pages"},
		},
	}

	// The router is built before the route-local secrets are added, so it needs no
	// registered auth middleware.
	router, err := vesta.NewRouter(vesta.RouterConfigSet{
		Routes:      cfg.Routes,
		Controllers: map[string]*vesta.Controller{"pages": ctrl},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("cannot build router: %v", err)
	}

	cfg.Routes[0].Middlewares = []vesta.MiddlewareConfig{{
		Name: "auth",
		Config: map[string]any{
			"hmac_secret": "route-hmac",
			"upstream":    map[string]any{"api_token": "nested-token"},
		},
	}}

	return NewServer(cfg, router, zap.NewNop())
}

func TestDashboard_Config(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/config", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	body := w.Body.String()
	for _, secret := range []string{`"secret"`, "global-hmac", "route-hmac", "nested-token"} {
		if strings.Contains(body, secret) {
			t.Errorf("%s leaked: %s", secret, body)
		}
	}
	if !strings.Contains(body, redacted) {
		t.Errorf("expected redacted values, got %s", body)
	}
	if !strings.Contains(body, `"issuer":"vesta"`) {
		t.Errorf("non-secret middleware config must be kept, got %s", body)
	}

	if s.cfg.Attributes.Redis.Password != "secret" ||
		s.cfg.Middlewares[0].Config["hmac_secret"] != "global-hmac" ||
		s.cfg.Routes[0].Middlewares[0].Config["hmac_secret"] != "route-hmac" {
		t.Error("redaction must not modify the served config")
	}
}

func TestDashboard_Routes(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/routes", nil))

	var routes []RouteInfo
	if err := json.Unmarshal(w.Body.Bytes(), &routes); err != nil {
		t.Fatalf("invalid json: %v", err)
	}

	if len(routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(routes))
	}

	r := routes[0]
	if r.Method != http.MethodGet || r.Path != "/pages" || r.Controller != "pages" {
		t.Errorf("unexpected route: %+v", r)
	}
	if strings.Join(r.Actions, ",") != "about,index" {
		t.Errorf("expected sorted actions, got %v", r.Actions)
	}
}

func TestDashboard_StartStopsOnCancel(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- s.Start(ctx) }()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
