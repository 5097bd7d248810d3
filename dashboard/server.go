package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/xff16/vesta"
)

const redacted = "[redacted]"

type Server struct {
	cfg    *vesta.Config
	router *vesta.Router
	log    *zap.Logger
}

type RouteInfo struct {
	Method     string   `json:"method"`
	Path       string   `json:"path"`
	Controller string   `json:"controller"`
	Actions    []string `json:"actions"`
}

func NewServer(cfg *vesta.Config, router *vesta.Router, log *zap.Logger) *Server {
	return &Server{
		cfg:    cfg,
		router: router,
		log:    log,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /config", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, redactConfig(*s.cfg))
	})

	mux.HandleFunc("GET /routes", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, Routes(s.router))
	})

	return mux
}

// Start serves the dashboard until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Dashboard.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Dashboard.Timeout,
		WriteTimeout: s.cfg.Dashboard.Timeout,
	}

	go func() {
		<-ctx.Done()

		//nolint:errcheck,gosec // listener is gone either way
		server.Close()
	}()

	s.log.Info("dashboard server started", zap.String("addr", addr))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error("dashboard server had errors, processed shutdown", zap.Error(err))
		return fmt.Errorf("dashboard: %w", err)
	}

	return nil
}

// Routes describes the routes of router together with the actions their
// controllers expose.
func Routes(router *vesta.Router) []RouteInfo {
	infos := make([]RouteInfo, 0, len(router.Routes))

	for _, route := range router.Routes {
		infos = append(infos, RouteInfo{
			Method:     route.Method,
			Path:       route.Path,
			Controller: route.Controller.Name(),
			Actions:    route.Controller.Actions(),
		})
	}

	return infos
}

// secretMarkers flag middleware config keys whose values must not leave the process.
//
//nolint:gochecknoglobals // read-only
var secretMarkers = []string{"secret", "password", "token", "private"}

// redactConfig returns a copy of cfg with credentials replaced. The middleware
// slices and config maps are copied, cfg itself is left untouched.
func redactConfig(cfg vesta.Config) vesta.Config {
	if cfg.Attributes.Redis.Password != "" {
		cfg.Attributes.Redis.Password = redacted
	}

	cfg.Middlewares = redactMiddlewares(cfg.Middlewares)

	routes := make([]vesta.RouteConfig, len(cfg.Routes))
	for i, route := range cfg.Routes {
		route.Middlewares = redactMiddlewares(route.Middlewares)
		routes[i] = route
	}
	cfg.Routes = routes

	return cfg
}

func redactMiddlewares(mws []vesta.MiddlewareConfig) []vesta.MiddlewareConfig {
	if mws == nil {
		return nil
	}

	out := make([]vesta.MiddlewareConfig, len(mws))
	for i, mw := range mws {
		mw.Config = redactMap(mw.Config)
		out[i] = mw
	}

	return out
}

func redactMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		if isSecretKey(k) {
			out[k] = redacted
			continue
		}

		if nested, ok := v.(map[string]any); ok {
			v = redactMap(nested)
		}
		out[k] = v
	}

	return out
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	for _, marker := range secretMarkers {
		if strings.Contains(key, marker) {
			return true
		}
	}

	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	//nolint:errcheck,gosec // its ok
	json.NewEncoder(w).Encode(v)
}
