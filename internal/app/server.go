package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xff16/vesta"
	"github.com/xff16/vesta/dashboard"
	"github.com/xff16/vesta/internal/attrstore"
	"github.com/xff16/vesta/internal/metric"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	http      *http.Server
	dashboard *dashboard.Server
	router    *vesta.Router
	log       *zap.Logger

	closers []func() error
}

func NewServer(cfg vesta.Config, log *zap.Logger) (*Server, error) {
	s := &Server{log: log}

	mux := http.NewServeMux()

	m, metricsHandler := newMetrics(cfg.Server.Metrics)
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	attrs, err := s.newAttributeBackend(cfg.Attributes)
	if err != nil {
		return nil, err
	}

	var views *vesta.Views
	if cfg.Application.Views != "" {
		views, err = vesta.LoadViews(cfg.Application.Views)
		if err != nil {
			return nil, errors.Join(err, s.close())
		}
	}

	routerConfigSet := vesta.RouterConfigSet{
		Name:          cfg.Name,
		Application:   cfg.Application,
		Routes:        cfg.Routes,
		Middlewares:   cfg.Middlewares,
		Attributes:    attrs,
		SessionCookie: cfg.Attributes.Cookie,
		SessionTTL:    cfg.Attributes.TTL,
		Views:         views,
		Metrics:       m,
	}

	s.router, err = vesta.NewRouter(routerConfigSet, log.Named("router"))
	if err != nil {
		return nil, errors.Join(err, s.close())
	}

	s.closers = append(s.closers, func() error {
		s.router.Close()
		return nil
	})

	mux.Handle("/", s.router)

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	if cfg.Dashboard.Enabled {
		s.dashboard = dashboard.NewServer(&cfg, s.router, log.Named("dashboard"))
	}

	return s, nil
}

// Handler returns the handler serving application routes and /metrics.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) Router() *vesta.Router {
	return s.router
}

// Run serves until ctx is cancelled or one of the servers fails, then shuts
// everything down.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("server started", zap.String("addr", s.http.Addr))

		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}

		return nil
	})

	if s.dashboard != nil {
		g.Go(func() error {
			return s.dashboard.Start(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()

		return s.Stop(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) Stop(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	if err != nil {
		s.log.Error("graceful shutdown failed", zap.Error(err))
	}

	return errors.Join(err, s.close())
}

func (s *Server) close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	s.closers = nil

	return errors.Join(errs...)
}

func (s *Server) newAttributeBackend(cfg vesta.AttributesConfig) (vesta.AttributeBackend, error) {
	switch cfg.Backend {
	case vesta.AttributeBackendRequest:
		return nil, nil //nolint:nilnil // request-local stores
	case vesta.AttributeBackendMemory:
		b := vesta.NewMemoryBackend(cfg.TTL)
		b.Start()
		s.closers = append(s.closers, func() error {
			b.Stop()
			return nil
		})

		return b, nil
	case vesta.AttributeBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, client.Close)

		opts := []attrstore.Option{attrstore.WithTTL(cfg.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, attrstore.WithPrefix(cfg.Redis.Prefix))
		}

		return attrstore.NewRedis(client, opts...), nil
	default:
		return nil, fmt.Errorf("unknown attributes backend %q", cfg.Backend)
	}
}

// newMetrics returns the metrics sink and the handler exposing it, nil when
// metrics are disabled.
func newMetrics(cfg vesta.MetricsConfig) (metric.Metrics, http.Handler) {
	if !cfg.Enabled {
		return metric.NewNop(), nil
	}

	switch cfg.Provider {
	case vesta.MetricsProviderVictoria:
		set := metrics.NewSet()

		return metric.NewVictoria(set), http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			set.WritePrometheus(w)
			metrics.WriteProcessMetrics(w)
		})
	default:
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		return metric.NewPrometheus(reg), promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}
}
