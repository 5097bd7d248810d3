package vesta

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xff16/vesta/internal/metric"
)

func initMinimalRouter(cfg RouterConfigSet, log *zap.Logger) *Router {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = metric.NewNop()
	}

	app := NewApplication(cfg.Name, cfg.Application.ContextPath, cfg.Application.VirtualHosts...)

	cookie := cfg.SessionCookie
	if cookie == "" {
		cookie = defaultSessionCookie
	}

	return &Router{
		app:        app,
		Routes:     make([]Route, 0, len(cfg.Routes)),
		attributes: cfg.Attributes,
		cookie:     cookie,
		sessionTTL: cfg.SessionTTL,
		views:      cfg.Views,
		log:        log,
		metrics:    metrics,
	}
}

// loadMiddleware loads and initializes a middleware and keeps it for Close.
func (r *Router) loadMiddleware(cfg MiddlewareConfig) (Middleware, error) {
	mw, err := loadMiddleware(cfg, r.log)
	if err != nil {
		return nil, err
	}

	r.middlewares = append(r.middlewares, mw)

	return mw, nil
}

func (r *Router) initGlobalMiddlewares(cfgs []MiddlewareConfig) (map[string]int, []Middleware, error) {
	globalMiddlewareIndices := make(map[string]int)
	globalMiddlewares := make([]Middleware, 0, len(cfgs))

	for _, cfg := range cfgs {
		mw, err := r.loadMiddleware(cfg)
		if err != nil {
			return nil, nil, err
		}

		r.log.Info("global middleware initialized", zap.String("name", mw.Name()))

		globalMiddlewareIndices[mw.Name()] = len(globalMiddlewares)
		globalMiddlewares = append(globalMiddlewares, mw)
	}

	return globalMiddlewareIndices, globalMiddlewares, nil
}

func (r *Router) resolveController(name string, controllers map[string]*Controller) (*Controller, error) {
	if controllers == nil {
		return LookupController(name)
	}

	c, ok := controllers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownController, name)
	}

	return c, nil
}

func (r *Router) initRoute(
	cfg RouteConfig,
	appCfg ApplicationConfig,
	controllers map[string]*Controller,
	globalMiddlewares []Middleware,
	globalMiddlewareIndices map[string]int,
) (Route, error) {
	controller, err := r.resolveController(cfg.Controller, controllers)
	if err != nil {
		return Route{}, fmt.Errorf("route %s %s: %w", cfg.Method, cfg.Path, err)
	}

	var (
		globalMiddlewaresCopy = append([]Middleware(nil), globalMiddlewares...)
		localMiddlewares      = make([]Middleware, 0, len(cfg.Middlewares))
	)

	for _, mcfg := range cfg.Middlewares {
		mw, err := r.loadMiddleware(mcfg)
		if err != nil {
			return Route{}, fmt.Errorf("route %s %s: %w", cfg.Method, cfg.Path, err)
		}

		r.log.Info("middleware initialized", zap.String("name", mw.Name()), zap.String("route", cfg.Method+" "+cfg.Path))

		if mcfg.Override {
			if idx, ok := globalMiddlewareIndices[mw.Name()]; ok {
				globalMiddlewaresCopy[idx] = mw
				continue
			}
		}

		localMiddlewares = append(localMiddlewares, mw)
	}

	param := cfg.ActionParam
	if param == "" {
		param = appCfg.ActionParam
	}

	def := cfg.DefaultAction
	if def == "" {
		def = appCfg.DefaultAction
	}

	route := Route{
		Path:        cfg.Path,
		Method:      cfg.Method,
		Controller:  controller,
		Dispatcher:  newParamDispatcher(controller, param, def, r.log.Named("dispatcher"), r.metrics),
		Middlewares: append(globalMiddlewaresCopy, localMiddlewares...),
	}
	route.handler = r.actionHandler(route)

	return route, nil
}
