package vesta

import (
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

type Middleware interface {
	Name() string
	Init(cfg map[string]interface{}) error
	Handler(next http.Handler) http.Handler
}

//nolint:gochecknoglobals // registered from init functions
var (
	middlewareRegistry = make(map[string]func() Middleware)
	muMiddlewares      sync.RWMutex
)

// RegisterMiddleware makes a middleware factory available to configuration by name.
func RegisterMiddleware(name string, factory func() Middleware) {
	muMiddlewares.Lock()
	defer muMiddlewares.Unlock()

	middlewareRegistry[name] = factory
}

func createMiddleware(name string) Middleware {
	muMiddlewares.RLock()
	defer muMiddlewares.RUnlock()

	if f, ok := middlewareRegistry[name]; ok {
		return f()
	}

	return nil
}

// loadMiddleware creates the middleware described by cfg, from a Go plugin when a path
// is configured and from the registry otherwise.
func loadMiddleware(cfg MiddlewareConfig, log *zap.Logger) (Middleware, error) {
	var mw Middleware

	if cfg.Path != "" {
		factory := loadSymbol[func() Middleware](cfg.Path, "NewMiddleware", log)
		if factory == nil {
			return nil, fmt.Errorf("cannot load middleware %q from %s", cfg.Name, cfg.Path)
		}
		mw = factory()
	} else {
		mw = createMiddleware(cfg.Name)
		if mw == nil {
			return nil, fmt.Errorf("middleware %q is not registered", cfg.Name)
		}
	}

	if err := mw.Init(cfg.Config); err != nil {
		return nil, fmt.Errorf("cannot initialize middleware %q: %w", mw.Name(), err)
	}

	return mw, nil
}
