package vesta

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/xff16/vesta/internal/metric"
)

type Router struct {
	app    *Application
	Routes []Route
	mux    *chi.Mux

	// middlewares holds every initialized middleware, including global ones
	// overridden on all routes.
	middlewares []Middleware

	attributes AttributeBackend
	cookie     string
	sessionTTL time.Duration
	views      *Views

	log     *zap.Logger
	metrics metric.Metrics
}

type RouterConfigSet struct {
	Name        string
	Application ApplicationConfig
	Routes      []RouteConfig
	Middlewares []MiddlewareConfig

	// Controllers resolves route controllers by name. Nil means the process-wide
	// registry filled by RegisterController.
	Controllers map[string]*Controller

	// Attributes scopes attribute stores by session. Nil gives every request its own
	// in-memory store.
	Attributes    AttributeBackend
	SessionCookie string
	SessionTTL    time.Duration

	Views   *Views
	Metrics metric.Metrics
}

func NewRouter(cfg RouterConfigSet, log *zap.Logger) (*Router, error) {
	router := initMinimalRouter(cfg, log)

	globalMiddlewareIndices, globalMiddlewares, err := router.initGlobalMiddlewares(cfg.Middlewares)
	if err != nil {
		router.Close()
		return nil, err
	}

	for _, rcfg := range cfg.Routes {
		route, err := router.initRoute(rcfg, cfg.Application, cfg.Controllers, globalMiddlewares, globalMiddlewareIndices)
		if err != nil {
			router.Close()
			return nil, err
		}

		router.Routes = append(router.Routes, route)
	}

	router.mux = router.buildMux()

	return router, nil
}

func (r *Router) buildMux() *chi.Mux {
	mux := chi.NewRouter()
	mux.NotFound(r.notFound)
	mux.MethodNotAllowed(r.methodNotAllowed)

	for _, route := range r.Routes {
		if route.Method == MethodAny {
			mux.Handle(route.Path, route.handler)
			continue
		}

		mux.Method(route.Method, route.Path, route.handler)
	}

	return mux
}

// Application returns the request context shared by all requests of the router.
func (r *Router) Application() *Application {
	return r.app
}

// Close stops middlewares that run background work, such as limiter cleanup.
func (r *Router) Close() {
	for _, mw := range r.middlewares {
		if s, ok := mw.(interface{ Stop() }); ok {
			s.Stop()
		}
	}
}

// ServeHTTP handles incoming HTTP requests.
//
// The processing steps are:
//
// 1. Request ID – taken from X-Request-ID or generated, echoed in the response.
// 2. Context path – requests addressed to a virtual host are routed from "/", all
// others must start with the context path, which is stripped. Anything else is a 404.
// 3. Route matching – method and path pattern select a Route.
// 4. Middleware execution – global middlewares, then route middlewares.
// 5. Action – a new Action is created for the request with its attribute store and
// performs the request; the dispatcher invokes the action named by the request.
//
// Errors returned by the action are mapped to JSON errors unless the action already
// started writing the response: ErrActionNotFound gives 404, anything else 500.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.metrics.IncRequestsTotal()

	r.metrics.IncRequestsInFlight()
	defer r.metrics.DecRequestsInFlight()

	requestID := getOrCreateRequestID(req)
	w.Header().Set("X-Request-ID", requestID)

	req = req.WithContext(context.WithValue(req.Context(), requestIDKey{}, requestID))

	appReq, ok := r.stripContextPath(req)
	if !ok {
		r.notFound(w, req)
		return
	}

	r.mux.ServeHTTP(w, appReq)
}

func (r *Router) actionHandler(route Route) http.Handler {
	var routeHandler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		defer r.metrics.UpdateRequestsDuration(route.Path, route.Method, start)

		appReq := NewRequest(req, r.app)
		resp := NewResponse(w)

		act := NewAction(route.Dispatcher, r.attributesFor(resp, appReq), WithViews(r.views))

		if err := act.Perform(appReq, resp); err != nil {
			r.actionError(resp, req, route, err)
		}

		r.metrics.IncResponsesTotal(route.Path, resp.Status())
	})

	for i := len(route.Middlewares) - 1; i >= 0; i-- {
		routeHandler = route.Middlewares[i].Handler(routeHandler)
	}

	return routeHandler
}

func (r *Router) attributesFor(w http.ResponseWriter, req *Request) AttributeStore {
	if r.attributes == nil {
		return NewAttributes()
	}

	id := sessionID(w, req.HTTP(), r.cookie, sessionCookiePath(req), r.sessionTTL)

	return r.attributes.Scope(id)
}

func (r *Router) actionError(resp *Response, req *http.Request, route Route, err error) {
	requestID := RequestID(req.Context())

	log := r.log.With(
		zap.String("route", route.Method+" "+route.Path),
		zap.String("request_id", requestID),
		zap.Error(err),
	)

	if resp.Written() {
		log.Error("action failed after response was written")
		r.metrics.IncFailedRequestsTotal(metric.FailReasonActionError)

		return
	}

	if errors.Is(err, ErrActionNotFound) {
		log.Warn("action not found")
		r.metrics.IncFailedRequestsTotal(metric.FailReasonActionNotFound)
		WriteError(resp, ErrorCodeActionNotFound, "action not found", requestID, http.StatusNotFound)

		return
	}

	log.Error("action failed")
	r.metrics.IncFailedRequestsTotal(metric.FailReasonActionError)
	WriteError(resp, ErrorCodeInternal, "internal error", requestID, http.StatusInternalServerError)
}

func (r *Router) notFound(w http.ResponseWriter, req *http.Request) {
	r.log.Error("no route matched", zap.String("request_uri", req.URL.RequestURI()))
	r.metrics.IncFailedRequestsTotal(metric.FailReasonNoMatchedRoute)

	WriteError(w, ErrorCodeNotFound, "not found", RequestID(req.Context()), http.StatusNotFound)
}

func (r *Router) methodNotAllowed(w http.ResponseWriter, req *http.Request) {
	r.metrics.IncFailedRequestsTotal(metric.FailReasonMethodNotAllowed)

	WriteError(w, ErrorCodeMethodNotAllowed, "method not allowed", RequestID(req.Context()), http.StatusMethodNotAllowed)
}

// stripContextPath returns req with the context path removed from its URL. Requests
// for a virtual host are returned unchanged.
func (r *Router) stripContextPath(req *http.Request) (*http.Request, bool) {
	cp := r.app.ContextPath()
	if cp == "" || r.app.IsVhostOf(NewRequest(req, r.app).ServerName()) {
		return req, true
	}

	p := strings.TrimPrefix(req.URL.Path, cp)
	if len(p) == len(req.URL.Path) || (p != "" && p[0] != '/') {
		return nil, false
	}
	if p == "" {
		p = "/"
	}

	r2 := new(http.Request)
	*r2 = *req
	r2.URL = new(url.URL)
	*r2.URL = *req.URL
	r2.URL.Path = p
	r2.URL.RawPath = ""

	return r2, true
}

type requestIDKey struct{}

// RequestID returns the request ID the router assigned to the request context.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func getOrCreateRequestID(r *http.Request) string {
	requestID := r.Header.Get("X-Request-ID")
	if requestID != "" {
		return requestID
	}

	t := time.Now()
	entropy := ulid.Monotonic(rand.Reader, math.MaxInt64)

	return strings.ToLower(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}
