package recoverer

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/xff16/vesta"
	"github.com/xff16/vesta/internal/logger"
)

func init() {
	vesta.RegisterMiddleware("recoverer", NewMiddleware)
}

type config struct {
	Enabled      *bool `mapstructure:"enabled"`
	IncludeStack bool  `mapstructure:"include_stack"`
}

type Middleware struct {
	enabled      bool
	includeStack bool
	log          *zap.Logger
}

func NewMiddleware() vesta.Middleware {
	return &Middleware{}
}

func (m *Middleware) Name() string {
	return "recoverer"
}

func (m *Middleware) Init(cfg map[string]interface{}) error {
	var c config
	if err := mapstructure.Decode(cfg, &c); err != nil {
		return err
	}

	m.enabled = c.Enabled == nil || *c.Enabled
	m.includeStack = c.IncludeStack
	m.log = logger.New(false).Named("recoverer")

	return nil
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	if !m.enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			//nolint:errorlint // compared by identity, as net/http does
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			requestID := vesta.RequestID(r.Context())

			log := m.log.With(
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("request_id", requestID),
			)

			msg := fmt.Sprintf("panic recovered: %v", rec)
			if m.includeStack {
				log.Error(msg, zap.ByteString("stack", debug.Stack()))
			} else {
				log.Error(msg)
			}

			vesta.WriteError(w, vesta.ErrorCodeInternal, "internal server error", requestID, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
