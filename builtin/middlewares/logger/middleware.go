package logger

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/xff16/vesta"
	"github.com/xff16/vesta/internal/logger"
)

func init() {
	vesta.RegisterMiddleware("logger", NewMiddleware)
}

type config struct {
	Enabled *bool `mapstructure:"enabled"`
	LogBody bool  `mapstructure:"log_body"`
	Debug   bool  `mapstructure:"debug"`
}

type Middleware struct {
	enabled bool
	logBody bool
	log     *zap.Logger
}

func NewMiddleware() vesta.Middleware {
	return &Middleware{}
}

func (m *Middleware) Name() string {
	return "logger"
}

func (m *Middleware) Init(cfg map[string]interface{}) error {
	var c config
	if err := mapstructure.Decode(cfg, &c); err != nil {
		return err
	}

	m.enabled = c.Enabled == nil || *c.Enabled
	m.logBody = c.LogBody
	m.log = logger.New(c.Debug).Named("http")

	return nil
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	if !m.enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var bodyCopy []byte
		if m.logBody && r.Body != nil {
			bodyCopy, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(bodyCopy))
		}

		requestID := vesta.RequestID(r.Context())

		m.log.Info("request started",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("request_id", requestID),
		)

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		fields := []zap.Field{
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID),
		}

		if m.logBody && len(bodyCopy) > 0 {
			fields = append(fields, zap.ByteString("body", bodyCopy))
		}

		m.log.Info("request completed", fields...)
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
