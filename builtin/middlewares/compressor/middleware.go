package compressor

import (
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/xff16/vesta"
	"github.com/xff16/vesta/internal/logger"
)

func init() {
	vesta.RegisterMiddleware("compressor", NewMiddleware)
}

const (
	algGzip    = "gzip"
	algDeflate = "deflate"
)

type config struct {
	Enabled *bool  `mapstructure:"enabled"`
	Alg     string `mapstructure:"alg"`
}

type Middleware struct {
	enabled bool
	alg     string
	log     *zap.Logger
}

func NewMiddleware() vesta.Middleware {
	return &Middleware{}
}

func (m *Middleware) Name() string {
	return "compressor"
}

func (m *Middleware) Init(cfg map[string]interface{}) error {
	var c config
	if err := mapstructure.Decode(cfg, &c); err != nil {
		return err
	}

	m.enabled = c.Enabled == nil || *c.Enabled

	switch alg := strings.ToLower(c.Alg); alg {
	case "":
		m.alg = algGzip
	case algGzip, algDeflate:
		m.alg = alg
	default:
		return fmt.Errorf("unsupported compression algorithm: %s", c.Alg)
	}

	m.log = logger.New(false).Named("compressor")

	return nil
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	if !m.enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Encoding")

		if !strings.Contains(r.Header.Get("Accept-Encoding"), m.alg) {
			next.ServeHTTP(w, r)
			return
		}

		var (
			writer io.WriteCloser
			err    error
		)

		switch m.alg {
		case algGzip:
			writer = gzip.NewWriter(w)
		case algDeflate:
			writer, err = flate.NewWriter(w, flate.DefaultCompression)
			if err != nil {
				m.logger().Error("cannot create deflate writer", zap.Error(err))
				next.ServeHTTP(w, r)

				return
			}
		}

		w.Header().Set("Content-Encoding", m.alg)

		defer func() {
			if err = writer.Close(); err != nil {
				m.logger().Warn("cannot close compression writer", zap.Error(err))
			}
		}()

		cw := &compressorResponseWriter{
			ResponseWriter: w,
			Writer:         writer,
		}

		next.ServeHTTP(cw, r)
	})
}

func (m *Middleware) logger() *zap.Logger {
	if m.log == nil {
		return zap.NewNop()
	}

	return m.log
}

type compressorResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (w *compressorResponseWriter) WriteHeader(code int) {
	w.ResponseWriter.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(code)
}

func (w *compressorResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}
