package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mitchellh/mapstructure"

	"github.com/xff16/vesta"
)

func init() {
	vesta.RegisterMiddleware("auth", NewMiddleware)
}

type ctxKeyClaims struct{}

// Claims returns the claims of the token that authenticated the request.
func Claims(ctx context.Context) (jwt.MapClaims, bool) {
	claims, ok := ctx.Value(ctxKeyClaims{}).(jwt.MapClaims)
	return claims, ok
}

type keyResolver interface {
	KeyFunc(token *jwt.Token) (any, error)
}

type config struct {
	Issuer              string        `mapstructure:"issuer"`
	Audience            string        `mapstructure:"audience"`
	Alg                 string        `mapstructure:"alg"`
	HMACSecret          string        `mapstructure:"hmac_secret"`
	RSAPublicKey        string        `mapstructure:"rsa_public_key"`
	JWKSURL             string        `mapstructure:"jwks_url"`
	JWKSRefreshTimeout  time.Duration `mapstructure:"jwks_refresh_timeout"`
	JWKSRefreshInterval time.Duration `mapstructure:"jwks_refresh_interval"`
}

type Middleware struct {
	Issuer   string
	Audience string
	Alg      string
	Resolver keyResolver
}

const (
	defaultLeeway              = 5 * time.Second
	defaultJWKSRefreshTimeout  = 5 * time.Second
	defaultJWKSRefreshInterval = 15 * time.Minute
)

func NewMiddleware() vesta.Middleware {
	return &Middleware{}
}

func (m *Middleware) Name() string {
	return "auth"
}

func (m *Middleware) Init(cfg map[string]interface{}) error {
	var c config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &c,
	})
	if err != nil {
		return err
	}

	if err = decoder.Decode(cfg); err != nil {
		return err
	}

	if c.Issuer == "" {
		return errors.New("missing issuer")
	}
	if c.Audience == "" {
		return errors.New("missing audience")
	}

	m.Issuer = c.Issuer
	m.Audience = c.Audience
	m.Alg = c.Alg

	m.Resolver, err = newKeyResolver(c)

	return err
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, r, "missing authorization header")
			return
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			unauthorized(w, r, "invalid authorization header")
			return
		}

		token, err := jwt.ParseWithClaims(
			tokenString,
			jwt.MapClaims{},
			m.Resolver.KeyFunc,
			jwt.WithValidMethods([]string{m.Alg}),
			jwt.WithLeeway(defaultLeeway),
			jwt.WithIssuer(m.Issuer),
			jwt.WithAudience(m.Audience),
			jwt.WithExpirationRequired(),
		)
		if err != nil || !token.Valid {
			unauthorized(w, r, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(w, r, "invalid token claims")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyClaims{}, claims)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer`)
	vesta.WriteError(w, vesta.ErrorCodeUnauthorized, msg, vesta.RequestID(r.Context()), http.StatusUnauthorized)
}

func newKeyResolver(c config) (keyResolver, error) {
	switch c.Alg {
	case jwt.SigningMethodHS256.Alg():
		if c.HMACSecret == "" {
			return nil, errors.New("HMAC secret not configured")
		}

		return &hmacResolver{secret: []byte(c.HMACSecret)}, nil
	case jwt.SigningMethodRS256.Alg():
		if c.JWKSURL != "" {
			timeout := c.JWKSRefreshTimeout
			if timeout <= 0 {
				timeout = defaultJWKSRefreshTimeout
			}

			interval := c.JWKSRefreshInterval
			if interval <= 0 {
				interval = defaultJWKSRefreshInterval
			}

			resolver := newJWKSResolver(c.JWKSURL, timeout, interval)
			if err := resolver.refresh(); err != nil {
				return nil, fmt.Errorf("cannot refresh JWKS: %w", err)
			}

			return resolver, nil
		}

		if c.RSAPublicKey != "" {
			pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(c.RSAPublicKey))
			if err != nil {
				return nil, fmt.Errorf("invalid RSA public key: %w", err)
			}

			return &rsaResolver{pub: pub}, nil
		}

		return nil, errors.New("RSA public key not configured")
	default:
		return nil, fmt.Errorf("unsupported signing method: %s", c.Alg)
	}
}
