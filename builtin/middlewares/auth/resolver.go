package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/jwk"
)

type hmacResolver struct {
	secret []byte
}

func (r *hmacResolver) KeyFunc(_ *jwt.Token) (any, error) {
	return r.secret, nil
}

type rsaResolver struct {
	pub *rsa.PublicKey
}

func (r *rsaResolver) KeyFunc(_ *jwt.Token) (any, error) {
	return r.pub, nil
}

// jwksResolver looks keys up by kid in a remote JWK set. The set is fetched again
// when it is older than the refresh interval or an unknown kid shows up.
type jwksResolver struct {
	url      string
	timeout  time.Duration
	interval time.Duration

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

func newJWKSResolver(url string, timeout, interval time.Duration) *jwksResolver {
	return &jwksResolver{
		url:      url,
		timeout:  timeout,
		interval: interval,
		keys:     make(map[string]*rsa.PublicKey),
	}
}

func (r *jwksResolver) KeyFunc(token *jwt.Token) (any, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("token has no kid")
	}

	key, fresh := r.lookup(kid)
	if key != nil && fresh {
		return key, nil
	}

	if err := r.refresh(); err != nil {
		// Keep serving the cached key while the JWKS endpoint is unreachable.
		if key != nil {
			return key, nil
		}

		return nil, err
	}

	if key, _ := r.lookup(kid); key != nil {
		return key, nil
	}

	return nil, fmt.Errorf("unknown kid %q", kid)
}

func (r *jwksResolver) lookup(kid string) (*rsa.PublicKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.keys[kid], time.Since(r.fetchedAt) < r.interval
}

func (r *jwksResolver) refresh() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	set, err := jwk.Fetch(ctx, r.url)
	if err != nil {
		return err
	}

	keys := make(map[string]*rsa.PublicKey, set.Len())

	for it := set.Iterate(ctx); it.Next(ctx); {
		key, ok := it.Pair().Value.(jwk.Key)
		if !ok {
			continue
		}

		var raw any
		if err = key.Raw(&raw); err != nil {
			return fmt.Errorf("cannot decode key %q: %w", key.KeyID(), err)
		}

		if pub, ok := raw.(*rsa.PublicKey); ok {
			keys[key.KeyID()] = pub
		}
	}

	r.mu.Lock()
	r.keys = keys
	r.fetchedAt = time.Now()
	r.mu.Unlock()

	return nil
}
