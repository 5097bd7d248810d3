package attrstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xff16/vesta"
	"github.com/xff16/vesta/internal/attrstore"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestRedis_RoundTrip(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()

	store := attrstore.NewRedis(client).Scope("session-1")

	require.NoError(t, store.SetAttribute(ctx, "k", "v"))
	require.NoError(t, store.SetAttribute(ctx, "n", 42))
	require.NoError(t, store.SetAttribute(ctx, "user", map[string]any{"name": "ada"}))

	v, err := store.Attribute(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	n, err := store.Attribute(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, float64(42), n)

	user, err := store.Attribute(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "ada"}, user)
}

func TestRedis_LastWriteWins(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()

	store := attrstore.NewRedis(client).Scope("s")

	require.NoError(t, store.SetAttribute(ctx, "k", "first"))
	require.NoError(t, store.SetAttribute(ctx, "k", "second"))

	v, err := store.Attribute(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "second", v)
}

func TestRedis_Missing(t *testing.T) {
	_, client := newRedis(t)

	_, err := attrstore.NewRedis(client).Scope("s").Attribute(context.Background(), "missing")
	assert.ErrorIs(t, err, vesta.ErrAttributeNotFound)
}

func TestRedis_ScopesAreIsolated(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()

	b := attrstore.NewRedis(client)

	require.NoError(t, b.Scope("a").SetAttribute(ctx, "k", "from-a"))

	_, err := b.Scope("b").Attribute(ctx, "k")
	assert.ErrorIs(t, err, vesta.ErrAttributeNotFound)
}

func TestRedis_PrefixAndTTL(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()

	store := attrstore.NewRedis(client, attrstore.WithPrefix("app:"), attrstore.WithTTL(time.Minute)).Scope("s1")
	require.NoError(t, store.SetAttribute(ctx, "k", "v"))

	assert.True(t, mr.Exists("app:s1"), "expected hash with custom prefix")
	assert.Equal(t, time.Minute, mr.TTL("app:s1"))

	mr.FastForward(2 * time.Minute)

	_, err := store.Attribute(ctx, "k")
	assert.ErrorIs(t, err, vesta.ErrAttributeNotFound)
}

func TestRedis_ErrorsPassThrough(t *testing.T) {
	mr, client := newRedis(t)
	store := attrstore.NewRedis(client).Scope("s")

	mr.Close()

	_, err := store.Attribute(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, vesta.ErrAttributeNotFound)
}

func TestRedis_UnencodableValue(t *testing.T) {
	_, client := newRedis(t)

	err := attrstore.NewRedis(client).Scope("s").SetAttribute(context.Background(), "ch", make(chan int))
	assert.Error(t, err)
}
