package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clients(t *testing.T) map[string]Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := NewRedis(context.Background(), Config{Driver: "redis", Addr: mr.Addr(), Prefix: "fl"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	return map[string]Client{
		"memory": NewMemory("fl"),
		"redis":  rc,
	}
}

func TestClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, c := range clients(t) {
		t.Run(name, func(t *testing.T) {
			_, err := c.Get(ctx, "missing")
			assert.True(t, IsNotFound(err))

			require.NoError(t, c.Set(ctx, "k", []byte("v1"), time.Minute))
			got, err := c.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v1"), got)

			require.NoError(t, c.Delete(ctx, "k"))
			require.NoError(t, c.Delete(ctx, "k"))
			_, err = c.Get(ctx, "k")
			assert.True(t, IsNotFound(err))

			require.NoError(t, c.Ping(ctx))
		})
	}
}

func TestRedis_PrefixAndTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c, err := NewRedis(ctx, Config{Addr: mr.Addr(), Prefix: "fl"})
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "sid:abc", []byte("x"), time.Minute))
	assert.True(t, mr.Exists("fl:sid:abc"))
	assert.Equal(t, time.Minute, mr.TTL("fl:sid:abc"))

	mr.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, "sid:abc")
	assert.True(t, IsNotFound(err))
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), Config{Driver: "memcached"})
	assert.Error(t, err)
}

func TestNewRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(context.Background(), Config{Addr: addr})
	assert.Error(t, err)
}
