package slot

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"porch-petals/internal/domain"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return mr, client
}

func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	_, err := repo.Get(ctx, "porch-petals-cart")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Put(ctx, "porch-petals-cart", []byte(`[{"kind":"bouquet"}]`)))
	got, err := repo.Get(ctx, "porch-petals-cart")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"kind":"bouquet"}]`, string(got))

	require.NoError(t, repo.Put(ctx, "porch-petals-cart", []byte(`[]`)))
	got, err = repo.Get(ctx, "porch-petals-cart")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemory())
}

func TestMemoryRepositoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	buf := []byte("abc")
	require.NoError(t, repo.Put(ctx, "k", buf))
	buf[0] = 'z'

	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestRedisRepository(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	exerciseRepository(t, NewRedis(client, "porch-petals", 0, zerolog.Nop()))
}

func TestRedisRepositoryNamespaceAndTTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()
	repo := NewRedis(client, "pp", time.Hour, zerolog.Nop())
	require.NoError(t, repo.Put(ctx, "porch-petals-order", []byte(`{"id":"PP-1"}`)))

	assert.True(t, mr.Exists("pp:porch-petals-order"))
	assert.Equal(t, time.Hour, mr.TTL("pp:porch-petals-order"))

	mr.FastForward(time.Hour + time.Second)
	_, err := repo.Get(ctx, "porch-petals-order")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDialRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := DialRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()

	_, err = DialRedis(context.Background(), "not a url")
	assert.Error(t, err)
}
