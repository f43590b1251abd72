package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daoforge/quorum/pkg/adapters/redis"
	"github.com/daoforge/quorum/pkg/domain"
	"github.com/daoforge/quorum/pkg/ports"
)

func newTestClient(t *testing.T) *backend.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisKnowledge_Contract(t *testing.T) {
	store := redis.NewFromClient(newTestClient(t))
	ports.RunKnowledgeStoreContract(t, store)
}

func TestRedisKnowledge_PrefixIsolation(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	first := redis.NewFromClient(client, redis.WithPrefix("one:"))
	second := redis.NewFromClient(client, redis.WithPrefix("two:"))

	require.NoError(t, first.SetInfluence(ctx, "alice", 0.9))

	weight, err := second.Influence(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultInfluence, weight, "stores with distinct prefixes must not share data")
}
