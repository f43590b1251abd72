package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daoforge/quorum/pkg/adapters/memory"
	"github.com/daoforge/quorum/pkg/ports"
)

func TestMemoryKnowledge_Contract(t *testing.T) {
	ports.RunKnowledgeStoreContract(t, memory.NewKnowledge())
}

func TestMemoryKnowledge_Seed(t *testing.T) {
	ctx := context.Background()
	kg := memory.NewKnowledge()
	require.NoError(t, kg.Seed(ctx))

	w, err := kg.Influence(ctx, "alice")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, w, 1e-9)

	follows, err := kg.Follows(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, follows)

	// Seeded votes are immutable like any other cast.
	err = kg.CastVote(ctx, "alice", "prop_001", "Against")
	assert.Error(t, err)
}
