package memory

import (
	"context"

	"github.com/daoforge/quorum/pkg/domain"
	"github.com/daoforge/quorum/pkg/ports"
)

// Seed loads the sample community graph used by the demo CLI into any
// knowledge store: five voters with influence weights, a small follow
// graph, and two proposals' worth of historical votes.
func Seed(ctx context.Context, kg ports.KnowledgeStore) error {
	influence := map[string]float64{
		"alice":   0.8,
		"bob":     0.6,
		"charlie": 0.4,
		"dave":    0.3,
		"eve":     0.5,
	}
	for user, w := range influence {
		if err := kg.SetInfluence(ctx, user, w); err != nil {
			return err
		}
	}

	follows := map[string][]string{
		"alice":   {"bob", "charlie"},
		"bob":     {"charlie", "dave"},
		"charlie": {"alice"},
		"dave":    {"alice", "bob"},
		"eve":     {"alice"},
	}
	for user, fs := range follows {
		if err := kg.SetFollows(ctx, user, fs); err != nil {
			return err
		}
	}

	votes := []domain.HistoricalVote{
		{UserID: "alice", ProposalID: "prop_001", Stance: domain.StanceFor},
		{UserID: "bob", ProposalID: "prop_001", Stance: domain.StanceAgainst},
		{UserID: "charlie", ProposalID: "prop_001", Stance: domain.StanceFor},
		{UserID: "dave", ProposalID: "prop_001", Stance: domain.StanceNeutral},
		{UserID: "alice", ProposalID: "prop_002", Stance: domain.StanceFor},
		{UserID: "bob", ProposalID: "prop_002", Stance: domain.StanceFor},
		{UserID: "eve", ProposalID: "prop_002", Stance: domain.StanceAgainst},
	}
	for _, v := range votes {
		if err := kg.CastVote(ctx, v.UserID, v.ProposalID, v.Stance); err != nil {
			return err
		}
	}
	return nil
}

// Seed loads the sample community graph into this store.
func (k *Knowledge) Seed(ctx context.Context) error {
	return Seed(ctx, k)
}

// SeedUsers is the roster matching Seed, in influence order.
var SeedUsers = []string{"alice", "bob", "charlie", "dave", "eve"}
