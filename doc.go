/*
Package quorum is a multi-stage decision pipeline for DAO governance proposals.

A submitted proposal moves through three fixed analysis stages, compliance and
financial analysis, voter-sentiment prediction, and execution planning, before a
final recommendation is synthesized from whatever the stages produced. The
pipeline is asynchronous end to end: stage dispatch never blocks on a reply, and
results re-enter the coordinator as stage-completion messages.

# Architecture

The engine follows a ports-and-adapters layout. The workflow coordinator owns
the per-proposal state machine; analysis units sit behind a dispatcher port and
can be the bundled local simulations or remote services feeding results back
over HTTP. Voter knowledge (influence weights, historical votes, the follow
graph, sentiment observations) lives behind a knowledge-store port with
in-memory and redis implementations.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/daoforge/quorum"
		"github.com/daoforge/quorum/pkg/domain"
	)

	func main() {
		eng, err := quorum.New()
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		if err := eng.SeedDemoData(ctx); err != nil {
			log.Fatal(err)
		}

		_, err = eng.SubmitProposal(ctx, domain.SubmissionRequest{
			ProposalID:      "prop_123",
			Title:           "DeFi Integration",
			Description:     "Fund 50 ETH for yield farming",
			RequestedAmount: 50,
			Submitter:       "alice",
		})
		if err != nil {
			log.Fatal(err)
		}

		// The local analysis units run asynchronously; wait for them when
		// driving the pipeline from a short-lived process.
		eng.Drain()

		analysis := eng.Analysis(ctx, "prop_123")
		fmt.Println(analysis.FinalRecommendation)
	}
*/
package quorum
