package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/daoforge/quorum"
	"github.com/daoforge/quorum/internal/config"
	"github.com/daoforge/quorum/internal/logging"
	"github.com/daoforge/quorum/internal/observability"
	redisadapter "github.com/daoforge/quorum/pkg/adapters/redis"
)

var rootCmd = &cobra.Command{
	Use:   "quorum",
	Short: "Quorum is a multi-stage decision pipeline for DAO governance",
	Long: `Quorum runs governance proposals through compliance analysis, voter
sentiment prediction, and execution planning, then synthesizes a final
recommendation.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "quorum.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

// buildEngine wires the pipeline engine from the configuration file and
// global flags. The returned registry backs the /metrics endpoint.
func buildEngine(cmd *cobra.Command) (*quorum.Engine, config.Config, *prometheus.Registry, error) {
	path, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, cfg, nil, err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(level)

	registry := prometheus.NewRegistry()
	opts := []quorum.Option{
		quorum.WithLogger(logger),
		quorum.WithVoterRoster(cfg.VoterRoster),
		quorum.WithPolicy(quorum.Policy{
			MaxStageFailures: cfg.MaxStageFailures,
			StageTimeout:     cfg.StageTimeout.Std(),
			TreasuryBalance:  cfg.TreasuryBalance,
		}),
		quorum.WithMetrics(observability.NewMetrics(registry)),
	}

	if cfg.Redis.Addr != "" {
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		var kgOpts []redisadapter.Option
		prefix := cfg.Redis.Prefix
		if prefix == "" {
			prefix = "quorum:"
		} else {
			kgOpts = append(kgOpts, redisadapter.WithPrefix(prefix))
		}
		opts = append(opts,
			quorum.WithKnowledgeStore(redisadapter.NewFromClient(client, kgOpts...)),
			quorum.WithLocker(redisadapter.NewLocker(client, prefix)),
		)
	}

	eng, err := quorum.New(opts...)
	if err != nil {
		return nil, cfg, nil, err
	}

	if cfg.SeedDemoData {
		if err := eng.SeedDemoData(cmd.Context()); err != nil {
			logger.Warn("demo data seeding skipped", "err", err)
		}
	}

	return eng, cfg, registry, nil
}
