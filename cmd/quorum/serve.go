package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	httpadapter "github.com/daoforge/quorum/internal/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the governance pipeline HTTP server",
	Long: `Starts the HTTP server exposing proposal submission, workflow status,
analysis, query, and prediction endpoints, plus Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, registry, err := buildEngine(cmd)
		if err != nil {
			return err
		}

		handler := httpadapter.NewHandler(eng, httpadapter.WithMetricsHandler(
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		))

		srv := &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Printf("Quorum listening on %s\n", cfg.ListenAddr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case sig := <-shutdown:
			fmt.Printf("shutdown started: signal %v\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				srv.Close()
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
			eng.Drain()
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
