package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hydrolearn/knowsearch/internal/mcp"
	"github.com/hydrolearn/knowsearch/internal/metrics"
	"github.com/hydrolearn/knowsearch/internal/store"
)

func serveCmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long:  "Run the knowledge search MCP server, speaking JSON-RPC over stdio, with an optional Prometheus metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}

			log.Printf("knowsearch MCP server v%s starting (driver: %s, mode: %s)", version, store.DriverName, store.BuildMode)

			var m *metrics.Metrics
			if cfg.MetricsAddr != "" {
				m = metrics.New("knowsearch")
				go func() {
					mux := http.NewServeMux()
					mux.Handle("/metrics", m.Handler())
					log.Printf("metrics listening on %s", cfg.MetricsAddr)
					if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
						log.Printf("metrics server: %v", err)
					}
				}()
			}

			server, err := mcp.NewServer(cfg, m)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				log.Println("MCP server ready, listening on stdio...")
				errCh <- server.Serve(ctx)
			}()

			select {
			case sig := <-sigCh:
				log.Printf("received signal %v, shutting down...", sig)
				cancel()
				// Give in-flight tool calls a moment to finish.
				select {
				case <-errCh:
				case <-time.After(2 * time.Second):
				}
			case err := <-errCh:
				if err != nil {
					return err
				}
			}

			log.Println("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address for the Prometheus /metrics endpoint (disabled when empty)")
	return cmd
}
