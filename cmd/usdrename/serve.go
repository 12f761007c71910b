package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	mayausd "github.com/mhamid3d/maya-usd"
	"github.com/mhamid3d/maya-usd/internal/cli"
	"github.com/mhamid3d/maya-usd/internal/config"
	"github.com/mhamid3d/maya-usd/internal/presentation/tui"
	httpAdapter "github.com/mhamid3d/maya-usd/pkg/adapters/http"
	"github.com/mhamid3d/maya-usd/pkg/observability"
	"github.com/mhamid3d/maya-usd/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the rename HTTP server",
	Long: `Serves rename sessions over a JSON API. Each session composes layers from the
store and keeps its own undo history. Metrics are exposed on /metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}
		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			tui.PrintBanner(os.Stdout)
		}

		if err := runServe(cfg); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func newServeHandler(cfg *config.Config, b *cli.Backend, reg *prometheus.Registry) http.Handler {
	logger := cli.NewLogger(cfg.Log, os.Stderr)

	editorOpts := cli.EditorOptions(cfg, logger)
	if cfg.Server.Metrics {
		metrics := observability.NewMetrics(reg)
		editorOpts = append(editorOpts,
			mayausd.WithLifecycleHooks(metrics.Hooks()),
			mayausd.WithNotifier(metrics),
		)
	}

	managerOpts := []session.Option{
		session.WithLogger(logger),
		session.WithLockTTL(cfg.Session.LockTTL),
		session.WithEditorOptions(editorOpts...),
	}
	if b.Locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(b.Locker))
	}
	manager := session.NewManager(b.Store, managerOpts...)

	r := chi.NewRouter()
	if cfg.Server.Metrics {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	r.Mount("/", httpAdapter.NewHandler(manager, httpAdapter.WithLogger(logger)))
	return r
}

func runServe(cfg *config.Config) error {
	b, err := cli.NewBackend(cfg.Store)
	if err != nil {
		return err
	}
	defer b.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: newServeHandler(cfg, b, reg),
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		fmt.Printf("Starting usdrename server on %s (%s store)\n", srv.Addr, cfg.Store.Backend)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err

	case sig := <-shutdown:
		fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
			if err := srv.Close(); err != nil {
				fmt.Printf("Error killing server: %v\n", err)
			}
		}
		fmt.Println("usdrename server stopped gracefully")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
