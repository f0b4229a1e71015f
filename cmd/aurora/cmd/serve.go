package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aurorahq/aurora/internal/server"
	"github.com/aurorahq/aurora/pkg/version"
)

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	var reindex bool
	var skipBuild bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server. On startup the corpus is fetched (or
restored from backup), both indexes are built, and the server begins
answering questions on POST /ask.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), reindex, skipBuild)
		},
	}

	cmd.Flags().BoolVar(&reindex, "reindex", false,
		"Force a dense index rebuild on startup")
	cmd.Flags().BoolVar(&skipBuild, "skip-build", false,
		"Skip the startup index build (serve whatever is on disk)")

	return cmd
}

func runServe(ctx context.Context, reindex, skipBuild bool) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	slog.Info("aurora starting",
		slog.String("version", version.Version),
		slog.String("data_dir", a.cfg.Index.DataDir))

	if !skipBuild {
		if err := a.builder.Build(ctx, reindex); err != nil {
			return err
		}
		a.metrics.IndexedMessages.Set(float64(a.dense.Count()))
	}

	srv := server.New(server.Config{
		Host: a.cfg.Server.Host,
		Port: a.cfg.Server.Port,
	}, a.engine, a.synthesizer, a.builder, a.dense, a.lex, a.metrics, a.registry)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("signal received, shutting down", slog.String("signal", sig.String()))
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Flush the dense graph so a restart warm-starts from disk.
	if err := a.dense.Save(); err != nil {
		slog.Warn("failed to persist dense index on shutdown",
			slog.String("error", err.Error()))
	}

	slog.Info("aurora stopped")
	return nil
}
