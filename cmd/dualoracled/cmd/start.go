package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/paw-chain/dualoracle/x/dualoracle/keeper"
)

const shutdownTimeout = 5 * time.Second

// StartCmd runs the update loop until interrupted.
func StartCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run update cycles for every enabled feed on a fixed interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			n, err := openNode(cfg, logger, keeper.WithMetrics(keeper.NewMetrics()))
			if err != nil {
				return err
			}
			defer n.Close()

			if err := n.ensureGenesis(); err != nil {
				return err
			}

			pairs, err := streamPairs(n.context(time.Now()), n.keeper)
			if err != nil {
				return fmt.Errorf("failed to resolve stream pairs: %w", err)
			}
			set, err := buildSources(cfg, pairs, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("starting dual oracle",
				"home", cfg.Home,
				"version", n.Version(),
				"poll_interval", cfg.PollInterval.String(),
				"stream_pairs", len(pairs),
			)
			return runDaemon(ctx, cfg, n, set)
		},
	}
	return cmd
}

func runDaemon(ctx context.Context, cfg Config, n *node, set sourceSet) error {
	tracker := newRoundTracker(3 * cfg.PollInterval)
	server := newTelemetryServer(cfg.MetricsAddr, tracker)

	g, gctx := errgroup.WithContext(ctx)

	if set.stream != nil {
		g.Go(func() error {
			return set.stream.Run(gctx)
		})
	}

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("telemetry server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return roundLoop(gctx, cfg.PollInterval, n, set, tracker)
	})

	return g.Wait()
}

// roundLoop runs a round immediately and then once per interval. A broken
// invariant stops the daemon; round errors caused by cancellation do not.
func roundLoop(ctx context.Context, interval time.Duration, n *node, set sourceSet, tracker *roundTracker) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		feeds, err := n.runRound(ctx, set.Handles())
		tracker.record(time.Now(), feeds, err)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			n.logger.Error("round failed", "error", err)
			return err
		}

		select {
		case <-ctx.Done():
			n.logger.Info("stopping dual oracle", "version", n.Version())
			return nil
		case <-ticker.C:
		}
	}
}
