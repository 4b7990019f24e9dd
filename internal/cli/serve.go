package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/avada/internal/config"
	"github.com/roach88/avada/internal/server"
	"github.com/roach88/avada/internal/telemetry"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr       string
	SessionTTL time.Duration
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the skill as a JSON webhook",
		Long: `Serve POST /v1/turn and GET /healthz.

Sessions idle for longer than --session-ttl are ended and their profiles
saved. SIGINT or SIGTERM stops the server gracefully and saves every open
session. Spans are exported when AVADA_OTEL_ENDPOINT is set.

Example:
  avada serve --addr :8080 --db /var/lib/avada/avada.db
  AVADA_OTEL_ENDPOINT=http://localhost:4318 avada serve`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default $AVADA_ADDR or localhost:8080)")
	cmd.Flags().DurationVar(&opts.SessionTTL, "session-ttl", 0, "idle time before a session is ended (default $AVADA_SESSION_TTL or 5m)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd, opts.RootOptions, func(c *config.Config) {
		if cmd.Flags().Changed("addr") {
			c.Addr = opts.Addr
		}
		if cmd.Flags().Changed("session-ttl") {
			c.SessionTTL = opts.SessionTTL
		}
	})
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(cmd, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	shutdown, err := telemetry.Setup(ctx, telemetry.TracingConfig{
		Enabled:  cfg.OTelEnabled,
		Endpoint: cfg.OTelEndpoint,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up tracing", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			rt.logger.Error("tracing shutdown", "error", err)
		}
	}()

	srv, err := server.New(server.Options{
		Skill:      rt.skill,
		SessionTTL: cfg.SessionTTL,
		Logger:     rt.logger,
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	rt.logger.Info("server starting", "addr", ln.Addr().String(), "db", cfg.DB, "session_ttl", cfg.SessionTTL, "tracing", cfg.TracingEnabled())
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", ln.Addr())

	if err := srv.Serve(ctx, ln); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}

	rt.logger.Info("server stopped gracefully")
	return nil
}
