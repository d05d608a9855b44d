// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jeranaias/evo-tui/internal/logging"
	"github.com/jeranaias/evo-tui/internal/server"
)

const shutdownGrace = 5 * time.Second

func newSandboxCommand() *cobra.Command {
	var (
		port       int
		limit      int
		replyDelay time.Duration
	)
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run a local demo backend",
		Long: `Run an in-memory Evo Associate backend on localhost for demos and
development. Replies echo the question.

Demo accounts (password "password"):
  ana@acme.test     EMPLOYEE
  admin@acme.test   TENANT_ADMIN
  root@evo.test     SUPER_ADMIN`,
		Example: `  evo sandbox --port 8787 &
  evo --base-url http://127.0.0.1:8787 login --email ana@acme.test`,
		Args:              cobra.NoArgs,
		PersistentPreRunE: noApp,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			closer, err := logging.Setup(logging.Options{Level: level, Output: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer closer.Close()

			srv := server.NewServer(port).
				WithDemoData().
				WithMessageLimit(limit).
				WithReplyDelay(replyDelay)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()
			fmt.Fprintf(cmd.OutOrStdout(), "Sandbox listening on http://127.0.0.1:%d (Ctrl+C to stop)\n", srv.Port())

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("sandbox shutdown")
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", server.DefaultPort, "Port to listen on")
	cmd.Flags().IntVar(&limit, "limit", server.DefaultMessageLimit, "Monthly message limit per tenant")
	cmd.Flags().DurationVar(&replyDelay, "reply-delay", 0, "Delay before each reply")
	return cmd
}
