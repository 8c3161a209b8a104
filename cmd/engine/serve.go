// SPDX-License-Identifier: Apache-2.0
package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coffer-backup/coffer/pkg/config"
	"github.com/coffer-backup/coffer/pkg/engine"
)

func newServeCmd() *cobra.Command {
	var (
		socketPath     string
		version        string
		provisionDelay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a stub engine",
		Long: `Run a stub cofferd engine on the control socket.

The stub speaks the full front-end protocol against an in-memory repository
store. It exists for development and integration testing; it does not store
any backup data.

The --provision-delay flag simulates an engine whose connect and create
calls complete in the background: status keeps reporting disconnected until
the delay has elapsed.`,
		Example: `  # Serve on the configured socket
  coffer engine serve

  # Simulate slow background provisioning
  coffer engine serve --provision-delay 3s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Create logger that writes to stderr
			logger := log.New(os.Stderr, "[cofferd-stub] ", log.LstdFlags)

			if socketPath == "" {
				socketPath = config.GetEngineSocket()
			}

			server := engine.NewServer(engine.ServerOptions{
				SocketPath:     socketPath,
				Version:        version,
				ProvisionDelay: provisionDelay,
				Logger:         logger,
			})

			// Create context that cancels on SIGINT/SIGTERM
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			go func() {
				<-sigChan
				logger.Println("received shutdown signal")
				cancel()
			}()

			logger.Printf("starting stub engine on %s", socketPath)
			if err := server.Listen(ctx); err != nil && err != context.Canceled {
				return fmt.Errorf("server error: %w", err)
			}

			logger.Println("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&socketPath, "socket", "", "Socket path (default from config)")
	cmd.Flags().StringVar(&version, "engine-version", "", "Version to report in the handshake")
	cmd.Flags().DurationVar(&provisionDelay, "provision-delay", 0, "Delay before a new connection reports ready")

	return cmd
}
