package cli

import (
	"context"
	"log/slog"

	"github.com/ai-DevOmer/stager/internal/server"
)

// Represents the 'stager daemon' command.
type DaemonCmd struct{}

// Executes the daemon command.
//
// Starts the server on a Unix domain socket and blocks until the context
// is cancelled (e.g. via SIGINT or SIGTERM) or the server stops on its
// own, as it does after a protocol shutdown command.
func (c *DaemonCmd) Run(ctx context.Context) error {
	srv, err := server.New(server.Config{
		SocketPath:          RootCmd.Socket,
		ContainerdAddress:   RootCmd.ContainerdAddress,
		ContainerdNamespace: RootCmd.Namespace,
	})
	if err != nil {
		return err
	}

	if err := srv.Start(); err != nil {
		return err
	}

	slog.Info("stager daemon is running")

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case <-srv.Done():
		slog.Info("daemon stopped")
	}

	return srv.Stop()
}
