package cli

import (
	"context"
	"log/slog"

	"github.com/voxelhq/voxd/internal/server"
)

// Represents the 'voxd start' command.
type StartCmd struct{}

// Executes the start command.
//
// Loads the config file, starts the RPC server on a Unix domain socket, and
// blocks until the context is cancelled (e.g. via SIGINT or SIGTERM).
func (c *StartCmd) Run(ctx context.Context) error {
	cfg, err := server.LoadConfig(RootCmd.Config)
	if err != nil {
		return err
	}
	if RootCmd.Socket != "" {
		cfg.SocketPath = RootCmd.Socket
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	if err := srv.Start(); err != nil {
		return err
	}

	slog.Info("voxd is running")

	<-ctx.Done()

	slog.Info("shutting down")
	return srv.Stop()
}
