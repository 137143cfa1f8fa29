package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ai-DevOmer/stager/internal"
)

// Represents the root command for the stager CLI.
var RootCmd struct {
	Quiet             bool   `short:"q" help:"Suppress informational output."`
	Verbose           bool   `short:"v" help:"Enable verbose output."`
	Debug             bool   `short:"d" help:"Enable debug output."`
	Socket            string `short:"s" help:"Override the default Unix socket path." placeholder:"PATH"`
	ContainerdAddress string `help:"Containerd socket address." placeholder:"PATH"`
	Namespace         string `help:"Containerd namespace for images and containers." placeholder:"NAME"`

	Run     RunCmd     `cmd:"" help:"Execute a pipeline manifest and export the image."`
	Daemon  DaemonCmd  `cmd:"" help:"Start the build daemon."`
	Status  StatusCmd  `cmd:"" help:"Show daemon status."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("The stager build tool.\n\nExecutes staged pipeline manifests against containerd and exports the final stage as an OCI image."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Reconfigures the global logger based on CLI flags.
func configureLogger() {
	debug := RootCmd.Debug || internal.IsDebug()
	quiet := RootCmd.Quiet || internal.IsQuiet()
	verbose := RootCmd.Verbose || internal.IsVerbose()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	} else if quiet {
		level = slog.LevelWarn
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: verbose,
	})
	slog.SetDefault(slog.New(handler).WithGroup(internal.Name))
}
