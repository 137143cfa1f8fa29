package cli

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/ai-DevOmer/stager/internal/manifest"
	"github.com/ai-DevOmer/stager/internal/pipeline"
	"github.com/ai-DevOmer/stager/internal/runtime"
	"github.com/ai-DevOmer/stager/internal/server"
)

// Represents the 'stager run' command.
type RunCmd struct {
	File     string `short:"f" default:"pipeline.yaml" help:"Path to the pipeline manifest." placeholder:"PATH"`
	Output   string `short:"o" default:"out" help:"Directory to write the exported image into." placeholder:"DIR"`
	Root     string `help:"Build context root for host copy sources. Defaults to the manifest directory." placeholder:"DIR"`
	Platform string `help:"Target platform (e.g., linux/amd64). Defaults to the host platform." placeholder:"PLATFORM"`
}

// Executes the run command.
//
// Connects directly to containerd, executes the pipeline, and exports the
// final stage. No daemon is involved.
func (c *RunCmd) Run(ctx context.Context) error {
	pipe, err := manifest.Load(c.File)
	if err != nil {
		return err
	}

	root := c.Root
	if root == "" {
		root = filepath.Dir(c.File)
	}

	address := RootCmd.ContainerdAddress
	if address == "" {
		address = server.DefaultContainerdAddress
	}
	namespace := RootCmd.Namespace
	if namespace == "" {
		namespace = server.DefaultContainerdNamespace
	}

	rt, err := runtime.New(address, namespace)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := pipeline.Run(ctx, rt, pipeline.Options{
		Pipeline: pipe,
		Output:   c.Output,
		Root:     root,
		Platform: c.Platform,
	})
	if err != nil {
		return err
	}

	slog.Info("pipeline complete", "pipeline", pipe.Name, "output", result.Output)
	return nil
}
