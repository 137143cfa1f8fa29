package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/ai-DevOmer/stager/internal/manifest"
	"github.com/ai-DevOmer/stager/internal/paths"
	"github.com/ai-DevOmer/stager/internal/runtime"
)

// The container operations stage execution depends on. Satisfied by
// [runtime.Container].
type container interface {
	Exec(ctx context.Context, shell, command string, env []string, workdir string) (*runtime.ExecResult, error)
	MkdirAll(ctx context.Context, path string) error
	CopyTo(ctx context.Context, r io.Reader, destDir string) error
	CopyFrom(ctx context.Context, w io.Writer, path string) error
	PathExists(ctx context.Context, path string) (bool, error)
	PathExecutable(ctx context.Context, path string) (bool, error)
	Stop(ctx context.Context) error
	Export(ctx context.Context, output string, cfg runtime.ImageConfig) error
	Destroy(ctx context.Context)
}

// Starts a stage container from a base image archive.
type startFunc func(ctx context.Context, path, id, platform string) (container, error)

// Controls pipeline execution.
type Options struct {
	Pipeline *manifest.Pipeline // Pipeline to execute.
	Output   string             // Directory for the exported image.
	Root     string             // Build context root, for resolving host copy sources and base image paths.
	Platform string             // Target platform (e.g., "linux/amd64"). Defaults to the host.
}

// Returned after successful pipeline execution.
type Result struct {
	Output string // Directory containing the exported image.
}

// Executes a pipeline against the container runtime.
//
// Independent stages run concurrently; the export stage joins on its
// producers and is written to the output directory as an OCI archive. Any
// stage failure aborts the whole pipeline and no image is produced.
func Run(ctx context.Context, rt *runtime.Runtime, opts Options) (*Result, error) {
	if err := opts.Pipeline.Validate(); err != nil {
		return nil, err
	}

	if opts.Platform == "" {
		opts.Platform = runtime.DefaultPlatform()
	}

	slog.Info("executing pipeline",
		"pipeline", opts.Pipeline.Name,
		"output", opts.Output,
		"stages", len(opts.Pipeline.Stages),
		"platform", opts.Platform,
	)

	if err := os.MkdirAll(opts.Output, paths.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}

	return newExecutor(rt, opts).run(ctx)
}

// Holds shared state for executing all stages of a pipeline.
type executor struct {
	start    startFunc          // Starts stage containers from base image archives.
	pipe     *manifest.Pipeline // Validated pipeline under execution.
	output   string             // Output directory for the exported image.
	root     string             // Build context root.
	platform string             // Target platform.
	reg      *registry          // Published artifacts, keyed by stage name.

	mu         sync.Mutex  // Guards containers; stages complete concurrently.
	containers []container // All stage containers, destroyed after the run.
}

// Creates a new [executor] from the given options.
func newExecutor(rt *runtime.Runtime, opts Options) *executor {
	return &executor{
		start: func(ctx context.Context, path, id, platform string) (container, error) {
			return rt.StartContainer(ctx, path, id, platform)
		},
		pipe:     opts.Pipeline,
		output:   opts.Output,
		root:     opts.Root,
		platform: opts.Platform,
		reg:      newRegistry(),
	}
}

// Runs the pipeline end-to-end.
//
// All stage containers are destroyed when the run completes, whether it
// succeeded or not; only the exported archive survives.
func (e *executor) run(ctx context.Context) (*Result, error) {
	defer e.destroyContainers(ctx)

	err := runStages(ctx, e.pipe.Stages, defaultStageTimeout, e.buildStage)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPipeline, err)
	}

	return &Result{Output: e.output}, nil
}

// Destroys all stage containers.
//
// Destruction uses a fresh context: the run context may already be
// cancelled when a stage fails, and cleanup must still happen.
func (e *executor) destroyContainers(ctx context.Context) {
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	e.mu.Lock()
	containers := e.containers
	e.containers = nil
	e.mu.Unlock()

	for _, ctr := range containers {
		ctr.Destroy(ctx)
	}
}

// Records a stage container for cleanup.
func (e *executor) track(ctr container) {
	e.mu.Lock()
	e.containers = append(e.containers, ctr)
	e.mu.Unlock()
}

// Returns a unique container ID for a stage, scoped to this pipeline and
// platform.
func (e *executor) containerID(stage string) string {
	return fmt.Sprintf("%s-%s-stage-%s", e.pipe.Name, platformSlug(e.platform), stage)
}
