package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ai-DevOmer/stager/internal/manifest"
)

// Wall-clock limit for a stage that declares no timeout. Dependency
// resolution and compilation are unbounded work; a hung registry or a
// wedged compiler must not hold the pipeline forever.
const defaultStageTimeout = 30 * time.Minute

// Runs all stages with dependency ordering and bounded per-stage time.
//
// Each stage runs on its own goroutine and blocks until every stage in its
// needs list has completed successfully. Stages with no dependency between
// them therefore run concurrently, and a stage that consumes artifacts
// starts strictly after its producers finish. The first failure cancels
// the group context: stages still waiting on a dependency return
// immediately, and nothing downstream of the failed stage ever starts.
// Completion channels are closed only on success, so a cancelled waiter
// can never mistake a failed producer for a finished one.
func runStages(ctx context.Context, stages []manifest.Stage, defaultTimeout time.Duration, run func(context.Context, *manifest.Stage) error) error {
	completed := make(map[string]chan struct{}, len(stages))
	for i := range stages {
		completed[stages[i].Name] = make(chan struct{})
	}

	g, ctx := errgroup.WithContext(ctx)

	for i := range stages {
		stage := &stages[i]
		g.Go(func() error {
			for _, need := range stage.Needs {
				select {
				case <-completed[need]:
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			timeout := time.Duration(stage.Timeout)
			if timeout <= 0 {
				timeout = defaultTimeout
			}
			stageCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			if err := run(stageCtx, stage); err != nil {
				if stageCtx.Err() == context.DeadlineExceeded {
					return fmt.Errorf("stage %q timed out after %s: %w", stage.Name, timeout, err)
				}
				return fmt.Errorf("stage %q: %w", stage.Name, err)
			}

			close(completed[stage.Name])
			return nil
		})
	}

	return g.Wait()
}

// Converts a platform string to a filesystem- and ID-safe slug.
//
// Replaces slashes with dashes (e.g., "linux/amd64" becomes "linux-amd64").
func platformSlug(platform string) string {
	return strings.ReplaceAll(platform, "/", "-")
}
