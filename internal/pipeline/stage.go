package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/ai-DevOmer/stager/internal/manifest"
	"github.com/ai-DevOmer/stager/internal/runtime"
)

// Builds a single stage of the pipeline.
//
// Starts a container from the stage's base image, executes the steps, runs
// the selected build target, and verifies and publishes the declared
// artifacts. The export stage additionally writes the runtime image.
func (e *executor) buildStage(ctx context.Context, stage *manifest.Stage) error {
	slog.Info("building stage", "stage", stage.Name, "platform", e.platform)

	base := stage.From
	if !filepath.IsAbs(base) {
		base = filepath.Join(e.root, base)
	}

	ctr, err := e.start(ctx, base, e.containerID(stage.Name), e.platform)
	if err != nil {
		return err
	}
	e.track(ctr)

	state := newStepState()
	if err := e.executeSteps(ctx, ctr, stage.Steps, state); err != nil {
		return err
	}

	if err := e.buildTarget(ctx, ctr, stage, state); err != nil {
		return err
	}

	if err := e.publishArtifacts(ctx, ctr, stage); err != nil {
		return err
	}

	if len(stage.Entrypoint) > 0 {
		return e.exportStage(ctx, ctr, stage)
	}
	return nil
}

// Runs the stage's selected build target command, if the stage declares a
// target set.
//
// The command runs with the step state accumulated by the stage's steps,
// so a workdir or env modifier set earlier applies to the compilation too.
// A non-zero exit is a compilation failure and aborts the stage.
func (e *executor) buildTarget(ctx context.Context, ctr container, stage *manifest.Stage, state *stepState) error {
	command, ok := stage.TargetCommand()
	if !ok {
		return nil
	}

	slog.Info("building target", "stage", stage.Name, "target", stage.Target)

	result, err := ctr.Exec(ctx, state.shell, command, state.environ(), state.workdir)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("%w: target %q exit code %d: %s", ErrCommandFailed, stage.Target, result.ExitCode, result.Stderr)
	}
	return nil
}

// Verifies and publishes the stage's declared artifacts.
//
// Every declared path must exist in the stage container; a stage whose
// build silently produced nothing fails here rather than when a later
// stage tries to copy the missing output.
func (e *executor) publishArtifacts(ctx context.Context, ctr container, stage *manifest.Stage) error {
	for _, a := range stage.Artifacts {
		exists, err := ctr.PathExists(ctx, a.Path)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: stage %q did not produce %q at %s", ErrArtifact, stage.Name, a.Name, a.Path)
		}

		if err := e.reg.publish(stage.Name, a.Name, a.Path, ctr); err != nil {
			return err
		}
		slog.Debug("artifact published", "stage", stage.Name, "artifact", a.Name, "path", a.Path)
	}
	return nil
}

// Exports the stage as the runtime image.
//
// The entrypoint is checked against the assembled filesystem first: it
// must name an executable file that the stage's copy steps actually put
// there. An entrypoint pointing at nothing is a build error surfaced now,
// not a container that dies on first start.
func (e *executor) exportStage(ctx context.Context, ctr container, stage *manifest.Stage) error {
	executable, err := ctr.PathExecutable(ctx, stage.Entrypoint[0])
	if err != nil {
		return err
	}
	if !executable {
		return fmt.Errorf("%w: %s is not an executable file in the assembled image", ErrEntrypoint, stage.Entrypoint[0])
	}

	if err := ctr.Stop(ctx); err != nil {
		return err
	}

	return ctr.Export(ctx, e.output, runtime.ImageConfig{
		Entrypoint: stage.Entrypoint,
		Port:       stage.ExposedPort(),
		Env:        exportEnv(stage),
	})
}

// Returns the env defaults written into the exported image config.
//
// The image always carries a PORT default matching its declared port, so
// a container started without explicit configuration binds the documented
// port instead of crashing. A manifest-declared PORT wins.
func exportEnv(stage *manifest.Stage) map[string]string {
	env := make(map[string]string, len(stage.Env)+1)
	for k, v := range stage.Env {
		env[k] = v
	}
	if _, ok := env["PORT"]; !ok {
		env["PORT"] = strconv.Itoa(stage.ExposedPort())
	}
	return env
}
