package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/ai-DevOmer/stager/internal/manifest"
	"github.com/ai-DevOmer/stager/internal/runtime"
)

// In-memory stand-in for a stage container. Paths in files map to their
// executable bit; dirs holds directories, which are never executable
// files.
type fakeContainer struct {
	files map[string]bool
	dirs  map[string]bool

	commands    []string
	failCommand string

	copyToErr error
	copyFrom  func(ctx context.Context, w io.Writer, path string) error

	stopped   bool
	exported  bool
	exportCfg runtime.ImageConfig
	destroyed bool
}

func (f *fakeContainer) Exec(ctx context.Context, shell, command string, env []string, workdir string) (*runtime.ExecResult, error) {
	f.commands = append(f.commands, command)
	if f.failCommand != "" && strings.Contains(command, f.failCommand) {
		return &runtime.ExecResult{ExitCode: 1, Stderr: "command failed"}, nil
	}
	return &runtime.ExecResult{}, nil
}

func (f *fakeContainer) MkdirAll(ctx context.Context, path string) error {
	if f.dirs == nil {
		f.dirs = make(map[string]bool)
	}
	f.dirs[path] = true
	return nil
}

func (f *fakeContainer) CopyTo(ctx context.Context, r io.Reader, destDir string) error {
	if f.copyToErr != nil {
		return f.copyToErr
	}
	_, err := io.Copy(io.Discard, r)
	return err
}

func (f *fakeContainer) CopyFrom(ctx context.Context, w io.Writer, path string) error {
	if f.copyFrom != nil {
		return f.copyFrom(ctx, w, path)
	}
	return nil
}

func (f *fakeContainer) PathExists(ctx context.Context, path string) (bool, error) {
	_, isFile := f.files[path]
	return isFile || f.dirs[path], nil
}

func (f *fakeContainer) PathExecutable(ctx context.Context, path string) (bool, error) {
	executable, isFile := f.files[path]
	return isFile && executable, nil
}

func (f *fakeContainer) Stop(ctx context.Context) error {
	f.stopped = true
	return nil
}

func (f *fakeContainer) Export(ctx context.Context, output string, cfg runtime.ImageConfig) error {
	f.exported = true
	f.exportCfg = cfg
	return nil
}

func (f *fakeContainer) Destroy(ctx context.Context) {
	f.destroyed = true
}

// Creates an executor whose start function always returns the given fake.
func newFakeExecutor(fake *fakeContainer) *executor {
	return &executor{
		start: func(ctx context.Context, path, id, platform string) (container, error) {
			return fake, nil
		},
		pipe:     &manifest.Pipeline{Name: "p"},
		output:   "out",
		platform: "linux/amd64",
		reg:      newRegistry(),
	}
}

// An entrypoint pointing at a directory must fail the pre-export check.
// A misdirected copy can extract an asset tree at the binary's path; the
// resulting image would die on first start, so it must never be exported.
func TestBuildStageRejectsDirectoryEntrypoint(t *testing.T) {
	fake := &fakeContainer{dirs: map[string]bool{"/srv/app/server": true}}
	e := newFakeExecutor(fake)

	err := e.buildStage(context.Background(), &manifest.Stage{
		Name:       "runtime",
		From:       "base.tar",
		Entrypoint: []string{"/srv/app/server"},
	})

	if !errors.Is(err, ErrEntrypoint) {
		t.Fatalf("error = %v, want ErrEntrypoint", err)
	}
	if fake.exported {
		t.Fatal("image was exported despite a non-file entrypoint")
	}
}

func TestBuildStageRejectsMissingEntrypoint(t *testing.T) {
	fake := &fakeContainer{}
	e := newFakeExecutor(fake)

	err := e.buildStage(context.Background(), &manifest.Stage{
		Name:       "runtime",
		From:       "base.tar",
		Entrypoint: []string{"/srv/app/server"},
	})

	if !errors.Is(err, ErrEntrypoint) {
		t.Fatalf("error = %v, want ErrEntrypoint", err)
	}
	if fake.exported {
		t.Fatal("image was exported despite a missing entrypoint")
	}
}

func TestBuildStageExportsImage(t *testing.T) {
	fake := &fakeContainer{files: map[string]bool{"/srv/app/server": true}}
	e := newFakeExecutor(fake)

	err := e.buildStage(context.Background(), &manifest.Stage{
		Name:       "runtime",
		From:       "base.tar",
		Entrypoint: []string{"/srv/app/server"},
		Env:        map[string]string{"RUST_LOG": "info"},
	})
	if err != nil {
		t.Fatalf("buildStage: %v", err)
	}

	if !fake.stopped {
		t.Fatal("container was not stopped before export")
	}
	if !fake.exported {
		t.Fatal("image was not exported")
	}

	cfg := fake.exportCfg
	if len(cfg.Entrypoint) != 1 || cfg.Entrypoint[0] != "/srv/app/server" {
		t.Fatalf("entrypoint = %v", cfg.Entrypoint)
	}
	if cfg.Port != manifest.DefaultPort {
		t.Fatalf("port = %d, want %d", cfg.Port, manifest.DefaultPort)
	}
	if cfg.Env["PORT"] != "8080" {
		t.Fatalf("env PORT = %q, want 8080", cfg.Env["PORT"])
	}
	if cfg.Env["RUST_LOG"] != "info" {
		t.Fatalf("env RUST_LOG = %q, want info", cfg.Env["RUST_LOG"])
	}
}

func TestBuildStagePublishesArtifacts(t *testing.T) {
	fake := &fakeContainer{dirs: map[string]bool{"/src/dist": true}}
	e := newFakeExecutor(fake)

	err := e.buildStage(context.Background(), &manifest.Stage{
		Name:      "frontend",
		From:      "base.tar",
		Artifacts: []manifest.Artifact{{Name: "assets", Path: "/src/dist"}},
	})
	if err != nil {
		t.Fatalf("buildStage: %v", err)
	}

	art, err := e.reg.resolve("frontend", "assets")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if art.path != "/src/dist" {
		t.Fatalf("path = %q, want /src/dist", art.path)
	}
}

func TestBuildStageMissingArtifact(t *testing.T) {
	fake := &fakeContainer{}
	e := newFakeExecutor(fake)

	err := e.buildStage(context.Background(), &manifest.Stage{
		Name:      "frontend",
		From:      "base.tar",
		Artifacts: []manifest.Artifact{{Name: "assets", Path: "/src/dist"}},
	})

	if !errors.Is(err, ErrArtifact) {
		t.Fatalf("error = %v, want ErrArtifact", err)
	}
	if _, err := e.reg.resolve("frontend", "assets"); err == nil {
		t.Fatal("missing artifact was published")
	}
}

func TestBuildStageTargetFailure(t *testing.T) {
	fake := &fakeContainer{failCommand: "cargo build"}
	e := newFakeExecutor(fake)

	err := e.buildStage(context.Background(), &manifest.Stage{
		Name:    "backend",
		From:    "base.tar",
		Targets: map[string]string{"server-api": "cargo build --release"},
		Target:  "server-api",
	})

	if !errors.Is(err, ErrCommandFailed) {
		t.Fatalf("error = %v, want ErrCommandFailed", err)
	}
}

func TestExportEnvKeepsManifestPort(t *testing.T) {
	env := exportEnv(&manifest.Stage{
		Port: 9000,
		Env:  map[string]string{"PORT": "3000"},
	})
	if env["PORT"] != "3000" {
		t.Fatalf("env PORT = %q, want manifest value 3000", env["PORT"])
	}

	env = exportEnv(&manifest.Stage{Port: 9000})
	if env["PORT"] != "9000" {
		t.Fatalf("env PORT = %q, want 9000", env["PORT"])
	}
}
