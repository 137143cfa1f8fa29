package pipeline

import (
	"errors"
	"testing"
)

func TestRegistryPublishAndResolve(t *testing.T) {
	reg := newRegistry()

	if err := reg.publish("frontend", "assets", "/src/dist", nil); err != nil {
		t.Fatalf("publish: %v", err)
	}

	art, err := reg.resolve("frontend", "assets")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if art.path != "/src/dist" {
		t.Fatalf("path = %q, want /src/dist", art.path)
	}
}

func TestRegistryResolveUnknownStage(t *testing.T) {
	reg := newRegistry()

	_, err := reg.resolve("backend", "server")
	if !errors.Is(err, ErrArtifact) {
		t.Fatalf("error = %v, want ErrArtifact", err)
	}
}

func TestRegistryResolveUnknownArtifact(t *testing.T) {
	reg := newRegistry()
	if err := reg.publish("backend", "server", "/src/target/release/server", nil); err != nil {
		t.Fatalf("publish: %v", err)
	}

	_, err := reg.resolve("backend", "assets")
	if !errors.Is(err, ErrArtifact) {
		t.Fatalf("error = %v, want ErrArtifact", err)
	}
}

func TestRegistryDuplicatePublish(t *testing.T) {
	reg := newRegistry()
	if err := reg.publish("frontend", "assets", "/src/dist", nil); err != nil {
		t.Fatalf("publish: %v", err)
	}

	err := reg.publish("frontend", "assets", "/src/out", nil)
	if !errors.Is(err, ErrPipeline) {
		t.Fatalf("duplicate publish error = %v, want ErrPipeline", err)
	}
}
