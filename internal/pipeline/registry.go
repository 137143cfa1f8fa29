package pipeline

import (
	"fmt"
	"sync"
)

// A published build output: a verified path inside a completed stage's
// container.
type artifact struct {
	container container // Stage container holding the artifact.
	path      string    // Absolute path inside the container.
}

// Tracks artifacts published by completed stages, keyed by stage name.
//
// The registry is the only channel through which build outputs cross stage
// boundaries. Publication happens once, after a stage's steps and target
// have finished and each declared path has been verified to exist;
// consumers resolve by stage and artifact name. Stages never share a
// working directory or any other mutable state.
type registry struct {
	mu      sync.RWMutex
	entries map[string]map[string]artifact
}

// Creates an empty registry.
func newRegistry() *registry {
	return &registry{entries: make(map[string]map[string]artifact)}
}

// Records an artifact under stage/name.
//
// Publishing the same name twice for one stage is a programming error in
// the caller, not a manifest error, and is rejected.
func (r *registry) publish(stage, name, path string, ctr container) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byName, ok := r.entries[stage]
	if !ok {
		byName = make(map[string]artifact)
		r.entries[stage] = byName
	}
	if _, exists := byName[name]; exists {
		return fmt.Errorf("%w: artifact %s:%s published twice", ErrPipeline, stage, name)
	}
	byName[name] = artifact{container: ctr, path: path}
	return nil
}

// Looks up a published artifact.
//
// Resolution failure is fatal to the build: it means a consumer ran before
// its producer published, or references an output the producer never
// actually made.
func (r *registry) resolve(stage, name string) (artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byName, ok := r.entries[stage]
	if !ok {
		return artifact{}, fmt.Errorf("%w: stage %q published no artifacts", ErrArtifact, stage)
	}
	a, ok := byName[name]
	if !ok {
		return artifact{}, fmt.Errorf("%w: stage %q has no artifact %q", ErrArtifact, stage, name)
	}
	return a, nil
}
