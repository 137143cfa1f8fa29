package manifest

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Port exposed by the runtime image when the export stage declares none.
const DefaultPort = 8080

// A complete build pipeline.
type Pipeline struct {
	Name   string  `yaml:"pipeline"` // Pipeline name, used as a prefix for container IDs.
	Stages []Stage `yaml:"stages"`   // Stages in declaration order.
}

// An isolated build environment producing named artifacts.
type Stage struct {
	Name       string            `yaml:"name"`       // Unique stage name.
	From       string            `yaml:"from"`       // Path to the OCI archive used as the base image.
	Needs      []string          `yaml:"needs"`      // Stages that must complete before this one starts.
	Timeout    Duration          `yaml:"timeout"`    // Wall-clock limit for the stage. Zero uses the pipeline default.
	Targets    map[string]string `yaml:"targets"`    // Named build target commands (e.g. desktop-app, server-api).
	Target     string            `yaml:"target"`     // Selected build target. Required when Targets is non-empty.
	Steps      []Step            `yaml:"steps"`      // Steps executed in order inside the stage container.
	Artifacts  []Artifact        `yaml:"artifacts"`  // Artifacts published to the registry when the stage completes.
	Entrypoint []string          `yaml:"entrypoint"` // OCI entrypoint. Marks the stage as the exported runtime image.
	Port       int               `yaml:"port"`       // Port exposed by the exported image. Zero uses [DefaultPort].
	Env        map[string]string `yaml:"env"`        // Environment defaults written into the exported image config.
}

// A single step within a stage.
//
// A step is either an operation (run or copy), a group of nested steps, or
// a standalone modifier (shell, workdir, env) that persists for the rest of
// the stage. Modifiers on an operation step apply to that operation only.
type Step struct {
	Run     string            `yaml:"run"`     // Shell command to execute.
	Copy    string            `yaml:"copy"`    // Copy spec: "src dest" or "stage:artifact dest".
	Shell   string            `yaml:"shell"`   // Shell used for run steps.
	Workdir string            `yaml:"workdir"` // Working directory for subsequent operations.
	Env     map[string]string `yaml:"env"`     // Environment variables.
	Steps   []Step            `yaml:"steps"`   // Nested steps; group-level modifiers apply to all of them.
}

// A named build output published to the artifact registry.
type Artifact struct {
	Name string `yaml:"name"` // Registry name, unique within the stage.
	Path string `yaml:"path"` // Absolute path inside the stage container.
}

// Wraps [time.Duration] with YAML decoding from strings like "20m".
type Duration time.Duration

// Decodes a duration from its YAML string form.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrManifest, err)
	}
	if parsed < 0 {
		return fmt.Errorf("%w: negative timeout %q", ErrManifest, s)
	}
	*d = Duration(parsed)
	return nil
}

// Reads and parses a pipeline manifest from a file.
//
// The manifest is validated before being returned; a manifest that parses
// but fails validation is rejected, so callers never see a structurally
// invalid pipeline.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifest, err)
	}
	return Parse(data)
}

// Parses and validates a pipeline manifest from YAML.
func Parse(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifest, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Returns the stage that is exported as the runtime image.
//
// Validation guarantees exactly one stage declares an entrypoint, so this
// never fails on a validated pipeline.
func (p *Pipeline) ExportStage() *Stage {
	for i := range p.Stages {
		if len(p.Stages[i].Entrypoint) > 0 {
			return &p.Stages[i]
		}
	}
	return nil
}

// Looks up a stage by name.
func (p *Pipeline) Stage(name string) (*Stage, bool) {
	for i := range p.Stages {
		if p.Stages[i].Name == name {
			return &p.Stages[i], true
		}
	}
	return nil, false
}

// Returns the command for the stage's selected build target.
func (s *Stage) TargetCommand() (string, bool) {
	if s.Target == "" {
		return "", false
	}
	cmd, ok := s.Targets[s.Target]
	return cmd, ok
}

// Returns the port declared by the stage, falling back to [DefaultPort].
func (s *Stage) ExposedPort() int {
	if s.Port != 0 {
		return s.Port
	}
	return DefaultPort
}

// Parses a copy spec into source and destination tokens.
//
// The spec must contain exactly two whitespace-separated tokens.
func ParseCopy(spec string) (src, dest string, err error) {
	parts := strings.Fields(spec)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: expected source and destination, got %q", ErrManifest, spec)
	}
	return parts[0], parts[1], nil
}

// Parses a cross-stage copy source of the form "stage:artifact".
//
// Returns the stage and artifact names and true when the source matches the
// cross-stage format. A colon inside a path (e.g. "/foo:bar") does not mark
// a cross-stage source.
func ParseArtifactRef(src string) (stage, artifact string, ok bool) {
	i := strings.IndexByte(src, ':')
	if i < 1 {
		return "", "", false
	}
	if strings.ContainsRune(src[:i], '/') {
		return "", "", false
	}
	return src[:i], src[i+1:], true
}
