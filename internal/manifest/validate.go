package manifest

import (
	"fmt"
	"path"
	"slices"
)

// Checks the pipeline for structural errors.
//
// Validation runs before any container starts, so a manifest that selects
// the wrong build target, copies from an undeclared artifact, or wires
// stages into a cycle is rejected without side effects.
func (p *Pipeline) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: pipeline name is required", ErrManifest)
	}
	if len(p.Stages) == 0 {
		return fmt.Errorf("%w: at least one stage is required", ErrManifest)
	}

	seen := make(map[string]bool, len(p.Stages))
	for i := range p.Stages {
		s := &p.Stages[i]
		if s.Name == "" {
			return fmt.Errorf("%w: stage %d has no name", ErrManifest, i+1)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate stage %q", ErrManifest, s.Name)
		}
		seen[s.Name] = true
	}

	for i := range p.Stages {
		if err := p.validateStage(&p.Stages[i]); err != nil {
			return err
		}
	}

	if err := p.validateExportStage(); err != nil {
		return err
	}

	return p.validateAcyclic()
}

// Checks a single stage's declarations.
func (p *Pipeline) validateStage(s *Stage) error {
	if s.From == "" {
		return fmt.Errorf("%w: stage %q has no base image", ErrManifest, s.Name)
	}

	for _, need := range s.Needs {
		if need == s.Name {
			return fmt.Errorf("%w: stage %q depends on itself", ErrManifest, s.Name)
		}
		if _, ok := p.Stage(need); !ok {
			return fmt.Errorf("%w: stage %q needs unknown stage %q", ErrManifest, s.Name, need)
		}
	}

	if err := validateTargets(s); err != nil {
		return err
	}
	if err := validateArtifacts(s); err != nil {
		return err
	}
	return p.validateSteps(s, s.Steps)
}

// Checks build target selection.
//
// A stage that declares a target set must select one by name. Selection
// without a declared set, or a selection naming an unknown target, is an
// error; there is no default target.
func validateTargets(s *Stage) error {
	if len(s.Targets) == 0 {
		if s.Target != "" {
			return fmt.Errorf("%w: stage %q selects target %q but declares no targets", ErrTarget, s.Name, s.Target)
		}
		return nil
	}
	if s.Target == "" {
		return fmt.Errorf("%w: stage %q declares targets but selects none", ErrTarget, s.Name)
	}
	if _, ok := s.Targets[s.Target]; !ok {
		return fmt.Errorf("%w: stage %q selects unknown target %q", ErrTarget, s.Name, s.Target)
	}
	return nil
}

// Checks artifact declarations.
func validateArtifacts(s *Stage) error {
	names := make(map[string]bool, len(s.Artifacts))
	for _, a := range s.Artifacts {
		if a.Name == "" {
			return fmt.Errorf("%w: stage %q declares an unnamed artifact", ErrManifest, s.Name)
		}
		if names[a.Name] {
			return fmt.Errorf("%w: stage %q declares artifact %q twice", ErrManifest, s.Name, a.Name)
		}
		names[a.Name] = true
		if !path.IsAbs(a.Path) {
			return fmt.Errorf("%w: stage %q artifact %q path %q is not absolute", ErrManifest, s.Name, a.Name, a.Path)
		}
	}
	return nil
}

// Checks a stage's steps, recursing into groups.
//
// Cross-stage copies must name a stage listed in needs and an artifact that
// stage declares, so producer-before-consumer ordering is structural rather
// than an accident of scheduling.
func (p *Pipeline) validateSteps(s *Stage, steps []Step) error {
	for _, step := range steps {
		if step.Run != "" && step.Copy != "" {
			return fmt.Errorf("%w: stage %q has a step with both run and copy", ErrManifest, s.Name)
		}
		if len(step.Steps) > 0 {
			if step.Run != "" || step.Copy != "" {
				return fmt.Errorf("%w: stage %q has a group step with an operation", ErrManifest, s.Name)
			}
			if err := p.validateSteps(s, step.Steps); err != nil {
				return err
			}
			continue
		}
		if step.Copy == "" {
			continue
		}

		src, _, err := ParseCopy(step.Copy)
		if err != nil {
			return fmt.Errorf("stage %q: %w", s.Name, err)
		}
		stage, artifact, ok := ParseArtifactRef(src)
		if !ok {
			continue
		}

		producer, exists := p.Stage(stage)
		if !exists {
			return fmt.Errorf("%w: stage %q copies from unknown stage %q", ErrManifest, s.Name, stage)
		}
		if !slices.Contains(s.Needs, stage) {
			return fmt.Errorf("%w: stage %q copies from %q without declaring it in needs", ErrManifest, s.Name, stage)
		}
		if !producerDeclares(producer, artifact) {
			return fmt.Errorf("%w: stage %q copies undeclared artifact %q from stage %q", ErrManifest, s.Name, artifact, stage)
		}
	}
	return nil
}

// Whether the stage declares an artifact with the given name.
func producerDeclares(s *Stage, name string) bool {
	for _, a := range s.Artifacts {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Checks the export stage contract.
//
// Exactly one stage declares an entrypoint. That stage is the runtime image:
// it must consume at least one cross-stage artifact, it must not build
// anything itself, and its entrypoint must be an absolute path so it can be
// checked against the assembled filesystem before export.
func (p *Pipeline) validateExportStage() error {
	var export *Stage
	for i := range p.Stages {
		s := &p.Stages[i]
		if len(s.Entrypoint) == 0 {
			if s.Port != 0 {
				return fmt.Errorf("%w: stage %q declares a port but no entrypoint", ErrManifest, s.Name)
			}
			if len(s.Env) > 0 {
				return fmt.Errorf("%w: stage %q declares env defaults but no entrypoint", ErrManifest, s.Name)
			}
			continue
		}
		if export != nil {
			return fmt.Errorf("%w: stages %q and %q both declare an entrypoint", ErrManifest, export.Name, s.Name)
		}
		export = s
	}
	if export == nil {
		return fmt.Errorf("%w: no stage declares an entrypoint", ErrManifest)
	}

	if !path.IsAbs(export.Entrypoint[0]) {
		return fmt.Errorf("%w: stage %q entrypoint %q is not absolute", ErrManifest, export.Name, export.Entrypoint[0])
	}
	if len(export.Targets) > 0 {
		return fmt.Errorf("%w: export stage %q must not declare build targets", ErrManifest, export.Name)
	}
	if export.Port < 0 || export.Port > 65535 {
		return fmt.Errorf("%w: stage %q port %d out of range", ErrManifest, export.Name, export.Port)
	}
	if !consumesArtifact(export.Steps) {
		return fmt.Errorf("%w: export stage %q copies no artifacts from earlier stages", ErrManifest, export.Name)
	}
	return nil
}

// Whether any step, recursively, is a cross-stage copy.
func consumesArtifact(steps []Step) bool {
	for _, step := range steps {
		if len(step.Steps) > 0 && consumesArtifact(step.Steps) {
			return true
		}
		if step.Copy == "" {
			continue
		}
		src, _, err := ParseCopy(step.Copy)
		if err != nil {
			continue
		}
		if _, _, ok := ParseArtifactRef(src); ok {
			return true
		}
	}
	return false
}

// Checks the needs graph for cycles.
func (p *Pipeline) validateAcyclic() error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(p.Stages))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("%w: dependency cycle through stage %q", ErrManifest, name)
		case done:
			return nil
		}
		state[name] = visiting
		s, _ := p.Stage(name)
		for _, need := range s.Needs {
			if err := visit(need); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	for i := range p.Stages {
		if err := visit(p.Stages[i].Name); err != nil {
			return err
		}
	}
	return nil
}
