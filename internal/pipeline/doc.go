// Package pipeline executes build pipelines against container runtimes.
//
// A pipeline is a set of named stages, each backed by a container created
// from a base image. Stages with no dependency between them run
// concurrently; a stage that declares needs blocks until every named
// producer has completed. The first failing stage cancels everything still
// running and nothing is exported; there are no retries and no partial
// images.
//
// Artifacts move between stages only through the registry: a completed
// stage publishes its declared artifacts after each path is verified to
// exist in its container, and cross-stage copy steps resolve exclusively
// against those published entries. A copy naming a stage or artifact that
// was never published fails the build instead of silently producing an
// image without the artifact.
//
// The stage that declares an entrypoint is the runtime image. Before it is
// exported, the entrypoint is checked to exist and be executable inside
// the assembled filesystem; the exported OCI config then carries the
// entrypoint, the exposed port, and the declared environment defaults.
//
// Example usage:
//
//	result, err := pipeline.Run(ctx, rt, pipeline.Options{
//	    Pipeline: pipe,
//	    Output:   "dist",
//	    Root:     ".",
//	})
//	if err != nil {
//	    return err
//	}
package pipeline
