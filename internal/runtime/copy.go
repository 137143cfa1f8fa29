package runtime

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
)

// Creates a directory inside the container, including parents.
func (c *Container) MkdirAll(ctx context.Context, path string) error {
	return c.mustExec(ctx, "mkdir", nil, nil, "mkdir", "-p", path)
}

// Copies a tar stream into the container's filesystem.
//
// The contents of r are extracted into destDir by piping them to "tar xf -
// -C destDir" inside the container.
func (c *Container) CopyTo(ctx context.Context, r io.Reader, destDir string) error {
	return c.mustExec(ctx, "tar extract", r, nil, "tar", "xf", "-", "-C", destDir)
}

// Copies a path from the container's filesystem as a tar stream.
//
// The file or directory at path is archived by running "tar cf - -C <dir>
// <base>" inside the container and streaming the output to w.
func (c *Container) CopyFrom(ctx context.Context, w io.Writer, path string) error {
	return c.mustExec(ctx, "tar archive", nil, w, "tar", "cf", "-", "-C", filepath.Dir(path), filepath.Base(path))
}

// Reports whether a path exists inside the container.
func (c *Container) PathExists(ctx context.Context, path string) (bool, error) {
	return c.probe(ctx, "-e", path)
}

// Reports whether a path inside the container is an executable regular
// file.
//
// Both predicates are required: "test -x" alone also passes for any
// directory with the execute bit set, which a misdirected copy can leave
// at the probed path.
func (c *Container) PathExecutable(ctx context.Context, path string) (bool, error) {
	isFile, err := c.probe(ctx, "-f", path)
	if err != nil || !isFile {
		return false, err
	}
	return c.probe(ctx, "-x", path)
}

// Runs "test <flag> <path>" inside the container.
//
// Exit code 0 means the predicate holds, 1 that it does not; anything else
// is a runtime failure.
func (c *Container) probe(ctx context.Context, flag, path string) (bool, error) {
	exitCode, stderr, err := c.execCommand(ctx, nil, nil, nil, "", "test", flag, path)
	if err != nil {
		return false, err
	}
	switch exitCode {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		return false, fmt.Errorf("%w: test %s %s failed with exit code %d (%s)", ErrRuntime, flag, path, exitCode, stderr)
	}
}

// Helper method that runs a command inside the container, returning an error
// that includes desc if the process exits with a non-zero code.
func (c *Container) mustExec(ctx context.Context, desc string, stdin io.Reader, stdout io.Writer, args ...string) error {
	exitCode, stderr, err := c.execCommand(ctx, stdin, stdout, nil, "", args...)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return fmt.Errorf("%w: %s failed with exit code %d (%s)", ErrRuntime, desc, exitCode, stderr)
	}
	return nil
}
