package pipeline

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ai-DevOmer/stager/internal/manifest"
)

// Executes a copy operation, transferring files into the stage container.
//
// Host sources ("src dest") are resolved relative to the build context
// root. Artifact sources ("stage:artifact dest") are resolved through the
// registry and streamed out of the producing stage's container.
func (e *executor) executeCopy(ctx context.Context, ctr container, copyStr, workdir string) error {
	src, dest, err := resolveCopy(copyStr, workdir)
	if err != nil {
		return err
	}

	// Ensure the destination parent directory exists.
	destDir := filepath.Dir(dest)
	if destDir != "" {
		if err := ctr.MkdirAll(ctx, destDir); err != nil {
			return fmt.Errorf("%w: %w", ErrCopy, err)
		}
	}

	if stage, name, ok := manifest.ParseArtifactRef(src); ok {
		return e.executeArtifactCopy(ctx, ctr, stage, name, dest)
	}

	return e.executeHostCopy(ctx, ctr, src, dest)
}

// Copies a file or directory from the host into the container.
func (e *executor) executeHostCopy(ctx context.Context, ctr container, src, dest string) error {
	if !filepath.IsAbs(src) {
		src = filepath.Join(e.root, src)
	}

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCopy, err)
	}

	slog.Debug("copy", "src", src, "dest", dest, "dir", info.IsDir())

	pr, pw := io.Pipe()

	go func() {
		tw := tar.NewWriter(pw)
		var writeErr error

		if info.IsDir() {
			writeErr = writeDirToTar(tw, src, filepath.Base(dest))
		} else {
			writeErr = writeFileToTar(tw, src, filepath.Base(dest))
		}

		tw.Close()
		pw.CloseWithError(writeErr)
	}()

	if err := ctr.CopyTo(ctx, pr, filepath.Dir(dest)); err != nil {
		// Unblock the writer goroutine if the container stopped reading
		// mid-stream.
		pr.CloseWithError(err)
		return fmt.Errorf("%w: %w", ErrCopy, err)
	}

	return nil
}

// Copies a published artifact from its producing stage's container into
// the target container.
//
// The tar stream is piped directly from the source container's CopyFrom
// to the target container's CopyTo; the artifact never touches the host
// filesystem.
func (e *executor) executeArtifactCopy(ctx context.Context, ctr container, stage, name, dest string) error {
	a, err := e.reg.resolve(stage, name)
	if err != nil {
		return err
	}

	slog.Debug("artifact copy", "stage", stage, "artifact", name, "src", a.path, "dest", dest)

	pr, pw := io.Pipe()

	errc := make(chan error, 1)
	go func() {
		errc <- a.container.CopyFrom(ctx, pw, a.path)
		pw.Close()
	}()

	if err := ctr.CopyTo(ctx, pr, filepath.Dir(dest)); err != nil {
		// Close the read end so the source container's CopyFrom stops
		// blocking on pipe writes, then wait for the goroutine to finish.
		pr.CloseWithError(err)
		<-errc
		return fmt.Errorf("%w: %w", ErrCopy, err)
	}

	if err := <-errc; err != nil {
		return fmt.Errorf("%w: %w", ErrCopy, err)
	}

	return nil
}

// Parses a copy spec and resolves the destination against the workdir.
//
// A relative destination requires a workdir to have been set by an earlier
// modifier or on the step itself.
func resolveCopy(spec, workdir string) (src, dest string, err error) {
	src, dest, err = manifest.ParseCopy(spec)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrCopy, err)
	}

	if !filepath.IsAbs(dest) {
		if workdir == "" {
			return "", "", fmt.Errorf("%w: relative dest %q requires workdir", ErrCopy, dest)
		}
		dest = filepath.Join(workdir, dest)
	}

	return src, dest, nil
}

// Writes a single file to a tar writer with the given archive name.
func writeFileToTar(tw *tar.Writer, hostPath, name string) error {
	info, err := os.Stat(hostPath)
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = name

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	f, err := os.Open(hostPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}

// Writes a directory tree to a tar writer rooted at the given archive
// prefix.
func writeDirToTar(tw *tar.Writer, hostDir, prefix string) error {
	return filepath.WalkDir(hostDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(hostDir, path)
		if err != nil {
			return err
		}

		archivePath := filepath.ToSlash(filepath.Join(prefix, relPath))
		return writeTarEntry(tw, path, archivePath, d)
	})
}

// Writes a single file or directory entry to a tar writer.
func writeTarEntry(tw *tar.Writer, hostPath, archivePath string, d os.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = archivePath

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	if info.Mode().IsRegular() {
		f, err := os.Open(hostPath)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	}

	return nil
}
