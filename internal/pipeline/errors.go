package pipeline

import "errors"

var (
	ErrPipeline            = errors.New("pipeline failed")
	ErrCommandFailed       = errors.New("command failed")
	ErrCopy                = errors.New("copy failed")
	ErrArtifact            = errors.New("artifact not found")
	ErrEntrypoint          = errors.New("entrypoint not satisfied by image contents")
	ErrFileSystemOperation = errors.New("file system operation failed")
)
