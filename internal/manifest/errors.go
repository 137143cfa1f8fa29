package manifest

import "errors"

var (
	ErrManifest = errors.New("invalid manifest")
	ErrTarget   = errors.New("invalid build target selection")
)
