package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Subdirectory name under each base path.
	daemonName = "stager"

	// Default permission mode for created directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for created files.
	DefaultFileMode os.FileMode = 0644
)

// Directory for runtime files (sockets, PIDs).
//
//	Linux:   $XDG_RUNTIME_DIR/stager or /run/user/<uid>/stager
//	macOS:   ~/Library/Caches/stager/run
func Runtime() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, daemonName)
	}
	return filepath.Join(xdg.CacheHome, daemonName, "run")
}

// Default path to the Unix domain socket for CLI-to-daemon communication.
//
//	Linux:   $XDG_RUNTIME_DIR/stager/stager.sock
//	macOS:   ~/Library/Caches/stager/run/stager.sock
func Socket() string {
	return filepath.Join(Runtime(), "stager.sock")
}

// Default path to the PID file.
//
//	Linux:   $XDG_RUNTIME_DIR/stager/stager.pid
//	macOS:   ~/Library/Caches/stager/run/stager.pid
func PIDFile() string {
	return filepath.Join(Runtime(), "stager.pid")
}
