package internal

import (
	"strconv"
	"sync/atomic"
)

var (
	quietMode   atomic.Bool // Suppresses informational output.
	debugMode   atomic.Bool // Enables debug logging.
	verboseMode atomic.Bool // Enables verbose logging.
)

// Seeds the runtime modes from their link-time values.
//
// rawQuiet, rawDebug, and rawVerbose arrive as strings via ldflags;
// anything that does not parse as a bool leaves the mode disabled. CLI
// flags may flip the modes again after startup.
func init() {
	if v, err := strconv.ParseBool(rawQuiet); err == nil {
		quietMode.Store(v)
	}
	if v, err := strconv.ParseBool(rawDebug); err == nil {
		debugMode.Store(v)
	}
	if v, err := strconv.ParseBool(rawVerbose); err == nil {
		verboseMode.Store(v)
	}
}

// Toggles quiet mode.
func SetQuiet(enabled bool) {
	quietMode.Store(enabled)
}

// Whether quiet mode is enabled.
func IsQuiet() bool {
	return quietMode.Load()
}

// Toggles debug mode.
func SetDebug(enabled bool) {
	debugMode.Store(enabled)
}

// Whether debug mode is enabled.
func IsDebug() bool {
	return debugMode.Load()
}

// Toggles verbose logging.
func SetVerbose(enabled bool) {
	verboseMode.Store(enabled)
}

// Whether verbose logging is enabled.
func IsVerbose() bool {
	return verboseMode.Load()
}
