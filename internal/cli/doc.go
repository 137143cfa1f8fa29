// Parses flags and configures logging for the stager CLI.
//
// The CLI accepts the following global flags:
//
//	-q, --quiet                Suppress informational output.
//	-v, --verbose              Enable verbose output.
//	-d, --debug                Enable debug output.
//	-s, --socket               Unix socket path for daemon commands.
//	    --containerd-address   Containerd socket address.
//	    --namespace            Containerd namespace.
//
// Flags override build-time defaults set via linker flags. After parsing, the
// global logger is reconfigured to reflect the final level before the selected
// subcommand runs.
package cli
