// Parses flags and configures logging for the voxd daemon.
//
// The daemon accepts the following flags:
//
//	-q, --quiet     Suppress informational output.
//	-v, --verbose   Enable verbose output.
//	-d, --debug     Enable debug output.
//	-s, --socket    Unix socket path.
//	-c, --config    Config file path.
//
// Flags override build-time defaults set via linker flags. After parsing, the
// global log level is adjusted to reflect the final flag values before the
// server starts.
package cli
