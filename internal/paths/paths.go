package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	daemonName = "voxd"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Path to the directory for runtime files (sockets, PIDs).
//
//	Linux:   $XDG_RUNTIME_DIR/voxd or /run/user/<uid>/voxd
//	macOS:   ~/Library/Caches/voxd/run
func Runtime() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, daemonName)
	}
	return filepath.Join(xdg.CacheHome, daemonName, "run")
}

// Default path to the Unix domain socket for client-to-daemon communication.
//
//	Linux:   $XDG_RUNTIME_DIR/voxd/voxd.sock
//	macOS:   ~/Library/Caches/voxd/run/voxd.sock
func Socket() string {
	return filepath.Join(Runtime(), "voxd.sock")
}

// Default path to the PID file.
//
//	Linux:   $XDG_RUNTIME_DIR/voxd/voxd.pid
//	macOS:   ~/Library/Caches/voxd/run/voxd.pid
func PIDFile() string {
	return filepath.Join(Runtime(), "voxd.pid")
}

// Default path to the daemon configuration file.
//
//	Linux:   ~/.config/voxd/config.yaml
//	macOS:   ~/Library/Application Support/voxd/config.yaml
func ConfigFile() string {
	return filepath.Join(xdg.ConfigHome, daemonName, "config.yaml")
}

// Directory for gzip backups taken before a project file is overwritten.
//
//	Linux:   ~/.local/state/voxd/backups
//	macOS:   ~/Library/Application Support/voxd/backups
func Backups() string {
	return filepath.Join(xdg.StateHome, daemonName, "backups")
}
