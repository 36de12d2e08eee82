package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/voxelhq/voxd/internal/paths"
)

// Holds server configuration.
//
// Zero values select defaults, so a partially filled Config (from flags or a
// sparse config file) behaves sensibly.
type Config struct {
	SocketPath      string `yaml:"socket"`           // Override for the Unix socket path. Empty uses the default.
	MaxMessageSize  int    `yaml:"max_message_size"` // Maximum request line length in bytes. Zero uses 1 MiB.
	MaxConnections  int64  `yaml:"max_connections"`  // Concurrent client cap. Zero uses 256.
	DisableRenderer bool   `yaml:"disable_renderer"` // Disables the offscreen rendering backend.
	BackupDir       string `yaml:"backup_dir"`       // Directory for pre-save backups. Empty uses the default.
	DisableBackups  bool   `yaml:"disable_backups"`  // Disables pre-save backups entirely.
}

const (

	// Default maximum request line length. A client exceeding it has its
	// connection failed with a "message too large" error.
	defaultMaxMessageSize = 1 << 20

	// Default cap on concurrently served connections.
	defaultMaxConnections = 256
)

// Loads the daemon configuration file.
//
// An empty path uses the default XDG location. A missing file is not an
// error; it yields a zero Config and the built-in defaults apply.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = paths.ConfigFile()
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrConfig, path, err)
	}
	return cfg, nil
}

// Fills in defaults for unset fields.
func (c Config) withDefaults() Config {
	if c.SocketPath == "" {
		c.SocketPath = paths.Socket()
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = defaultMaxMessageSize
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = defaultMaxConnections
	}
	if c.BackupDir == "" {
		c.BackupDir = paths.Backups()
	}
	if c.DisableBackups {
		c.BackupDir = ""
	}
	return c
}
