// Package instance lays out the on-disk state of a named chatwave instance.
package instance

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the base directory when set.
const HomeEnv = "CHATWAVE_HOME"

// BaseDir returns $CHATWAVE_HOME, or ~/.chatwave.
func BaseDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".chatwave")
}

// Dir returns the instance-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "instances", name)
}

// DBPath returns the SQLite store path.
func DBPath(name string) string {
	return filepath.Join(Dir(name), "chatwave.db")
}

// SocketPath returns the gRPC socket path.
func SocketPath(name string) string {
	return filepath.Join(Dir(name), "gateway.sock")
}

// BeaconPath returns the presence datagram socket path.
func BeaconPath(name string) string {
	return filepath.Join(Dir(name), "beacon.sock")
}

// LockPath returns the lock file path.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// LogDir returns the log directory for an instance.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the log file of one program, e.g. "wavestored".
func LogPath(name, program string) string {
	return filepath.Join(LogDir(name), program+".log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the instance directory tree with proper permissions.
func EnsureDir(name string) error {
	for _, d := range []string{Dir(name), LogDir(name)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
