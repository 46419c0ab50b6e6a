package utils

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigHome returns the platform's base config directory for homeDir.
func ConfigHome(homeDir string) string {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return appData
		}
		return filepath.Join(homeDir, "AppData", "Roaming")
	default:
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return configHome
		}
		return filepath.Join(homeDir, ".config")
	}
}

// ResolvePath makes a relative path absolute against the working
// directory, falling back to the executable dir when the working
// directory cannot be determined.
func ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, path)
	}
	if execDir, err := GetExecutableDir(); err == nil {
		return filepath.Join(execDir, path)
	}
	return path
}
