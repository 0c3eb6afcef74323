// Package platform provides OS-aware helpers for paths.
// All code that needs to behave differently per OS must use this package.
package platform

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultWorkDir returns the OS-appropriate data directory for hoopserve.
//
//	Linux:   ~/.local/share/hoopserve
//	macOS:   ~/Library/Application Support/Hoopserve
//	Windows: %APPDATA%\Hoopserve
//
// If WORK_DIR env var is set, that takes priority (used in Docker).
func DefaultWorkDir() string {
	if env := os.Getenv("WORK_DIR"); env != "" {
		return env
	}
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, _ := os.UserHomeDir()
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "Hoopserve")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Hoopserve")
	default: // linux
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "hoopserve")
	}
}

// EnsureDir creates a directory and all parents if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
