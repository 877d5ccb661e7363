package config

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const fallbackVersion = "0.1.0"

// GetVersion returns the version stamped into generated pages.
// APP_VERSION wins, then a VERSION file in or above the working
// directory, then the VCS revision embedded by the Go toolchain.
func GetVersion() string {
	if envVersion := strings.TrimSpace(os.Getenv("APP_VERSION")); envVersion != "" {
		return envVersion
	}
	if v := versionFromFile(); v != "" {
		return v
	}
	if rev := buildRevision(); rev != "" {
		return fallbackVersion + "+" + rev
	}
	return fallbackVersion
}

func versionFromFile() string {
	for _, p := range []string{"VERSION", filepath.Join("..", "VERSION")} {
		content, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if v := strings.TrimSpace(string(content)); v != "" {
			return v
		}
	}
	return ""
}

func buildRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
			return setting.Value[:7]
		}
	}
	return ""
}
