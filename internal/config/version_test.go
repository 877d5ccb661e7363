package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("APP_VERSION", " 2.0.0-beta.1 ")
		if got := GetVersion(); got != "2.0.0-beta.1" {
			t.Errorf("expected env version, got %q", got)
		}
	})

	t.Run("version file", func(t *testing.T) {
		t.Setenv("APP_VERSION", "")
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "VERSION"), []byte("1.4.0\n"), 0644); err != nil {
			t.Fatal(err)
		}
		wd, err := os.Getwd()
		if err != nil {
			t.Fatal(err)
		}
		if err := os.Chdir(dir); err != nil {
			t.Fatal(err)
		}
		defer os.Chdir(wd)

		if got := GetVersion(); got != "1.4.0" {
			t.Errorf("expected file version, got %q", got)
		}
	})

	t.Run("fallback", func(t *testing.T) {
		t.Setenv("APP_VERSION", "")
		wd, err := os.Getwd()
		if err != nil {
			t.Fatal(err)
		}
		dir := filepath.Join(t.TempDir(), "nested")
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.Chdir(dir); err != nil {
			t.Fatal(err)
		}
		defer os.Chdir(wd)

		if got := GetVersion(); !strings.HasPrefix(got, fallbackVersion) {
			t.Errorf("expected fallback version prefix, got %q", got)
		}
	})
}
