package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestResolveRequestedLogLevelPrefersExplicitFlag(t *testing.T) {
	prev := logLevel
	logLevel = "warn"
	t.Cleanup(func() {
		logLevel = prev
	})

	if got := resolveRequestedLogLevel(nil); got != "warn" {
		t.Fatalf("expected explicit log level to win, got %q", got)
	}
}

func TestResolveRequestedLogLevelUsesVerboseFallback(t *testing.T) {
	prev := logLevel
	logLevel = ""
	t.Cleanup(func() {
		logLevel = prev
	})

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("verbose", false, "")
	if err := cmd.Flags().Set("verbose", "true"); err != nil {
		t.Fatalf("set verbose: %v", err)
	}

	if got := resolveRequestedLogLevel(cmd); got != "debug" {
		t.Fatalf("expected verbose flag to set debug level, got %q", got)
	}
}

func TestResolveRequestedLogLevelIgnoresUnsetVerbose(t *testing.T) {
	prev := logLevel
	logLevel = ""
	t.Cleanup(func() {
		logLevel = prev
	})

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("verbose", false, "")

	if got := resolveRequestedLogLevel(cmd); got != "" {
		t.Fatalf("expected empty when verbose not set, got %q", got)
	}
}

func TestAttachLoggingHooksAddsHookToSubcommand(t *testing.T) {
	root := createRootCommand()
	cmd, _, err := root.Find([]string{"install"})
	if err != nil {
		t.Fatalf("find install command: %v", err)
	}
	if cmd == nil {
		t.Fatal("install command not found")
	}
	if cmd.PersistentPreRunE == nil {
		t.Fatal("expected logging hook on install command")
	}
}

func TestRootCommandHasUpdateSubcommand(t *testing.T) {
	root := createRootCommand()
	cmd, _, err := root.Find([]string{"update"})
	if err != nil {
		t.Fatalf("find update command: %v", err)
	}
	if cmd == nil || cmd.Use != "update" {
		t.Fatal("update command not found")
	}
}

func TestValidateCommandAcceptsGoodSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	data := []byte("workspace_dir: /tmp/focus\nmax_download_attempts: 5\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	root := createRootCommand()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"validate", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("validate failed for valid settings: %v", err)
	}
}

func TestValidateCommandRejectsBadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	data := []byte("archive_url: ftp://not-https.example.com/a.zip\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	root := createRootCommand()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"validate", path})
	if err := root.Execute(); err == nil {
		t.Fatal("expected validation error for non-https archive URL")
	}
}

func TestVersionCommandPrintsVersion(t *testing.T) {
	prev := version
	version = "1.2.3"
	t.Cleanup(func() {
		version = prev
	})

	root := createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out.String(), "focus-bootstrap 1.2.3") {
		t.Errorf("version output = %q", out.String())
	}
}
