package main

import (
	"fmt"
	"os"

	"github.com/cursorfocus/focus-bootstrap/internal/installer"
	"github.com/cursorfocus/focus-bootstrap/internal/ui"
	"github.com/cursorfocus/focus-bootstrap/internal/updater"
	"github.com/cursorfocus/focus-bootstrap/internal/workspace"
)

// runUpdate drives the interactive update flow: check, show what's new,
// confirm, apply.
func runUpdate(installDir string, keepBackups bool, console *ui.Console) error {
	if installDir == "" {
		dir, err := workspace.DefaultDir(installer.Product)
		if err != nil {
			return err
		}
		installDir = dir
	}

	if _, err := os.Stat(installDir); err != nil {
		return fmt.Errorf("no installation found at %s (run 'focus-bootstrap install' first)", installDir)
	}

	ctx, cancel := signalContext()
	defer cancel()

	u := updater.New("")
	u.KeepBackups = keepBackups

	console.Info("Checking for updates")
	info, err := u.CheckForUpdates(ctx, installDir)
	if err != nil {
		console.Error("Update check failed: %v", err)
		return err
	}
	if info == nil {
		console.Success("You are using the latest version")
		return nil
	}

	console.Banner("Update available",
		"Content: "+info.Message,
		"Author:  "+info.Author,
		"Date:    "+info.Date.Local().Format("January 2, 2006 at 3:04 PM"),
	)

	proceed, err := console.Confirm("Update now?")
	if err != nil {
		return err
	}
	if !proceed {
		console.Info("Update skipped")
		return nil
	}

	if err := u.Apply(ctx, installDir, info); err != nil {
		console.Error("Update failed: %v", err)
		return err
	}

	console.Success("Updated to the latest version")
	return nil
}
