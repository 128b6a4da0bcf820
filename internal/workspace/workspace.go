package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cursorfocus/focus-bootstrap/internal/utils/logger"
)

// DefaultDir returns the fixed installation target under the operator's
// home directory: <home>/Downloads/<product>.
func DefaultDir(product string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, "Downloads", product), nil
}

// Prepare removes any prior installation at dir and recreates it empty.
// Destructive on purpose: reinstalls must be indistinguishable from a
// fresh install, never a merge.
func Prepare(dir string) error {
	log := logger.Logger()

	if _, err := os.Stat(dir); err == nil {
		log.Infof("Removing existing installation at %s", dir)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove existing installation %s: %w", dir, err)
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create workspace %s: %w", dir, err)
	}
	log.Infof("Workspace prepared at %s", dir)
	return nil
}

// Flatten moves the contents of the single top-level directory inside dir
// up one level and removes the then-empty wrapper. Archives from source
// forges wrap the project in a "<repo>-<branch>" folder; after Flatten the
// workspace root is the project root. Entries listed in keep (such as the
// archive file itself) are ignored when locating the wrapper.
func Flatten(dir string, keep ...string) error {
	log := logger.Logger()

	kept := make(map[string]bool, len(keep))
	for _, name := range keep {
		kept[name] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read workspace %s: %w", dir, err)
	}

	var wrapper string
	for _, entry := range entries {
		if kept[entry.Name()] {
			continue
		}
		if !entry.IsDir() {
			return fmt.Errorf("unexpected file %s at workspace root, cannot flatten", entry.Name())
		}
		if wrapper != "" {
			return fmt.Errorf("expected a single extracted folder in %s, found %s and %s",
				dir, wrapper, entry.Name())
		}
		wrapper = entry.Name()
	}
	if wrapper == "" {
		return fmt.Errorf("no extracted folder found in %s", dir)
	}

	wrapperPath := filepath.Join(dir, wrapper)
	inner, err := os.ReadDir(wrapperPath)
	if err != nil {
		return fmt.Errorf("failed to read extracted folder %s: %w", wrapperPath, err)
	}

	for _, entry := range inner {
		src := filepath.Join(wrapperPath, entry.Name())
		dst := filepath.Join(dir, entry.Name())
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("failed to move %s to workspace root: %w", entry.Name(), err)
		}
	}

	if err := os.Remove(wrapperPath); err != nil {
		return fmt.Errorf("failed to remove wrapper folder %s: %w", wrapperPath, err)
	}

	log.Infof("Flattened %s into workspace root", wrapper)
	return nil
}
