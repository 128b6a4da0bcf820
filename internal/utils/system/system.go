package system

import (
	"fmt"
	"runtime"

	"github.com/cursorfocus/focus-bootstrap/internal/utils/logger"
	"github.com/cursorfocus/focus-bootstrap/internal/utils/shell"
)

// fileBrowserCommand returns the host's file browser launcher.
func fileBrowserCommand() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		return "open", nil
	case "windows":
		return "explorer", nil
	default:
		// xdg-open covers every mainstream Linux desktop; headless hosts
		// simply don't have it.
		if shell.IsCommandExist("xdg-open") {
			return "xdg-open", nil
		}
		return "", fmt.Errorf("no file browser launcher found on this host")
	}
}

// OpenFileBrowser opens dir in the host's file browser. Purely a
// convenience at the end of a successful install; callers treat failure
// as non-fatal.
func OpenFileBrowser(dir string) error {
	log := logger.Logger()

	launcher, err := fileBrowserCommand()
	if err != nil {
		return err
	}

	if _, err := shell.ExecCmd(launcher+" "+dir, "", nil); err != nil {
		return fmt.Errorf("failed to open %s in file browser: %w", dir, err)
	}
	log.Infof("Opened %s in file browser", dir)
	return nil
}
