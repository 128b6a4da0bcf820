package deps

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cursorfocus/focus-bootstrap/internal/utils/logger"
	"github.com/cursorfocus/focus-bootstrap/internal/utils/shell"
)

// DefaultManifest is the dependency manifest expected at the workspace root.
const DefaultManifest = "requirements.txt"

// pip candidates in probe order; the module fallback covers hosts where
// pip is only reachable through the interpreter.
var pipCandidates = []string{"pip3", "pip"}

// locatePip returns the pip invocation to use. interp is the Python
// interpreter found during the prerequisite check, used as a fallback.
func locatePip(interp string) string {
	for _, candidate := range pipCandidates {
		if shell.IsCommandExist(candidate) {
			return candidate
		}
	}
	return interp + " -m pip"
}

// InstallRequirements installs the manifest's packages into the operator's
// Python environment, streaming pip's output. The returned error reports a
// failed install but the caller is expected to treat it as a warning: the
// workflow's overall success is not gated on it.
func InstallRequirements(workDir, interp, manifest string) error {
	log := logger.Logger()

	manifestPath := filepath.Join(workDir, manifest)
	if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
		return fmt.Errorf("dependency manifest %s not found in workspace", manifest)
	}

	pip := locatePip(interp)
	log.Infof("Installing dependencies with %s", pip)

	if _, err := shell.ExecCmdWithStream(pip+" install -r "+manifest, workDir, nil); err != nil {
		return fmt.Errorf("dependency installation failed: %w", err)
	}

	log.Infof("Dependencies installed")
	return nil
}
