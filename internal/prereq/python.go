package prereq

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cursorfocus/focus-bootstrap/internal/utils/logger"
	"github.com/cursorfocus/focus-bootstrap/internal/utils/shell"
)

// Version is a parsed interpreter version.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// AtLeast reports whether v >= min.
func (v Version) AtLeast(min Version) bool {
	if v.Major != min.Major {
		return v.Major > min.Major
	}
	if v.Minor != min.Minor {
		return v.Minor > min.Minor
	}
	return v.Patch >= min.Patch
}

// MinPythonVersion is the oldest interpreter the installed project supports.
var MinPythonVersion = Version{Major: 3, Minor: 10}

// interpreterCandidates in probe order.
var interpreterCandidates = []string{"python3", "python"}

// LocatePython finds a Python interpreter on PATH.
func LocatePython() (string, error) {
	for _, candidate := range interpreterCandidates {
		if shell.IsCommandExist(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no Python interpreter found on PATH (tried %s)",
		strings.Join(interpreterCandidates, ", "))
}

// ParsePythonVersion parses `python --version` output such as
// "Python 3.11.2" into a Version. A missing patch component is accepted.
func ParsePythonVersion(output string) (Version, error) {
	fields := strings.Fields(strings.TrimSpace(output))
	if len(fields) < 2 || !strings.EqualFold(fields[0], "python") {
		return Version{}, fmt.Errorf("unrecognized interpreter version output %q", strings.TrimSpace(output))
	}

	parts := strings.SplitN(fields[1], ".", 3)
	if len(parts) < 2 {
		return Version{}, fmt.Errorf("unrecognized interpreter version %q", fields[1])
	}

	var v Version
	var err error
	if v.Major, err = strconv.Atoi(parts[0]); err != nil {
		return Version{}, fmt.Errorf("parsing major version from %q: %w", fields[1], err)
	}
	if v.Minor, err = strconv.Atoi(parts[1]); err != nil {
		return Version{}, fmt.Errorf("parsing minor version from %q: %w", fields[1], err)
	}
	if len(parts) == 3 {
		// Strip any pre-release suffix like "2rc1"
		patch := parts[2]
		digits := 0
		for digits < len(patch) && patch[digits] >= '0' && patch[digits] <= '9' {
			digits++
		}
		if digits > 0 {
			if v.Patch, err = strconv.Atoi(patch[:digits]); err != nil {
				return Version{}, fmt.Errorf("parsing patch version from %q: %w", fields[1], err)
			}
		}
	}
	return v, nil
}

// CheckPython locates a Python interpreter, reads its version, and fails
// when it is older than min. Returns the interpreter command and the
// detected version on success.
func CheckPython(min Version) (string, Version, error) {
	log := logger.Logger()

	interp, err := LocatePython()
	if err != nil {
		return "", Version{}, err
	}

	output, err := shell.ExecCmd(interp+" --version", "", nil)
	if err != nil {
		return "", Version{}, fmt.Errorf("failed to query %s version: %w", interp, err)
	}

	version, err := ParsePythonVersion(output)
	if err != nil {
		return "", Version{}, err
	}

	if !version.AtLeast(min) {
		return "", version, fmt.Errorf("Python %s found but %s or newer is required", version, min)
	}

	log.Infof("Found %s version %s", interp, version)
	return interp, version, nil
}
