package shell

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/cursorfocus/focus-bootstrap/internal/utils/logger"
)

// GetOSEnvirons returns the system environment variables
func GetOSEnvirons() map[string]string {
	// Convert os.Environ() to a map
	environ := make(map[string]string)
	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) == 2 {
			environ[parts[0]] = parts[1]
		}
	}
	return environ
}

// GetOSProxyEnvirons retrieves HTTP and HTTPS proxy environment variables
func GetOSProxyEnvirons() map[string]string {
	osEnv := GetOSEnvirons()
	proxyEnv := make(map[string]string)

	// Extract http_proxy and https_proxy variables
	for key, value := range osEnv {
		if strings.Contains(strings.ToLower(key), "http_proxy") ||
			strings.Contains(strings.ToLower(key), "https_proxy") {
			proxyEnv[key] = value
		}
	}

	return proxyEnv
}

// getShell returns the preferred shell, falling back to /bin/sh if bash is not available
func getShell() string {
	shells := []string{"/bin/bash", "/usr/bin/bash", "/bin/sh"}
	for _, shell := range shells {
		if _, err := os.Stat(shell); err == nil {
			return shell
		}
	}
	return "/bin/sh" // fallback
}

// IsCommandExist checks if a command exists on the host
func IsCommandExist(cmd string) bool {
	shell := getShell()
	output, _ := exec.Command(shell, "-c", "command -v "+cmd).Output()
	return len(bytes.TrimSpace(output)) > 0
}

// GetFullCmdStr prepares a command string with proxy environment prefixes
// so that subprocesses inherit the operator's proxy settings.
func GetFullCmdStr(cmdStr string, envVal []string) string {
	log := logger.Logger()
	envValStr := ""
	for _, env := range envVal {
		envValStr += env + " "
	}

	proxyEnv := GetOSProxyEnvirons()
	for key, value := range proxyEnv {
		envValStr += key + "=" + value + " "
	}

	fullCmdStr := envValStr + cmdStr
	log.Debugf("Exec: [" + cmdStr + "]")
	return fullCmdStr
}

// ExecCmd executes a command in the given directory and returns its output.
// An empty workDir runs the command in the current directory.
func ExecCmd(cmdStr string, workDir string, envVal []string) (string, error) {
	log := logger.Logger()
	fullCmdStr := GetFullCmdStr(cmdStr, envVal)

	shell := getShell()
	cmd := exec.Command(shell, "-c", fullCmdStr)
	cmd.Dir = workDir
	output, err := cmd.CombinedOutput()
	outputStr := string(output)

	if err != nil {
		if outputStr != "" {
			log.Infof(outputStr)
		}
		return outputStr, fmt.Errorf("failed to exec %s: %w", cmdStr, err)
	}
	if outputStr != "" {
		log.Debugf(outputStr)
	}
	return outputStr, nil
}

// ExecCmdWithStream executes a command and streams its output line by line
// through the logger while it runs. Used for long operations such as
// dependency installation, where the operator should see progress.
func ExecCmdWithStream(cmdStr string, workDir string, envVal []string) (string, error) {
	var outputStr string
	log := logger.Logger()

	fullCmdStr := GetFullCmdStr(cmdStr, envVal)

	shell := getShell()
	cmd := exec.Command(shell, "-c", fullCmdStr)
	cmd.Dir = workDir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("failed to get stdout pipe for command %s: %w", cmdStr, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("failed to get stderr pipe for command %s: %w", cmdStr, err)
	}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start command %s: %w", cmdStr, err)
	}

	// Stream output in goroutines
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			str := scanner.Text()
			if str != "" {
				outputStr += str
				log.Infof(str)
			}
		}
	}()

	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			str := scanner.Text()
			if str != "" {
				log.Infof(str)
			}
		}
	}()

	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return outputStr, fmt.Errorf("failed to wait for command %s: %w", cmdStr, err)
	}

	return outputStr, nil
}
