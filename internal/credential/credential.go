package credential

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cursorfocus/focus-bootstrap/internal/ui"
	"github.com/cursorfocus/focus-bootstrap/internal/utils/logger"
	"github.com/cursorfocus/focus-bootstrap/internal/utils/network"
)

const (
	// DefaultKeyName is the variable name written to the credential file.
	DefaultKeyName = "GEMINI_API_KEY"
	// DefaultPrefix is the literal every Google AI Studio key starts with.
	// Candidates without it are rejected locally, never sent anywhere.
	DefaultPrefix = "AIzaSy"
	// DefaultFileName is the credential file at the workspace root.
	DefaultFileName = ".env"
	// DefaultValidateURL lists available models; it answers 200 only for
	// a live key.
	DefaultValidateURL = "https://generativelanguage.googleapis.com/v1beta/models"
)

// Validator checks a candidate key against a remote endpoint.
type Validator interface {
	Validate(ctx context.Context, key string) error
}

// GeminiValidator validates a key with a round-trip to the model-listing
// endpoint, sending the candidate in the x-goog-api-key header.
type GeminiValidator struct {
	Client *http.Client
	URL    string
}

func NewGeminiValidator() *GeminiValidator {
	return &GeminiValidator{
		Client: network.NewSecureHTTPClient(),
		URL:    DefaultValidateURL,
	}
}

func (v *GeminiValidator) Validate(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to build validation request: %w", err)
	}
	req.Header.Set("x-goog-api-key", key)

	resp, err := v.Client.Do(req)
	if err != nil {
		return fmt.Errorf("validation request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API rejected the key (status %s)", resp.Status)
	}
	return nil
}

// Collector runs the interactive acquisition loop: prompt, local prefix
// screen, remote validation. The loop has no iteration ceiling because an
// operator is present; it ends when a key validates, the input source is
// exhausted, or the context is canceled.
type Collector struct {
	Console   *ui.Console
	Prefix    string
	Validator Validator
}

func NewCollector(console *ui.Console, validator Validator) *Collector {
	return &Collector{
		Console:   console,
		Prefix:    DefaultPrefix,
		Validator: validator,
	}
}

// Collect returns the first candidate that passes both checks.
func (c *Collector) Collect(ctx context.Context) (string, error) {
	log := logger.Logger()

	for {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("credential prompt canceled: %w", err)
		}

		key, err := c.Console.Ask("Enter your Gemini API key:")
		if err != nil {
			return "", fmt.Errorf("credential input ended before a valid key was provided: %w", err)
		}

		if !strings.HasPrefix(key, c.Prefix) {
			c.Console.Error("That doesn't look like a Gemini API key (must start with %q)", c.Prefix)
			continue
		}

		log.Debugf("Validating candidate key against the API")
		if err := c.Validator.Validate(ctx, key); err != nil {
			c.Console.Error("Key validation failed: %v", err)
			continue
		}

		c.Console.Success("API key validated")
		return key, nil
	}
}

// Persist writes the accepted key as a single KEY=VALUE line, with no
// trailing newline, overwriting any existing credential file. Returns the
// file path.
func Persist(dir, keyName, value string) (string, error) {
	path := filepath.Join(dir, DefaultFileName)
	record := keyName + "=" + value
	if err := os.WriteFile(path, []byte(record), 0600); err != nil {
		return "", fmt.Errorf("failed to write credential file %s: %w", path, err)
	}
	logger.Logger().Infof("Credential saved to %s", path)
	return path, nil
}
