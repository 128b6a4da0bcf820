package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	yamlv3 "gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/cursorfocus/focus-bootstrap/internal/utils/logger"
)

// Settings are optional overrides for the install workflow, loaded from a
// YAML file. Zero values mean "keep the built-in default".
type Settings struct {
	WorkspaceDir        string `yaml:"workspace_dir"`
	ArchiveURL          string `yaml:"archive_url"`
	ProbeURL            string `yaml:"probe_url"`
	ValidateURL         string `yaml:"validate_url"`
	MaxDownloadAttempts int    `yaml:"max_download_attempts"`
	RetryDelaySeconds   int    `yaml:"retry_delay_seconds"`
	ProbeTimeoutSeconds int    `yaml:"probe_timeout_seconds"`
	ArchiveSHA256       string `yaml:"archive_sha256"`
}

// settingsSchema rejects unknown keys and out-of-range values before the
// YAML is decoded into Settings.
const settingsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "workspace_dir":         {"type": "string", "minLength": 1},
    "archive_url":           {"type": "string", "pattern": "^https://"},
    "probe_url":             {"type": "string", "pattern": "^https://"},
    "validate_url":          {"type": "string", "pattern": "^https://"},
    "max_download_attempts": {"type": "integer", "minimum": 1, "maximum": 10},
    "retry_delay_seconds":   {"type": "integer", "minimum": 0, "maximum": 60},
    "probe_timeout_seconds": {"type": "integer", "minimum": 1, "maximum": 60},
    "archive_sha256":        {"type": "string", "pattern": "^[0-9a-fA-F]{64}$"}
  }
}`

// Load reads, schema-validates, and decodes a settings file.
func Load(path string) (*Settings, error) {
	log := logger.Logger()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	if err := validateAgainstSchema(raw); err != nil {
		return nil, fmt.Errorf("settings file %s is invalid: %w", path, err)
	}

	var s Settings
	if err := yamlv3.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode settings file %s: %w", path, err)
	}

	log.Infof("Loaded settings from %s", path)
	return &s, nil
}

func validateAgainstSchema(raw []byte) error {
	jsonBytes, err := sigsyaml.YAMLToJSON(raw)
	if err != nil {
		return fmt.Errorf("converting YAML to JSON: %w", err)
	}

	var doc any
	if err := json.Unmarshal(jsonBytes, &doc); err != nil {
		return fmt.Errorf("parsing settings document: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("settings.schema.json", strings.NewReader(settingsSchema)); err != nil {
		return fmt.Errorf("loading settings schema: %w", err)
	}
	schema, err := compiler.Compile("settings.schema.json")
	if err != nil {
		return fmt.Errorf("compiling settings schema: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return err
	}
	return nil
}
