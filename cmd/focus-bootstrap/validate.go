package main

import (
	"github.com/spf13/cobra"

	"github.com/cursorfocus/focus-bootstrap/internal/config"
	"github.com/cursorfocus/focus-bootstrap/internal/utils/logger"
)

// createValidateCommand creates the validate subcommand
func createValidateCommand() *cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate [flags] SETTINGS_FILE",
		Short: "Validate a settings file",
		Long: `Validate a YAML settings file against the schema without running the
installer. This allows checking for errors in overrides before starting
a full install.`,
		Args: cobra.ExactArgs(1),
		RunE: executeValidate,
	}

	return validateCmd
}

// executeValidate handles the validate command logic
func executeValidate(cmd *cobra.Command, args []string) error {
	settingsPath := args[0]

	if _, err := config.Load(settingsPath); err != nil {
		return err
	}

	logger.Logger().Infof("Settings file %s is valid", settingsPath)
	return nil
}
