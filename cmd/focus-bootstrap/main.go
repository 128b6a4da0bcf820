package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cursorfocus/focus-bootstrap/internal/config"
	"github.com/cursorfocus/focus-bootstrap/internal/installer"
	"github.com/cursorfocus/focus-bootstrap/internal/ui"
	"github.com/cursorfocus/focus-bootstrap/internal/utils/logger"
)

// version is stamped at build time via -ldflags.
var version = "dev"

var (
	logLevel string
	verbose  bool
)

func main() {
	root := createRootCommand()
	if err := root.Execute(); err != nil {
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

// createRootCommand builds the command tree.
func createRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "focus-bootstrap",
		Short: "installs and updates CursorFocus",
		Long: `focus-bootstrap brings a fresh machine from nothing installed to a
runnable local CursorFocus copy with a validated Gemini API key, and can
later update that installation in place from the upstream repository.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, or error")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false,
		"Shorthand for --log-level debug")

	root.AddCommand(createInstallCommand())
	root.AddCommand(createUpdateCommand())
	root.AddCommand(createValidateCommand())
	root.AddCommand(createVersionCommand())

	attachLoggingHooks(root)
	return root
}

// resolveRequestedLogLevel prefers an explicit --log-level, then falls
// back to --verbose when that flag was actually set.
func resolveRequestedLogLevel(cmd *cobra.Command) string {
	if logLevel != "" {
		return logLevel
	}
	if cmd == nil {
		return ""
	}
	if flagBoolSet(cmd.Flags(), "verbose") {
		return "debug"
	}
	return ""
}

// flagBoolSet reports whether a bool flag exists, was set, and is true.
func flagBoolSet(flags *pflag.FlagSet, name string) bool {
	f := flags.Lookup(name)
	if f == nil || !f.Changed {
		return false
	}
	v, err := flags.GetBool(name)
	return err == nil && v
}

// attachLoggingHooks initializes the logger before any subcommand runs.
func attachLoggingHooks(root *cobra.Command) {
	for _, cmd := range root.Commands() {
		cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
			level := resolveRequestedLogLevel(cmd)
			if level == "" {
				level = "info"
			}
			return logger.Init(level)
		}
	}
}

// signalContext returns a context canceled on SIGINT/SIGTERM. This is the
// out-of-band escape hatch for the otherwise unbounded credential prompt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func createInstallCommand() *cobra.Command {
	var (
		installDir   string
		archiveURL   string
		sha256Sum    string
		settingsPath string
		assumeYes    bool
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "runs the full bootstrap workflow",
		Long: `Install checks the host Python, prepares the workspace under
~/Downloads, downloads and extracts the latest CursorFocus release,
collects and validates a Gemini API key, persists it, and installs the
Python dependencies.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := installer.DefaultConfig()
			if err != nil {
				return err
			}

			if settingsPath != "" {
				settings, err := config.Load(settingsPath)
				if err != nil {
					return err
				}
				cfg = cfg.ApplySettings(settings)
			}

			if installDir != "" {
				cfg.WorkspaceDir = installDir
			}
			if archiveURL != "" {
				cfg.ArchiveURL = archiveURL
			}
			if sha256Sum != "" {
				cfg.ArchiveSHA256 = sha256Sum
			}
			cfg.AssumeYes = assumeYes

			ctx, cancel := signalContext()
			defer cancel()

			return installer.New(cfg, ui.Default()).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&installDir, "dir", "",
		"Installation directory (default: ~/Downloads/CursorFocus)")
	cmd.Flags().StringVar(&archiveURL, "archive-url", "",
		"Release archive URL override")
	cmd.Flags().StringVar(&sha256Sum, "sha256", "",
		"Expected SHA-256 of the archive; verified before extraction when set")
	cmd.Flags().StringVar(&settingsPath, "config", "",
		"YAML settings file with workflow overrides")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false,
		"Skip the open-folder prompt at the end")
	return cmd
}

func createUpdateCommand() *cobra.Command {
	var (
		installDir  string
		keepBackups bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "updates an existing installation in place",
		Long: `Update compares the installed commit against the upstream repository
and, on confirmation, downloads the latest branch archive, backs up the
installation, and replaces its files. Locally created files such as the
credential file survive. On failure the backup is restored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(installDir, keepBackups, ui.Default())
		},
	}

	cmd.Flags().StringVar(&installDir, "dir", "",
		"Installation directory (default: ~/Downloads/CursorFocus)")
	cmd.Flags().BoolVar(&keepBackups, "keep-backup", false,
		"Keep the pre-update backup after a successful update")
	return cmd
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "prints the tool version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("focus-bootstrap %s\n", version)
		},
	}
}
