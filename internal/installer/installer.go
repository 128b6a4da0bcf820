package installer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cursorfocus/focus-bootstrap/internal/config"
	"github.com/cursorfocus/focus-bootstrap/internal/credential"
	"github.com/cursorfocus/focus-bootstrap/internal/deps"
	"github.com/cursorfocus/focus-bootstrap/internal/fetch"
	"github.com/cursorfocus/focus-bootstrap/internal/prereq"
	"github.com/cursorfocus/focus-bootstrap/internal/ui"
	"github.com/cursorfocus/focus-bootstrap/internal/utils/logger"
	"github.com/cursorfocus/focus-bootstrap/internal/utils/system"
	"github.com/cursorfocus/focus-bootstrap/internal/workspace"
)

const (
	// Product is the name of the installed project and its workspace folder.
	Product = "CursorFocus"
	// DefaultArchiveURL is the fixed release archive.
	DefaultArchiveURL = "https://github.com/RenjiYuusei/CursorFocus/archive/refs/heads/main.zip"
	// DefaultProbeURL is the well-known host used for the reachability check.
	DefaultProbeURL = "https://www.google.com"
)

// Config is the explicit value object threaded through every phase.
// Constructed once at the start of a run; phases never consult ambient
// state such as environment variables or the working directory.
type Config struct {
	WorkspaceDir        string
	ArchiveURL          string
	ProbeURL            string
	ValidateURL         string
	ArchiveSHA256       string
	MaxDownloadAttempts int
	RetryDelay          time.Duration
	ProbeTimeout        time.Duration
	MinPython           prereq.Version
	Manifest            string
	// AssumeYes skips the open-file-browser prompt at the end.
	AssumeYes bool
	// ShowProgress renders a download progress bar.
	ShowProgress bool
}

// DefaultConfig returns the stock configuration targeting
// <home>/Downloads/CursorFocus.
func DefaultConfig() (Config, error) {
	dir, err := workspace.DefaultDir(Product)
	if err != nil {
		return Config{}, err
	}
	return Config{
		WorkspaceDir:        dir,
		ArchiveURL:          DefaultArchiveURL,
		ProbeURL:            DefaultProbeURL,
		ValidateURL:         credential.DefaultValidateURL,
		MaxDownloadAttempts: 3,
		RetryDelay:          2 * time.Second,
		ProbeTimeout:        5 * time.Second,
		MinPython:           prereq.MinPythonVersion,
		Manifest:            deps.DefaultManifest,
		ShowProgress:        true,
	}, nil
}

// ApplySettings overlays non-zero values from a loaded settings file.
func (c Config) ApplySettings(s *config.Settings) Config {
	if s == nil {
		return c
	}
	if s.WorkspaceDir != "" {
		c.WorkspaceDir = s.WorkspaceDir
	}
	if s.ArchiveURL != "" {
		c.ArchiveURL = s.ArchiveURL
	}
	if s.ProbeURL != "" {
		c.ProbeURL = s.ProbeURL
	}
	if s.ValidateURL != "" {
		c.ValidateURL = s.ValidateURL
	}
	if s.ArchiveSHA256 != "" {
		c.ArchiveSHA256 = s.ArchiveSHA256
	}
	if s.MaxDownloadAttempts > 0 {
		c.MaxDownloadAttempts = s.MaxDownloadAttempts
	}
	if s.RetryDelaySeconds > 0 {
		c.RetryDelay = time.Duration(s.RetryDelaySeconds) * time.Second
	}
	if s.ProbeTimeoutSeconds > 0 {
		c.ProbeTimeout = time.Duration(s.ProbeTimeoutSeconds) * time.Second
	}
	return c
}

// Installer runs the bootstrap workflow: nine ordered phases, each gating
// the next. The only loops are the bounded download retry and the
// unbounded credential prompt.
type Installer struct {
	cfg     Config
	console *ui.Console

	// Seams for tests; production wiring in New.
	httpClient  *http.Client
	validator   credential.Validator
	checkPython func(min prereq.Version) (string, prereq.Version, error)
	installDeps func(workDir, interp, manifest string) error
	openBrowser func(dir string) error
}

func New(cfg Config, console *ui.Console) *Installer {
	v := credential.NewGeminiValidator()
	if cfg.ValidateURL != "" {
		v.URL = cfg.ValidateURL
	}
	return &Installer{
		cfg:         cfg,
		console:     console,
		validator:   v,
		checkPython: prereq.CheckPython,
		installDeps: deps.InstallRequirements,
		openBrowser: system.OpenFileBrowser,
	}
}

// Run executes the workflow. Any returned error means the run aborted;
// the caller maps that to exit code 1. No cleanup is performed on abort:
// a half-built workspace is left for the next (destructive) run to clear.
func (ins *Installer) Run(ctx context.Context) error {
	log := logger.Logger()
	cfg := ins.cfg

	// Phase 1: prerequisite check, before any network or filesystem action.
	ins.console.Info("Checking Python installation")
	interp, version, err := ins.checkPython(cfg.MinPython)
	if err != nil {
		ins.console.Error("Python check failed: %v", err)
		return fmt.Errorf("prerequisite check failed: %w", err)
	}
	ins.console.Success("Python %s found (%s)", version, interp)

	// Phase 2: destructive workspace preparation.
	ins.console.Info("Preparing workspace at %s", cfg.WorkspaceDir)
	if err := workspace.Prepare(cfg.WorkspaceDir); err != nil {
		ins.console.Error("Workspace preparation failed: %v", err)
		return err
	}

	// Phase 3: connectivity probe, so a dead network fails fast instead of
	// eating the download retry budget.
	ins.console.Info("Checking internet connection")
	if err := fetch.Probe(ctx, cfg.ProbeURL, cfg.ProbeTimeout); err != nil {
		ins.console.Error("No internet connection: %v", err)
		return err
	}

	// Phase 4: archive acquisition with bounded retry.
	archivePath := filepath.Join(cfg.WorkspaceDir, archiveName(cfg.ArchiveURL))
	ins.console.Info("Downloading %s", Product)
	err = fetch.DownloadFile(ctx, cfg.ArchiveURL, archivePath, fetch.Options{
		Client:       ins.httpClient,
		MaxAttempts:  cfg.MaxDownloadAttempts,
		RetryDelay:   cfg.RetryDelay,
		ShowProgress: cfg.ShowProgress,
	})
	if err != nil {
		ins.console.Error("Download failed: %v", err)
		return err
	}

	if cfg.ArchiveSHA256 != "" {
		if err := fetch.VerifySHA256(archivePath, cfg.ArchiveSHA256); err != nil {
			ins.console.Error("Archive verification failed: %v", err)
			return err
		}
	}

	// Phase 5: unpack and flatten, then drop the archive.
	ins.console.Info("Extracting files")
	if err := workspace.Extract(archivePath, cfg.WorkspaceDir); err != nil {
		ins.console.Error("Extraction failed: %v", err)
		return err
	}
	if err := workspace.Flatten(cfg.WorkspaceDir, filepath.Base(archivePath)); err != nil {
		ins.console.Error("Extraction failed: %v", err)
		return err
	}
	if err := os.Remove(archivePath); err != nil {
		log.Warnf("Failed to remove archive %s: %v", archivePath, err)
	}

	// Phase 6: credential acquisition and validation loop.
	collector := credential.NewCollector(ins.console, ins.validator)
	key, err := collector.Collect(ctx)
	if err != nil {
		ins.console.Error("Could not obtain a valid API key: %v", err)
		return err
	}

	// Phase 7: credential persistence.
	if _, err := credential.Persist(cfg.WorkspaceDir, credential.DefaultKeyName, key); err != nil {
		ins.console.Error("Failed to save API key: %v", err)
		return err
	}

	// Phase 8: dependency installation. A failure here is surfaced but
	// does not abort: the files and credential are already in place and
	// the operator can rerun pip by hand.
	ins.console.Info("Installing dependencies")
	if err := ins.installDeps(cfg.WorkspaceDir, interp, cfg.Manifest); err != nil {
		log.Warnf("Dependency installation did not complete: %v", err)
		ins.console.Warn("Dependency installation did not complete: %v", err)
		ins.console.Warn("Run '%s install -r %s' in %s to finish it manually",
			"pip", cfg.Manifest, cfg.WorkspaceDir)
	}

	// Phase 9: completion report and optional convenience action.
	ins.console.Banner(Product+" installed successfully",
		"Location: "+cfg.WorkspaceDir,
		"Next: cd "+cfg.WorkspaceDir+" && "+interp+" focus.py",
	)

	if !cfg.AssumeYes {
		open, err := ins.console.Confirm("Open the installation folder now?")
		if err == nil && open {
			if err := ins.openBrowser(cfg.WorkspaceDir); err != nil {
				log.Warnf("Could not open file browser: %v", err)
			}
		}
	}

	return nil
}

// archiveName derives the local filename from the archive URL.
func archiveName(rawURL string) string {
	name := ""
	if u, err := url.Parse(rawURL); err == nil {
		name = path.Base(u.Path)
	}
	if name == "." || name == "/" || name == "" {
		return "release.zip"
	}
	return name
}
