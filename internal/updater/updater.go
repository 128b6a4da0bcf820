package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cursorfocus/focus-bootstrap/internal/fetch"
	"github.com/cursorfocus/focus-bootstrap/internal/utils/logger"
	"github.com/cursorfocus/focus-bootstrap/internal/utils/network"
	"github.com/cursorfocus/focus-bootstrap/internal/workspace"
)

const (
	// DefaultRepoURL is the upstream project repository.
	DefaultRepoURL = "https://github.com/RenjiYuusei/CursorFocus"
	// CommitMarker records the SHA of the currently installed commit at
	// the workspace root.
	CommitMarker = ".current_commit"
)

// UpdateInfo describes an available update.
type UpdateInfo struct {
	SHA         string
	Message     string
	Author      string
	Date        time.Time
	DownloadURL string
}

// commitResponse is the subset of the forge commits API we read.
type commitResponse struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string `json:"name"`
			Date string `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// Updater checks the upstream repository for new commits and replaces an
// installation in place, with a backup taken first so a failed update can
// be rolled back.
type Updater struct {
	RepoURL string
	// APIURL overrides the derived commits endpoint, for tests.
	APIURL      string
	Client      *http.Client
	MaxAttempts int
	RetryDelay  time.Duration
	// KeepBackups leaves the pre-update backup in place after success.
	KeepBackups bool
}

func New(repoURL string) *Updater {
	if repoURL == "" {
		repoURL = DefaultRepoURL
	}
	return &Updater{
		RepoURL:     repoURL,
		Client:      network.NewSecureHTTPClient(),
		MaxAttempts: 3,
		RetryDelay:  2 * time.Second,
	}
}

func (u *Updater) apiURL() string {
	if u.APIURL != "" {
		return u.APIURL
	}
	return strings.Replace(u.RepoURL, "github.com", "api.github.com/repos", 1)
}

// InstalledCommit reads the commit marker; empty when absent.
func InstalledCommit(installDir string) string {
	raw, err := os.ReadFile(filepath.Join(installDir, CommitMarker))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

// CheckForUpdates returns the latest upstream commit when it differs from
// the installed one, or nil when the installation is current.
func (u *Updater) CheckForUpdates(ctx context.Context, installDir string) (*UpdateInfo, error) {
	log := logger.Logger()

	latest, branch, err := u.latestCommit(ctx)
	if err != nil {
		return nil, err
	}

	installed := InstalledCommit(installDir)
	if latest.SHA == installed {
		log.Infof("Installation is up to date (%s)", shortSHA(installed))
		return nil, nil
	}

	date, err := time.Parse(time.RFC3339, latest.Commit.Author.Date)
	if err != nil {
		// The date is informational; a parse failure must not block updates.
		date = time.Time{}
	}

	return &UpdateInfo{
		SHA:         latest.SHA,
		Message:     latest.Commit.Message,
		Author:      latest.Commit.Author.Name,
		Date:        date,
		DownloadURL: fmt.Sprintf("%s/archive/refs/heads/%s.zip", u.RepoURL, branch),
	}, nil
}

// latestCommit queries the commits endpoint, trying main then master.
func (u *Updater) latestCommit(ctx context.Context) (*commitResponse, string, error) {
	for _, branch := range []string{"main", "master"} {
		url := fmt.Sprintf("%s/commits/%s", u.apiURL(), branch)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, "", fmt.Errorf("failed to build commits request: %w", err)
		}

		resp, err := u.Client.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("failed to query %s: %w", url, err)
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("commits query returned %s", resp.Status)
		}
		if readErr != nil {
			return nil, "", fmt.Errorf("failed to read commits response: %w", readErr)
		}

		var commit commitResponse
		if err := json.Unmarshal(body, &commit); err != nil {
			return nil, "", fmt.Errorf("failed to decode commits response: %w", err)
		}
		return &commit, branch, nil
	}
	return nil, "", fmt.Errorf("no main or master branch found at %s", u.apiURL())
}

// Apply downloads and installs the update. The installation is backed up
// first; on any failure the backup is restored. On success the commit
// marker is rewritten and the backup removed unless KeepBackups is set.
func (u *Updater) Apply(ctx context.Context, installDir string, info *UpdateInfo) error {
	log := logger.Logger()

	backupDir, err := u.backup(installDir)
	if err != nil {
		return fmt.Errorf("refusing to update without a backup: %w", err)
	}

	if err := u.applyNoRollback(ctx, installDir, info); err != nil {
		log.Warnf("Update failed, restoring from backup: %v", err)
		if restoreErr := copyTree(backupDir, installDir); restoreErr != nil {
			return fmt.Errorf("update failed (%v) and restore failed: %w", err, restoreErr)
		}
		return err
	}

	if u.KeepBackups {
		log.Infof("Update complete, backup kept at %s", backupDir)
		return nil
	}
	if err := os.RemoveAll(backupDir); err != nil {
		log.Warnf("Failed to remove backup %s: %v", backupDir, err)
	}
	log.Infof("Updated to %s", shortSHA(info.SHA))
	return nil
}

func (u *Updater) applyNoRollback(ctx context.Context, installDir string, info *UpdateInfo) error {
	stageDir, err := os.MkdirTemp("", "focus-update-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stageDir)

	archivePath := filepath.Join(stageDir, "update.zip")
	err = fetch.DownloadFile(ctx, info.DownloadURL, archivePath, fetch.Options{
		Client:      u.Client,
		MaxAttempts: u.MaxAttempts,
		RetryDelay:  u.RetryDelay,
	})
	if err != nil {
		return err
	}

	extractDir := filepath.Join(stageDir, "extracted")
	if err := workspace.Extract(archivePath, extractDir); err != nil {
		return err
	}
	if err := workspace.Flatten(extractDir); err != nil {
		return err
	}

	// Copy over the installation. Files only present locally (.env, the
	// commit marker) survive because this is a merge, not a replace.
	if err := copyTree(extractDir, installDir); err != nil {
		return err
	}

	marker := filepath.Join(installDir, CommitMarker)
	if err := os.WriteFile(marker, []byte(info.SHA), 0644); err != nil {
		return fmt.Errorf("failed to record installed commit: %w", err)
	}
	return nil
}

// backup copies the installation into a uniquely named temp directory.
func (u *Updater) backup(installDir string) (string, error) {
	backupDir := filepath.Join(os.TempDir(), "focus-backup-"+uuid.NewString())
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if err := copyTree(installDir, backupDir); err != nil {
		os.RemoveAll(backupDir)
		return "", err
	}
	logger.Logger().Infof("Backed up installation to %s", backupDir)
	return backupDir, nil
}

// copyTree copies src into dst recursively, overwriting existing files.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()

		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
		if err != nil {
			return err
		}
		defer out.Close()

		_, err = io.Copy(out, in)
		return err
	})
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
