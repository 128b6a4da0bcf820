package updater

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
)

func commitJSON(t *testing.T, sha string) []byte {
	t.Helper()
	payload := map[string]any{
		"sha": sha,
		"commit": map[string]any{
			"message": "tighten tree rendering",
			"author": map[string]any{
				"name": "upstream dev",
				"date": "2026-08-01T10:00:00Z",
			},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal commit payload: %v", err)
	}
	return raw
}

func updateZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// newTestUpdater serves a commits API and a branch archive from one test
// server, with the repo URL pointed at it so the download URL resolves.
func newTestUpdater(t *testing.T, sha string, archive []byte, mainMissing bool) *Updater {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/commits/main", func(w http.ResponseWriter, r *http.Request) {
		if mainMissing {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(commitJSON(t, sha))
	})
	mux.HandleFunc("/api/commits/master", func(w http.ResponseWriter, r *http.Request) {
		w.Write(commitJSON(t, sha))
	})
	mux.HandleFunc("/archive/refs/heads/main.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	})
	mux.HandleFunc("/archive/refs/heads/master.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	u := New(srv.URL)
	u.APIURL = srv.URL + "/api"
	u.Client = srv.Client()
	u.RetryDelay = time.Millisecond
	return u
}

func TestCheckForUpdatesReportsNewCommit(t *testing.T) {
	u := newTestUpdater(t, "abcdef1234567890", nil, false)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, CommitMarker), []byte("0000000"), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	info, err := u.CheckForUpdates(context.Background(), dir)
	if err != nil {
		t.Fatalf("CheckForUpdates failed: %v", err)
	}
	if info == nil {
		t.Fatal("expected update info for differing SHA")
	}
	if info.SHA != "abcdef1234567890" {
		t.Errorf("SHA = %q", info.SHA)
	}
	if info.Author != "upstream dev" {
		t.Errorf("Author = %q", info.Author)
	}
	if !info.Date.Equal(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", info.Date)
	}
}

func TestCheckForUpdatesUpToDate(t *testing.T) {
	u := newTestUpdater(t, "samesha", nil, false)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, CommitMarker), []byte("samesha\n"), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	info, err := u.CheckForUpdates(context.Background(), dir)
	if err != nil {
		t.Fatalf("CheckForUpdates failed: %v", err)
	}
	if info != nil {
		t.Errorf("expected nil for up-to-date installation, got %+v", info)
	}
}

func TestCheckForUpdatesFallsBackToMaster(t *testing.T) {
	u := newTestUpdater(t, "mastersha", nil, true)

	info, err := u.CheckForUpdates(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("CheckForUpdates failed: %v", err)
	}
	if info == nil || info.SHA != "mastersha" {
		t.Fatalf("expected master fallback, got %+v", info)
	}
	if filepath.Base(info.DownloadURL) != "master.zip" {
		t.Errorf("DownloadURL = %q, want master branch archive", info.DownloadURL)
	}
}

func TestApplyReplacesFilesAndKeepsLocalOnes(t *testing.T) {
	archive := updateZip(t, map[string]string{
		"CursorFocus-main/focus.py": "print('v2')",
		"CursorFocus-main/new.py":   "print('new')",
	})
	u := newTestUpdater(t, "newsha", archive, false)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "focus.py"), []byte("print('v1')"), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GEMINI_API_KEY=AIzaSy-X"), 0600); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	info := &UpdateInfo{SHA: "newsha", DownloadURL: u.RepoURL + "/archive/refs/heads/main.zip"}
	if err := u.Apply(context.Background(), dir, info); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	got, _ := os.ReadFile(filepath.Join(dir, "focus.py"))
	if string(got) != "print('v2')" {
		t.Errorf("focus.py = %q, want updated content", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "new.py")); err != nil {
		t.Errorf("expected new file from update: %v", err)
	}
	cred, _ := os.ReadFile(filepath.Join(dir, ".env"))
	if string(cred) != "GEMINI_API_KEY=AIzaSy-X" {
		t.Errorf("credential file must survive updates, got %q", cred)
	}
	if InstalledCommit(dir) != "newsha" {
		t.Errorf("commit marker = %q, want newsha", InstalledCommit(dir))
	}
}

func TestApplyRestoresBackupOnFailure(t *testing.T) {
	u := newTestUpdater(t, "newsha", nil, false)
	u.MaxAttempts = 1

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "focus.py"), []byte("print('v1')"), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	// Point the download somewhere dead so Apply fails mid-way.
	info := &UpdateInfo{SHA: "newsha", DownloadURL: "https://127.0.0.1:1/nope.zip"}
	if err := u.Apply(context.Background(), dir, info); err == nil {
		t.Fatal("expected Apply to fail")
	}

	got, err := os.ReadFile(filepath.Join(dir, "focus.py"))
	if err != nil {
		t.Fatalf("read restored file: %v", err)
	}
	if string(got) != "print('v1')" {
		t.Errorf("expected restored content, got %q", got)
	}
}

func TestInstalledCommitMissingMarker(t *testing.T) {
	if got := InstalledCommit(t.TempDir()); got != "" {
		t.Errorf("expected empty SHA for missing marker, got %q", got)
	}
}

func TestShortSHA(t *testing.T) {
	if got := shortSHA("abcdef1234567890"); got != "abcdef12" {
		t.Errorf("shortSHA = %q", got)
	}
	if got := shortSHA("abc"); got != "abc" {
		t.Errorf("shortSHA should pass short input through, got %q", got)
	}
}
