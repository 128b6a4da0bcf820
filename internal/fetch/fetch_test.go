package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testOptions(attempts int) Options {
	return Options{
		MaxAttempts: attempts,
		RetryDelay:  time.Millisecond,
	}
}

func TestDownloadFileFirstAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("archive-bytes"))
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "release.zip")
	if err := DownloadFile(context.Background(), srv.URL, dest, testOptions(3)); err != nil {
		t.Fatalf("DownloadFile failed: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(got) != "archive-bytes" {
		t.Errorf("downloaded content = %q, want %q", got, "archive-bytes")
	}
}

func TestDownloadFileRetriesThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("third-time-lucky"))
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "release.zip")
	if err := DownloadFile(context.Background(), srv.URL, dest, testOptions(3)); err != nil {
		t.Fatalf("DownloadFile failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", calls)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(got) != "third-time-lucky" {
		t.Errorf("downloaded content = %q", got)
	}
}

func TestDownloadFileExhaustsRetryBudget(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "release.zip")
	err := DownloadFile(context.Background(), srv.URL, dest, testOptions(3))
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", calls)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("no partial file may remain after a failed download")
	}
}

func TestDownloadFileHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dest := filepath.Join(t.TempDir(), "release.zip")
	if err := DownloadFile(ctx, srv.URL, dest, testOptions(3)); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestProbeReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	if err := Probe(context.Background(), srv.URL, 2*time.Second); err != nil {
		t.Fatalf("Probe failed against live server: %v", err)
	}
}

func TestProbeCountsAnyResponseAsReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	t.Cleanup(srv.Close)

	if err := Probe(context.Background(), srv.URL, 2*time.Second); err != nil {
		t.Fatalf("Probe should treat any HTTP response as reachable: %v", err)
	}
}

func TestProbeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	if err := Probe(context.Background(), url, 500*time.Millisecond); err == nil {
		t.Fatal("expected error for dead endpoint")
	}
}

func TestVerifySHA256(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact")
	content := []byte("verify me")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	sum := sha256.Sum256(content)
	want := hex.EncodeToString(sum[:])

	if err := VerifySHA256(path, want); err != nil {
		t.Fatalf("VerifySHA256 failed on matching digest: %v", err)
	}
	if err := VerifySHA256(path, "deadbeef"); err == nil {
		t.Fatal("expected error for mismatched digest")
	}
}
