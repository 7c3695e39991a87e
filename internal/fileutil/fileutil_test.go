package fileutil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFileCreatesDestinationDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	dst := filepath.Join(dir, "nested", "session", "background.mp3")

	if err := os.WriteFile(src, []byte("music"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "music" {
		t.Fatalf("content mismatch: got %q", got)
	}
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyFile(filepath.Join(dir, "missing"), filepath.Join(dir, "out"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestEnsureDirIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	for i := 0; i < 2; i++ {
		if err := EnsureDir(dir); err != nil {
			t.Fatalf("EnsureDir call %d: %v", i, err)
		}
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory, got %v %v", info, err)
	}
	if err := EnsureDir(" "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestWriteFileAndExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x", "script.txt")
	if Exists(path) {
		t.Fatal("file should not exist yet")
	}
	if err := WriteFile(path, []byte("hi")); err != nil {
		t.Fatal(err)
	}
	if !Exists(path) {
		t.Fatal("expected file to exist")
	}
	if Exists(filepath.Dir(path)) {
		t.Fatal("directories are not regular files")
	}
}

func TestHTTPFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(0)
	body, err := fetcher.Fetch(context.Background(), server.URL+"/img.png")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != "png-bytes" {
		t.Fatalf("unexpected body %q", body)
	}

	_, err = fetcher.Fetch(context.Background(), server.URL+"/missing")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
}

func TestSanitizeSegment(t *testing.T) {
	tests := map[string]string{
		"20260314_092653": "20260314_092653",
		"  abc-1 ":        "abc-1",
		"../../etc":       "etc",
		"a/b":             "a_b",
		"...":             "",
		"":                "",
	}
	for input, want := range tests {
		if got := SanitizeSegment(input); got != want {
			t.Fatalf("SanitizeSegment(%q) = %q, want %q", input, got, want)
		}
	}
}
