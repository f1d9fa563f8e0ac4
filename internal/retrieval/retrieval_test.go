package retrieval_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"uplink/internal/retrieval"
)

func TestCopierMaterializesByRefFilename(t *testing.T) {
	sourceDir := t.TempDir()
	destDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(sourceDir, "a1~thumb.png"), []byte("pixels"), 0o644); err != nil {
		t.Fatal(err)
	}

	copier := retrieval.NewCopier(sourceDir)
	name, err := copier.Materialize(context.Background(), "https://assets.example.com/image/a1/a1~thumb.png", destDir)
	if err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	if name != "a1~thumb.png" {
		t.Fatalf("unexpected file name %q", name)
	}
	copied, err := os.ReadFile(filepath.Join(destDir, name))
	if err != nil || string(copied) != "pixels" {
		t.Fatalf("copied content mismatch: %q, %v", copied, err)
	}
}

func TestCopierFailsWhenSourceMissing(t *testing.T) {
	copier := retrieval.NewCopier(t.TempDir())
	if _, err := copier.Materialize(context.Background(), "nope.png", t.TempDir()); err == nil {
		t.Fatal("expected error for missing source file")
	}
}

func TestDownloaderFetchesOverHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/image/a1/a1~thumb.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("pixels"))
	}))
	defer server.Close()

	destDir := t.TempDir()
	dl := retrieval.NewDownloader(5 * time.Second)
	name, err := dl.Materialize(context.Background(), server.URL+"/image/a1/a1~thumb.png", destDir)
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	fetched, err := os.ReadFile(filepath.Join(destDir, name))
	if err != nil || string(fetched) != "pixels" {
		t.Fatalf("downloaded content mismatch: %q, %v", fetched, err)
	}
}

func TestOriginalDownloaderResolvesMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/image/a1/metadata.json":
			_ = json.NewEncoder(w).Encode(map[string]any{"File:FileName": "a1~orig.tif"})
		case "/image/a1/a1~orig.tif":
			_, _ = w.Write([]byte("full resolution"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	destDir := t.TempDir()
	dl := retrieval.NewOriginalDownloader(5 * time.Second)
	name, err := dl.Materialize(context.Background(), server.URL+"/image/a1/a1~thumb.png", destDir)
	if err != nil {
		t.Fatalf("original download failed: %v", err)
	}
	if name != "a1~orig.tif" {
		t.Fatalf("unexpected original name %q", name)
	}
	fetched, err := os.ReadFile(filepath.Join(destDir, name))
	if err != nil || string(fetched) != "full resolution" {
		t.Fatalf("original content mismatch: %q, %v", fetched, err)
	}
}
