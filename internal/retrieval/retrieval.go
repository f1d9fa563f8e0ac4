package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"uplink/internal/services"
)

// Materializer copies or downloads an asset's bytes into a destination
// directory and returns the resulting file name. The pipeline treats it as
// opaque beyond success or failure.
type Materializer interface {
	Materialize(ctx context.Context, sourceRef, destDir string) (string, error)
}

// NewCopier returns a Materializer that copies files from a local source
// directory, the offline equivalent of a download: the file named by the
// last path segment of sourceRef must already exist under sourceDir.
func NewCopier(sourceDir string) Materializer {
	return &copier{sourceDir: sourceDir}
}

type copier struct {
	sourceDir string
}

func (c *copier) Materialize(_ context.Context, sourceRef, destDir string) (string, error) {
	filename := Filename(sourceRef)
	if filename == "" {
		return "", services.Wrap(services.ErrValidation, "retrieval", "copy", "empty source reference", nil)
	}

	src := filepath.Join(c.sourceDir, filename)
	if err := copyFile(src, filepath.Join(destDir, filename)); err != nil {
		return "", services.Wrap(services.ErrRetrieval, "retrieval", "copy", filename, err)
	}
	return filename, nil
}

// NewDownloader returns a Materializer that fetches sourceRef over HTTP and
// writes it into the destination directory.
func NewDownloader(timeout time.Duration) Materializer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &downloader{client: &http.Client{Timeout: timeout}}
}

type downloader struct {
	client *http.Client
}

func (d *downloader) Materialize(ctx context.Context, sourceRef, destDir string) (string, error) {
	filename := Filename(sourceRef)
	if filename == "" {
		return "", services.Wrap(services.ErrValidation, "retrieval", "download", "empty source reference", nil)
	}
	if err := d.fetch(ctx, sourceRef, filepath.Join(destDir, filename)); err != nil {
		return "", services.Wrap(services.ErrRetrieval, "retrieval", "download", sourceRef, err)
	}
	return filename, nil
}

func (d *downloader) fetch(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return err
	}
	return out.Close()
}

// NewOriginalDownloader returns a Materializer that resolves the
// full-resolution original behind an asset href: the href's directory holds
// a metadata.json whose File:FileName entry names the original to fetch.
func NewOriginalDownloader(timeout time.Duration) Materializer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &originalDownloader{downloader{client: &http.Client{Timeout: timeout}}}
}

type originalDownloader struct {
	downloader
}

func (d *originalDownloader) Materialize(ctx context.Context, sourceRef, destDir string) (string, error) {
	baseURL := refBase(sourceRef)
	if baseURL == "" {
		return "", services.Wrap(services.ErrValidation, "retrieval", "resolve original", "unparseable source reference", nil)
	}

	filename, err := d.originalFilename(ctx, baseURL+"/metadata.json")
	if err != nil {
		return "", services.Wrap(services.ErrRetrieval, "retrieval", "resolve original", sourceRef, err)
	}
	if err := d.fetch(ctx, baseURL+"/"+filename, filepath.Join(destDir, filename)); err != nil {
		return "", services.Wrap(services.ErrRetrieval, "retrieval", "download original", filename, err)
	}
	return filename, nil
}

func (d *originalDownloader) originalFilename(ctx context.Context, metaURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metaURL, nil)
	if err != nil {
		return "", fmt.Errorf("build metadata request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metadata status %d", resp.StatusCode)
	}

	var metadata map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return "", fmt.Errorf("decode metadata: %w", err)
	}
	filename, _ := metadata["File:FileName"].(string)
	if strings.TrimSpace(filename) == "" {
		return "", fmt.Errorf("metadata missing File:FileName")
	}
	return filename, nil
}

// Filename extracts the file name a source reference materializes as: the
// last path segment of the URL or path.
func Filename(sourceRef string) string {
	trimmed := strings.TrimSpace(sourceRef)
	if trimmed == "" {
		return ""
	}
	if parsed, err := url.Parse(trimmed); err == nil && parsed.Path != "" {
		return path.Base(parsed.Path)
	}
	return path.Base(trimmed)
}

func refBase(sourceRef string) string {
	trimmed := strings.TrimSpace(sourceRef)
	if trimmed == "" {
		return ""
	}
	idx := strings.LastIndex(trimmed, "/")
	if idx <= 0 {
		return ""
	}
	return trimmed[:idx]
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return err
	}
	return out.Close()
}
