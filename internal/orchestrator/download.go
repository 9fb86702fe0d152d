package orchestrator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// downloader fetches a generated video from the provider's delivery URL to a
// local file. Abstracted so pipeline tests run without network access.
type downloader interface {
	Download(ctx context.Context, url, destPath string) error
}

// httpDownloader is the production downloader backed by net/http.
type httpDownloader struct {
	client *http.Client
}

func newHTTPDownloader(timeout time.Duration) *httpDownloader {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &httpDownloader{
		client: &http.Client{Timeout: timeout},
	}
}

// Download streams the remote file to destPath, creating parent directories
// as needed. A partial file left behind by a failed copy is removed.
func (d *httpDownloader) Download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %d", url, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(destPath)
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	return nil
}
