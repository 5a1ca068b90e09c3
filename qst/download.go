package qst

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const estvBaseURL = "https://www.estv.admin.ch/dam/estv/de/dokumente/qst/schweiz"

// Downloader fetches the yearly tariff archives published by the ESTV. Each
// archive is a zip of per-canton zips holding the tarYYcc.txt files.
type Downloader struct {
	Client  *http.Client
	BaseURL string
	Logger  *zap.Logger
}

func NewDownloader(logger *zap.Logger) *Downloader {
	return &Downloader{
		Client:  &http.Client{Timeout: 2 * time.Minute},
		BaseURL: estvBaseURL,
		Logger:  logger,
	}
}

// ArchiveURL returns the download location for year. The ESTV renamed the
// archives in 2024.
func (d *Downloader) ArchiveURL(year int) string {
	if year < 2024 {
		return fmt.Sprintf("%s/qst-ch-tar%d-de.zip.download.zip/qst-ch-tar%d-de.zip", d.BaseURL, year, year)
	}
	return fmt.Sprintf("%s/tar%d.zip.download.zip/tar%d.zip", d.BaseURL, year, year)
}

// Download fetches the archive for year and extracts every tariff file into
// dir. It returns the paths written.
func (d *Downloader) Download(ctx context.Context, year int, dir string) ([]string, error) {
	url := d.ArchiveURL(year)
	d.Logger.Info("downloading tariff archive", zap.Int("year", year), zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	written, err := extractNested(body, dir)
	if err != nil {
		return nil, err
	}
	d.Logger.Info("tariff files extracted", zap.Int("year", year), zap.Int("files", len(written)))
	return written, nil
}

// extractNested unpacks a zip whose entries are zips themselves.
func extractNested(data []byte, dir string) ([]string, error) {
	outer, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	var written []string
	for _, entry := range outer.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(entry.Name), ".zip") {
			return nil, fmt.Errorf("unexpected archive entry %q", entry.Name)
		}
		inner, err := readEntry(entry)
		if err != nil {
			return nil, err
		}
		files, err := extractFlat(inner, dir)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name, err)
		}
		written = append(written, files...)
	}
	return written, nil
}

func extractFlat(data []byte, dir string) ([]string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	var written []string
	for _, entry := range archive.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		// flatten and keep entries inside dir
		path := filepath.Join(dir, filepath.Base(entry.Name))
		content, err := readEntry(entry)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", entry.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", entry.Name, err)
	}
	return data, nil
}
