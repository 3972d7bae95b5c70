package engine

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"
)

// Source locates the dataset.
type Source struct {
	// URL is an http(s) address or a local path to a zip archive or CSV file.
	URL string
	// File is the archive member holding the table.
	File     string
	Timeout  time.Duration
	MaxBytes int64
}

// LoadError reports why the dataset could not be loaded.
type LoadError struct {
	Stage string // "fetch", "extract" or "parse"
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load dataset (%s): %v", e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load fetches, extracts and parses the dataset. Failures are *LoadError.
func Load(ctx context.Context, src Source) (*ColumnStore, LoadStats, error) {
	raw, err := Fetch(ctx, src)
	if err != nil {
		return nil, LoadStats{}, &LoadError{Stage: "fetch", Err: err}
	}
	table, err := Extract(raw, src.File)
	if err != nil {
		return nil, LoadStats{}, &LoadError{Stage: "extract", Err: err}
	}
	store, stats, err := LoadColumnar(table)
	if err != nil {
		return nil, stats, &LoadError{Stage: "parse", Err: err}
	}
	return store, stats, nil
}

// Fetch reads the raw dataset bytes with a single attempt.
func Fetch(ctx context.Context, src Source) ([]byte, error) {
	maxBytes := src.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 512 << 20
	}
	if !isRemote(src.URL) {
		f, err := os.Open(src.URL)
		if err != nil {
			return nil, fmt.Errorf("open: %w", err)
		}
		defer f.Close()
		return readLimited(f, maxBytes)
	}

	timeout := src.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}
	return readLimited(resp.Body, maxBytes)
}

// Extract returns a reader over the table. Zip payloads are opened and the
// named member extracted; anything else is taken to be the CSV itself.
func Extract(raw []byte, member string) (io.Reader, error) {
	if !bytes.HasPrefix(raw, []byte("PK\x03\x04")) {
		return bytes.NewReader(raw), nil
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != member && path.Base(f.Name) != member {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		return bytes.NewReader(data), nil
	}
	return nil, fmt.Errorf("archive has no member %q", member)
}

func isRemote(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("dataset exceeds %d bytes", maxBytes)
	}
	return data, nil
}
