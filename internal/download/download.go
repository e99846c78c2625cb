// Package download saves resolved media assets to disk.
// Output paths are validated against directory traversal and files are
// written atomically (temp file, then rename).
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"tiksnap/internal/httputil"
	"tiksnap/internal/relay"
)

// Progress is called after each chunk with the bytes written so far.
type Progress func(written int64)

// Save streams one asset into outputDir and returns the final path.
func Save(ctx context.Context, c *http.Client, asset relay.Asset, outputDir string, progress Progress) (string, error) {
	absDir, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	outputPath, err := httputil.SafeDownloadPath(absDir, asset.Filename)
	if err != nil {
		return "", fmt.Errorf("invalid output path: %w", err)
	}

	body, err := httputil.Open(ctx, c, asset.Source, http.Header{"Referer": {"https://www.tiktok.com/"}})
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", asset.Label, err)
	}
	defer body.Close()

	tmp, err := os.CreateTemp(absDir, ".tiksnap-*.part")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	var w io.Writer = tmp
	if progress != nil {
		w = &countingWriter{w: tmp, fn: progress}
	}
	if _, err := io.Copy(w, body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing %s: %w", asset.Label, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming download: %w", err)
	}
	return outputPath, nil
}

// SaveAll downloads every asset in order and stops at the first failure.
func SaveAll(ctx context.Context, c *http.Client, assets []relay.Asset, outputDir string) ([]string, error) {
	var paths []string
	for _, a := range assets {
		p, err := Save(ctx, c, a, outputDir, nil)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

type countingWriter struct {
	w  io.Writer
	n  int64
	fn Progress
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.fn(c.n)
	return n, err
}
