package loader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/wonny/loanqa/pkg/httputil"
	"github.com/wonny/loanqa/pkg/logger"
)

// ErrNoSource is returned when no base URL is configured
var ErrNoSource = errors.New("source base URL not configured")

// Fetcher downloads source files from a remote directory
type Fetcher struct {
	client  *httputil.Client
	baseURL string
	logger  *logger.Logger
}

// NewFetcher creates a fetcher. Rate limiting and retries come from client.
func NewFetcher(client *httputil.Client, baseURL string, log *logger.Logger) *Fetcher {
	return &Fetcher{
		client:  client,
		baseURL: baseURL,
		logger:  log,
	}
}

// Fetch downloads name into dstDir and returns the local path.
// The file is written under a temporary name and renamed once complete.
func (f *Fetcher) Fetch(ctx context.Context, name, dstDir string) (string, error) {
	if f.baseURL == "" {
		return "", ErrNoSource
	}

	src, err := url.JoinPath(f.baseURL, name)
	if err != nil {
		return "", fmt.Errorf("build url for %s: %w", name, err)
	}

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dstDir, err)
	}

	dst := filepath.Join(dstDir, name)
	tmp, err := os.CreateTemp(dstDir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after rename

	start := time.Now()
	n, err := f.client.Download(ctx, src, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("move %s into place: %w", name, err)
	}

	f.logger.WithFields(map[string]interface{}{
		"file":     name,
		"bytes":    n,
		"duration": time.Since(start),
	}).Info("Source file fetched")

	return dst, nil
}

// FetchAll downloads every file in order, stopping at the first failure
func (f *Fetcher) FetchAll(ctx context.Context, dstDir string, names ...string) ([]string, error) {
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path, err := f.Fetch(ctx, name, dstDir)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
