package clients

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StorageClient stores generated export files on local disk and serves them
// under a public URL prefix.
type StorageClient struct {
	BaseDir      string // directory files are written to
	PublicPrefix string // URL prefix where files are served, e.g. "/files"
	BaseURL      string // optional absolute base URL (scheme+host[:port])
}

// NewLocalStorage creates a storage client; baseDir is created if missing.
func NewLocalStorage(baseDir, publicPrefix, baseURL string) (*StorageClient, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if publicPrefix == "" {
		publicPrefix = "/files"
	}

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure storage dir %q: %w", baseDir, err)
	}

	return &StorageClient{BaseDir: baseDir, PublicPrefix: publicPrefix, BaseURL: baseURL}, nil
}

// Save writes data under a random-prefixed filename (the prefix avoids
// collisions, the original name survives as the suffix) and returns the
// stored name.
func (s *StorageClient) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	// Base() strips any path traversal from the provided name.
	fileName = filepath.Base(fileName)

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return "", fmt.Errorf("failed to generate file name: %w", err)
	}
	final := fmt.Sprintf("%s_%s", hex.EncodeToString(randBytes), fileName)

	path := filepath.Join(s.BaseDir, final)
	// Write to a temp file first so a partially written export is never
	// visible under its final name.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize file: %w", err)
	}

	return final, nil
}

// GetURL returns the public URL for a stored file: absolute when BaseURL is
// configured, relative (PublicPrefix/name) otherwise.
func (s *StorageClient) GetURL(fileName string) string {
	prefix := s.PublicPrefix
	if prefix == "" {
		prefix = "/files"
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}

	if s.BaseURL != "" {
		return fmt.Sprintf("%s%s/%s", strings.TrimSuffix(s.BaseURL, "/"), prefix, fileName)
	}
	return fmt.Sprintf("%s/%s", prefix, fileName)
}

// CleanupOlderThan deletes stored files older than d. Exports are throwaway
// artifacts; clients are expected to download them promptly.
func (s *StorageClient) CleanupOlderThan(d time.Duration) error {
	now := time.Now()
	return filepath.WalkDir(s.BaseDir, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() {
			return nil
		}
		info, err := de.Info()
		if err != nil {
			return nil
		}
		if now.Sub(info.ModTime()) > d {
			_ = os.Remove(path) // best-effort
		}
		return nil
	})
}
