// Package storage persists uploaded listing images on the local filesystem.
//
// Images live under a public uploads directory and are referenced from
// listings by relative path ("uploads/<name>"), so the rows stay valid if the
// directory is mounted or served from somewhere else.
package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
)

// ImageStore saves and removes listing image files.
type ImageStore struct {
	dir    string // absolute or cwd-relative directory for the files
	prefix string // prefix recorded on listings, e.g. "uploads"
	logger *slog.Logger
}

// NewImageStore creates the uploads directory if needed and returns a store.
func NewImageStore(dir string, logger *slog.Logger) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating upload dir %s: %w", dir, err)
	}
	return &ImageStore{
		dir:    dir,
		prefix: filepath.Base(dir),
		logger: logger,
	}, nil
}

// Save writes the uploaded content to a fresh file and returns the relative
// path to record on the listing. The name is a generated xid plus the
// original extension; the client-supplied filename is never trusted as a
// path.
func (s *ImageStore) Save(src io.Reader, originalName string) (string, error) {
	ext := sanitizeExt(filepath.Ext(originalName))
	name := xid.New().String() + ext

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("storage: creating image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("storage: writing image file: %w", err)
	}

	return path.Join(s.prefix, name), nil
}

// Remove deletes a stored image by its relative path. Best-effort: a missing
// or undeletable file is logged and otherwise ignored, because asset cleanup
// must never fail a listing deletion.
func (s *ImageStore) Remove(relPath string) {
	if relPath == "" {
		return
	}

	// Only accept paths we issued: "<prefix>/<basename>".
	name := path.Base(relPath)
	if name == "." || name == "/" || path.Dir(relPath) != s.prefix {
		s.logger.Warn("refusing to remove image outside upload dir",
			slog.String("path", relPath))
		return
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove image",
			slog.String("path", relPath),
			slog.String("error", err.Error()),
		)
	}
}

// sanitizeExt keeps only short, plain extensions; anything else is dropped.
func sanitizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if len(ext) > 8 || strings.ContainsAny(ext, `/\`) {
		return ""
	}
	return ext
}
