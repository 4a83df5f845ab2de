package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalBackend stores images on the local filesystem and serves them under
// the /uploads static mount. It is the development fallback: typical hosting
// wipes the directory on redeploy, so it must never be relied on for
// production durability.
type LocalBackend struct {
	dir string
}

// NewLocalBackend ensures the uploads directory exists.
func NewLocalBackend(dir string) (*LocalBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("local storage: create directory %q: %w", dir, err)
	}
	return &LocalBackend{dir: dir}, nil
}

// Name implements Backend.
func (l *LocalBackend) Name() string { return "local" }

// Put writes data under a collision-resistant generated filename and
// returns it as the key.
func (l *LocalBackend) Put(ctx context.Context, data []byte, originalName string) (string, error) {
	key := fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), randomSuffix(), sanitizeFilename(originalName))
	if err := os.WriteFile(l.path(key), data, 0o644); err != nil {
		return "", fmt.Errorf("local storage: write %q: %w: %w", key, ErrUnavailable, err)
	}
	return key, nil
}

// Get opens the file at key. Absent files map to ErrNotFound, other I/O
// failures to ErrUnavailable.
func (l *LocalBackend) Get(ctx context.Context, key string) (*Object, error) {
	f, err := os.Open(l.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("local storage: get %q: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("local storage: get %q: %w: %w", key, ErrUnavailable, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("local storage: stat %q: %w: %w", key, ErrUnavailable, err)
	}
	return &Object{
		ReadCloser:  f,
		ContentType: contentTypeForExt(filepath.Ext(key)),
		Size:        info.Size(),
	}, nil
}

// Delete removes the file at key; an absent file is not an error.
func (l *LocalBackend) Delete(ctx context.Context, key string) error {
	if err := os.Remove(l.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("local storage: delete %q: %w: %w", key, ErrUnavailable, err)
	}
	return nil
}

// URL implements Backend. Local files are served by the static mount.
func (l *LocalBackend) URL(key string) string {
	return "/uploads/" + key
}

// path confines key to the uploads directory. Cleaning the key as a rooted
// path neutralizes ".." segments before joining.
func (l *LocalBackend) path(key string) string {
	return filepath.Join(l.dir, filepath.Clean("/"+filepath.FromSlash(key)))
}

func randomSuffix() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// sanitizeFilename keeps only the base name and replaces characters that are
// unsafe in URLs or paths.
func sanitizeFilename(name string) string {
	name = filepath.Base(filepath.FromSlash(name))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '-'
	}, name)
	if name == "" || name == "." || name == ".." {
		name = "image"
	}
	return name
}
