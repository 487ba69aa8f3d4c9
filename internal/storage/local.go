package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalRoute is where the API serves files written by LocalStorage.
const LocalRoute = "/uploads"

// ErrObjectExists is returned when a key has already been written.
var ErrObjectExists = errors.New("object already exists")

// LocalStorage writes objects to a directory on disk. It stands in for an object
// store during development; the API serves Dir under LocalRoute.
type LocalStorage struct {
	Dir        string
	PublicBase string // e.g. "http://localhost:8080/uploads"
}

// NewLocalStorage ensures dir exists and returns a LocalStorage.
func NewLocalStorage(dir, publicBase string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", dir, err)
	}
	return &LocalStorage{Dir: dir, PublicBase: publicBase}, nil
}

// Put writes reader to Dir/key. Keys are write-once.
func (s *LocalStorage) Put(ctx context.Context, key string, reader io.Reader, _ int64, _ string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := filepath.Join(s.Dir, key)
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %q", ErrObjectExists, key)
		}
		return "", fmt.Errorf("create %q: %w", key, err)
	}
	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write %q: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %q: %w", key, err)
	}
	return joinURL(s.PublicBase, key), nil
}
