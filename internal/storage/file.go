package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/2beens/coachai/internal/apperrors"
)

var _ KV = (*FileKV)(nil)

// FileKV stores each key as <dir>/<key>.json.
// Writes go to a temp file first and are renamed into place, so a crash
// mid-write leaves the previous value readable.
type FileKV struct {
	dir   string
	mutex sync.Mutex
}

func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir [%s]: %w", dir, err)
	}
	return &FileKV{dir: dir}, nil
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, apperrors.NewStorageError("get", key, err)
	}
	return data, true, nil
}

func (f *FileKV) Set(_ context.Context, key string, value []byte) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if err := atomicWriteFile(f.path(key), value); err != nil {
		return apperrors.NewStorageError("set", key, err)
	}
	return nil
}

func atomicWriteFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
