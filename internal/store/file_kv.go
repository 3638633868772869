package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileKV stores each key as a file under dir. Writes go through a temp file and
// rename so readers never see a partial value. TTLs are not supported; entries
// live until deleted.
type FileKV struct {
	dir    string
	logger *zap.Logger

	mu        sync.Mutex
	lastWrite map[string]string // key -> value we wrote last
}

func NewFileKV(dir string, logger *zap.Logger) (*FileKV, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileKV{dir: dir, logger: logger, lastWrite: map[string]string{}}, nil
}

var keyReplacer = strings.NewReplacer(":", "_", "/", "_", "\\", "_")

// Path returns the file backing key.
func (f *FileKV) Path(key string) string {
	return filepath.Join(f.dir, keyReplacer.Replace(key)+".json")
}

func (f *FileKV) Get(_ context.Context, key string) (string, error) {
	b, err := os.ReadFile(f.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrMiss
		}
		return "", err
	}
	return string(b), nil
}

func (f *FileKV) Set(_ context.Context, key string, value string, _ time.Duration) error {
	path := f.Path(key)
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	f.mu.Lock()
	f.lastWrite[key] = value
	f.mu.Unlock()

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

func (f *FileKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	delete(f.lastWrite, key)
	f.mu.Unlock()

	if err := os.Remove(f.Path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Watch reports rewrites of key by other processes. Our own writes are skipped
// by comparing against the last value Set stored.
func (f *FileKV) Watch(ctx context.Context, key string, onChange func(value string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	// the directory, since rename replaces the file's inode
	if err := w.Add(f.dir); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", f.dir, err)
	}

	path := f.Path(key)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Create|fsnotify.Write) {
					continue
				}
				value, err := f.Get(ctx, key)
				if err != nil {
					continue
				}
				f.mu.Lock()
				own := f.lastWrite[key] == value
				f.mu.Unlock()
				if own {
					continue
				}
				onChange(value)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				f.logger.Warn("cache watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
