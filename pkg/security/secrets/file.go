package secrets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// DirSource reads secrets from a directory holding one file per secret,
// the layout used by Kubernetes secret volumes. The file name is the
// secret name and the trimmed file content is its value.
//
// Files must be regular files with mode 0600 or 0400.
type DirSource struct {
	dir    string
	logger *slog.Logger
}

// NewDirSource creates a directory source. The directory must exist.
func NewDirSource(dir string, logger *slog.Logger) (*DirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("secrets directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("secrets directory %s is not a directory", dir)
	}
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("secrets directory: %w", err)
	}
	return &DirSource{dir: abs, logger: logger}, nil
}

// Lookup reads the named secret file.
func (s *DirSource) Lookup(_ context.Context, name string) (string, error) {
	path, err := s.path(name)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: no file %s in %s", ErrNotFound, name, s.dir)
		}
		return "", fmt.Errorf("stat secret %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret %s is not a regular file", name)
	}
	if perm := info.Mode().Perm(); perm != 0o600 && perm != 0o400 {
		return "", fmt.Errorf("secret %s has insecure permissions %o (want 0600 or 0400)", name, perm)
	}

	// #nosec G304 - path is confined to s.dir above
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read secret %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Name returns "dir".
func (s *DirSource) Name() string {
	return "dir"
}

// path resolves name inside the directory, rejecting traversal.
func (s *DirSource) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid secret name %q", name)
	}
	path := filepath.Join(s.dir, name)
	if !strings.HasPrefix(path, s.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid secret name %q", name)
	}
	return path, nil
}

// Watch calls onChange whenever a file in the directory is written,
// created, removed or renamed, until ctx is cancelled. Secret volumes are
// updated by swapping symlinks, so any event counts.
func (s *DirSource) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create secrets watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	s.logger.Info("watching secrets directory", "path", s.dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			s.logger.Debug("secrets directory changed",
				"file", filepath.Base(event.Name),
				"op", event.Op.String(),
			)
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("secrets watcher error", "error", err)
		}
	}
}
