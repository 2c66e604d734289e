package repository

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/smallbiznis/tailorbook/internal/record/domain"
	"github.com/spf13/afero"
)

// FileStore keeps one JSON file per record under <root>/<kind dir>/<key>.
// Writes go through a temp file and a rename so readers never observe a
// partially written document. There is no locking: concurrent writers to the
// same key race and the last rename wins.
type FileStore struct {
	fs   afero.Fs
	root string
}

// NewFileStore returns a store rooted at root on the given filesystem.
func NewFileStore(fsys afero.Fs, root string) *FileStore {
	if root == "" {
		root = "."
	}
	return &FileStore{fs: fsys, root: root}
}

func (s *FileStore) dir(kind domain.Kind) string {
	return filepath.Join(s.root, kind.Dir)
}

func (s *FileStore) path(kind domain.Kind, key string) (string, error) {
	if err := domain.ValidateKey(kind, key); err != nil {
		return "", err
	}
	return filepath.Join(s.dir(kind), key), nil
}

func (s *FileStore) Keys(ctx context.Context, kind domain.Kind) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := afero.ReadDir(s.fs, s.dir(kind))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Kind: kind.Name, Err: err}
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		keys = append(keys, entry.Name())
	}
	return keys, nil
}

func (s *FileStore) List(ctx context.Context, kind domain.Kind) ([]domain.Document, error) {
	keys, err := s.Keys(ctx, kind)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := afero.ReadFile(s.fs, filepath.Join(s.dir(kind), key))
		if err != nil {
			return nil, &domain.StorageError{Op: "list", Kind: kind.Name, Key: key, Err: err}
		}
		doc, err := domain.ParseDocument(raw)
		if err != nil {
			return nil, &domain.StorageError{Op: "list", Kind: kind.Name, Key: key, Err: err}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *FileStore) Read(ctx context.Context, kind domain.Kind, key string) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(kind, key)
	if err != nil {
		return nil, err
	}

	if dir, err := afero.IsDir(s.fs, path); err == nil && dir {
		return nil, domain.ErrNotFound
	}

	raw, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "read", Kind: kind.Name, Key: key, Err: err}
	}

	doc, err := domain.ParseDocument(raw)
	if err != nil {
		// An unreadable document is indistinguishable from a missing one to callers.
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (s *FileStore) Write(ctx context.Context, kind domain.Kind, key string, doc domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(kind, key)
	if err != nil {
		return err
	}

	raw, err := doc.Encode()
	if err != nil {
		return &domain.StorageError{Op: "write", Kind: kind.Name, Key: key, Err: err}
	}

	dir := s.dir(kind)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return &domain.StorageError{Op: "write", Kind: kind.Name, Key: key, Err: err}
	}

	tmp, err := afero.TempFile(s.fs, dir, ".tmp-*")
	if err != nil {
		return &domain.StorageError{Op: "write", Kind: kind.Name, Key: key, Err: err}
	}
	tmpName := tmp.Name()
	defer func() { _ = s.fs.Remove(tmpName) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return &domain.StorageError{Op: "write", Kind: kind.Name, Key: key, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &domain.StorageError{Op: "write", Kind: kind.Name, Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &domain.StorageError{Op: "write", Kind: kind.Name, Key: key, Err: err}
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		return &domain.StorageError{Op: "write", Kind: kind.Name, Key: key, Err: err}
	}
	_ = s.fs.Chmod(path, 0o644)
	return nil
}

func (s *FileStore) Delete(ctx context.Context, kind domain.Kind, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(kind, key)
	if err != nil {
		return err
	}

	// A directory at the key is not a record.
	if dir, err := afero.IsDir(s.fs, path); err == nil && dir {
		return domain.ErrNotFound
	}
	if err := s.fs.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrNotFound
		}
		return &domain.StorageError{Op: "delete", Kind: kind.Name, Key: key, Err: err}
	}
	return nil
}

func (s *FileStore) Exists(ctx context.Context, kind domain.Kind, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := s.path(kind, key)
	if err != nil {
		return false, err
	}

	info, err := s.fs.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &domain.StorageError{Op: "stat", Kind: kind.Name, Key: key, Err: err}
	}
	return !info.IsDir(), nil
}
