package localfs

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
)

// Storage keeps uploaded files under a single upload root. Keys are
// slash-separated paths relative to the root; folder uploads keep their
// relative directory structure.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/uploads"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	return &Storage{basePath: abs}, nil
}

// CleanKey normalizes a client-supplied relative path into a storage
// key. Absolute paths and parent traversal are rejected.
func CleanKey(raw string) (string, error) {
	return domain.CleanPath(raw)
}

func (s *Storage) Save(_ context.Context, key string, data io.Reader) (int64, error) {
	full, err := s.Resolve(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, fmt.Errorf("create parent dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, data)
	if err != nil {
		return written, fmt.Errorf("write file: %w", err)
	}
	return written, nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	full, err := s.Resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapError(domain.ErrFileNotFound, "open file", err)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Resolve maps a key to an absolute path, guaranteeing it stays inside
// the upload root.
func (s *Storage) Resolve(key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.basePath, filepath.FromSlash(cleaned))
	if full != s.basePath && !strings.HasPrefix(full, s.basePath+string(os.PathSeparator)) {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve key", fmt.Errorf("path %q escapes upload root", key))
	}
	return full, nil
}

// Walk visits every regular file under the upload root with its
// root-relative key.
func (s *Storage) Walk(ctx context.Context, fn func(key string, size int64) error) error {
	return filepath.WalkDir(s.basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.basePath, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel), info.Size())
	})
}
