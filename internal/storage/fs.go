package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const ownerFile = ".owner"

var ErrInvalidKey = errors.New("invalid media key")

// FSStore keeps imported media under base/<scope id>/<name>.
type FSStore struct {
	base   string
	logger *slog.Logger
}

func NewFSStore(base string, logger *slog.Logger) (*FSStore, error) {
	if base == "" {
		base = "./data/media"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &FSStore{base: base, logger: logger}, nil
}

// NewScope creates an empty scope directory owned by owner.
func (s *FSStore) NewScope(ctx context.Context, owner string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	dir := filepath.Join(s.base, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scope %s: %w", id, err)
	}
	if err := os.WriteFile(filepath.Join(dir, ownerFile), []byte(owner), 0o644); err != nil {
		return "", fmt.Errorf("failed to record scope owner: %w", err)
	}
	s.logger.Debug("Created media scope", "scope_id", id, "owner", owner)
	return id, nil
}

// Register copies sourcePath into the scope under name. When name is taken
// by identical content that name is reused; otherwise a numbered variant
// such as "pic_1.png" is stored instead.
func (s *FSStore) Register(ctx context.Context, scopeID, sourcePath, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := s.path(scopeID, name); err != nil {
		return "", err
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to open media source: %w", err)
	}
	defer src.Close()

	for i := 0; i < maxNameVariants; i++ {
		candidate := nameVariant(name, i)
		dst, err := s.path(scopeID, candidate)
		if err != nil {
			return "", err
		}
		out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			same, err := sameContent(dst, src)
			if err != nil {
				return "", err
			}
			if same {
				return candidate, nil
			}
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create media file: %w", err)
		}
		if err := copyFrom(out, src); err != nil {
			os.Remove(dst)
			return "", err
		}
		s.logger.Debug("Registered media", "scope_id", scopeID, "name", candidate)
		return candidate, nil
	}
	return "", fmt.Errorf("%w: no free name for %q", ErrInvalidKey, name)
}

const maxNameVariants = 100

// nameVariant returns name for 0 and "base_i.ext" otherwise.
func nameVariant(name string, i int) string {
	if i == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), i, ext)
}

func copyFrom(out *os.File, src *os.File) error {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		out.Close()
		return fmt.Errorf("failed to rewind media source: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy media: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close media file: %w", err)
	}
	return nil
}

func sameContent(path string, src *os.File) (bool, error) {
	stored, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open stored media: %w", err)
	}
	defer stored.Close()

	a, err := stored.Stat()
	if err != nil {
		return false, err
	}
	b, err := src.Stat()
	if err != nil {
		return false, err
	}
	if a.Size() != b.Size() {
		return false, nil
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return false, fmt.Errorf("failed to rewind media source: %w", err)
	}

	bufA := make([]byte, 32<<10)
	bufB := make([]byte, 32<<10)
	for {
		na, errA := io.ReadFull(stored, bufA)
		nb, errB := io.ReadFull(src, bufB)
		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		if errA == io.EOF || errA == io.ErrUnexpectedEOF {
			return errB == io.EOF || errB == io.ErrUnexpectedEOF, nil
		}
		if errA != nil {
			return false, errA
		}
		if errB != nil {
			return false, errB
		}
	}
}

// Open returns a stored media file.
func (s *FSStore) Open(scopeID, name string) (io.ReadCloser, error) {
	p, err := s.path(scopeID, name)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// Owner returns the owner recorded for a scope.
func (s *FSStore) Owner(scopeID string) (string, error) {
	dir, err := s.scopeDir(scopeID)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(dir, ownerFile))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *FSStore) scopeDir(scopeID string) (string, error) {
	if _, err := uuid.Parse(scopeID); err != nil {
		return "", fmt.Errorf("%w: scope %q", ErrInvalidKey, scopeID)
	}
	return filepath.Join(s.base, scopeID), nil
}

// path resolves a media name inside a scope. The owner record is not a
// media name.
func (s *FSStore) path(scopeID, name string) (string, error) {
	dir, err := s.scopeDir(scopeID)
	if err != nil {
		return "", err
	}
	if name == "" || name == "." || name == ".." || name == ownerFile || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: name %q", ErrInvalidKey, name)
	}
	return filepath.Join(dir, name), nil
}
