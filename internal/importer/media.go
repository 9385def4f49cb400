package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MediaStore registers media files referenced from question text.
type MediaStore interface {
	// NewScope allocates an opaque scope id grouping one batch of media.
	NewScope(ctx context.Context, owner string) (string, error)
	// Register copies sourcePath into the scope under name and returns the
	// name it was stored as.
	Register(ctx context.Context, scopeID, sourcePath, name string) (string, error)
}

// MediaScope carries the per-import media state: the unpacked bundle root,
// the importing user and the lazily created scope id shared by every text
// field of the batch.
type MediaScope struct {
	store MediaStore
	root  string
	owner string

	mu sync.Mutex
	id string
}

// NewMediaScope returns a scope rooted at the unpacked bundle directory.
// A nil store disables media registration.
func NewMediaScope(store MediaStore, root, owner string) *MediaScope {
	return &MediaScope{store: store, root: root, owner: owner}
}

// ID returns the scope id, or "" when no media has been registered yet.
func (s *MediaScope) ID() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *MediaScope) Owner() string {
	if s == nil {
		return ""
	}
	return s.owner
}

// resolve maps a reference path to a readable file inside the bundle root.
func (s *MediaScope) resolve(ref string) (string, bool) {
	if s == nil || s.root == "" || ref == "" {
		return "", false
	}
	rel := filepath.Clean(filepath.FromSlash(ref))
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	full := filepath.Join(s.root, rel)
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	f, err := os.Open(full)
	if err != nil {
		return "", false
	}
	f.Close()
	return full, true
}

// register stores sourcePath under name, creating the scope on first use.
// Access to the store is serialized.
func (s *MediaScope) register(ctx context.Context, sourcePath, name string) (string, string, error) {
	if s == nil || s.store == nil {
		return "", "", fmt.Errorf("media store not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == "" {
		id, err := s.store.NewScope(ctx, s.owner)
		if err != nil {
			return "", "", fmt.Errorf("failed to create media scope: %w", err)
		}
		s.id = id
	}
	stored, err := s.store.Register(ctx, s.id, sourcePath, name)
	if err != nil {
		return "", "", fmt.Errorf("failed to register media %s: %w", name, err)
	}
	return stored, s.id, nil
}

// flattenMediaName turns a bundle-relative path into a flat stored name:
// "img/a/b.png" becomes "img__a__b.png" and "b.png" stays "b.png".
func flattenMediaName(ref string) string {
	ref = filepath.ToSlash(filepath.Clean(filepath.FromSlash(ref)))
	dir, file := pathSplit(ref)
	if dir == "." {
		return cleanFileName(file)
	}
	return cleanFileName(strings.ReplaceAll(dir+"__"+file, "/", "__"))
}

func pathSplit(ref string) (string, string) {
	i := strings.LastIndex(ref, "/")
	if i < 0 {
		return ".", ref
	}
	return ref[:i], ref[i+1:]
}

// cleanFileName drops characters that are not safe in a stored file name.
func cleanFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			continue
		}
		switch r {
		case '/', '\\', ':', '"', '\'', '<', '>', '|', '&', '`':
			continue
		}
		b.WriteRune(r)
	}
	cleaned := strings.TrimSpace(b.String())
	if cleaned == "." || cleaned == ".." {
		return ""
	}
	return cleaned
}
