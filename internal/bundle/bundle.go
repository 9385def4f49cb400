package bundle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

var (
	ErrInputMissing      = errors.New("upload file is missing")
	ErrArchiveUnreadable = errors.New("bundle archive cannot be unpacked")
	ErrNoSheetFile       = errors.New("no sheet file found in bundle")
	ErrUnsupportedFormat = errors.New("unsupported bundle format")
	ErrBundleTooLarge    = errors.New("bundle exceeds the unpack limits")
)

// SheetExtensions are the workbook extensions recognised inside a bundle.
var SheetExtensions = []string{".xlsx", ".xlsm", ".xls"}

const (
	contentDir = "content"
	uploadName = "upload"
)

// Limits caps what a zip bundle may unpack to. Zero fields take the
// DefaultLimits value.
type Limits struct {
	MaxUnpackedBytes int64
	MaxEntries       int
}

var DefaultLimits = Limits{
	MaxUnpackedBytes: 256 << 20,
	MaxEntries:       2000,
}

func (l Limits) withDefaults() Limits {
	if l.MaxUnpackedBytes <= 0 {
		l.MaxUnpackedBytes = DefaultLimits.MaxUnpackedBytes
	}
	if l.MaxEntries <= 0 {
		l.MaxEntries = DefaultLimits.MaxEntries
	}
	return l
}

// Bundle is an unpacked upload living in its own temporary directory.
// Dir holds the bundle content and is the root for media references; the
// stored upload sits beside it, never inside it.
type Bundle struct {
	Dir       string
	SheetPath string

	root string
}

// Close removes the bundle's temporary directory.
func (b *Bundle) Close() error {
	if b == nil || b.root == "" {
		return nil
	}
	return os.RemoveAll(b.root)
}

// Open unpacks the upload at path into a new directory under workDir. A zip
// archive is extracted and its first root-level sheet becomes SheetPath; a
// bare workbook is used as is.
func Open(workDir, path string, limits Limits) (*Bundle, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrInputMissing, path)
	}
	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputMissing, err)
	}
	defer src.Close()

	return OpenReader(workDir, src, filepath.Base(path), limits)
}

// OpenReader is Open for an upload stream; filename selects the format.
func OpenReader(workDir string, r io.Reader, filename string, limits Limits) (*Bundle, error) {
	if r == nil {
		return nil, ErrInputMissing
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".zip" && !isSheet(filename) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if workDir != "" {
		if err := os.MkdirAll(workDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create work dir: %w", err)
		}
	}
	root, err := os.MkdirTemp(workDir, "bundle-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	b := &Bundle{root: root, Dir: filepath.Join(root, contentDir)}
	if err := os.Mkdir(b.Dir, 0o755); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to create content dir: %w", err)
	}

	if ext != ".zip" {
		b.SheetPath = filepath.Join(b.Dir, uploadName+ext)
		if _, err := writeFile(b.SheetPath, r); err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to store upload: %w", err)
		}
		return b, nil
	}

	archive := filepath.Join(root, uploadName+ext)
	if _, err := writeFile(archive, r); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if err := extract(archive, b.Dir, limits.withDefaults()); err != nil {
		b.Close()
		return nil, err
	}
	if err := os.Remove(archive); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to remove upload: %w", err)
	}

	sheetPath, err := findSheet(b.Dir)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.SheetPath = sheetPath
	return b, nil
}

func extract(archive, dest string, limits Limits) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArchiveUnreadable, err)
	}
	defer zr.Close()

	if len(zr.File) > limits.MaxEntries {
		return fmt.Errorf("%w: %d entries, at most %d allowed", ErrBundleTooLarge, len(zr.File), limits.MaxEntries)
	}

	remaining := limits.MaxUnpackedBytes
	root := filepath.Clean(dest) + string(filepath.Separator)
	for _, f := range zr.File {
		target := filepath.Join(dest, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(target, root) {
			return fmt.Errorf("%w: entry %q escapes the bundle", ErrArchiveUnreadable, f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", f.Name, err)
			}
			continue
		}
		if f.UncompressedSize64 > uint64(remaining) {
			return fmt.Errorf("%w: more than %d bytes unpacked", ErrBundleTooLarge, limits.MaxUnpackedBytes)
		}
		written, err := extractFile(f, target, remaining)
		if err != nil {
			return err
		}
		remaining -= written
	}
	return nil
}

// extractFile writes one entry, failing once more than limit bytes come out
// of it regardless of the size the entry header declares.
func extractFile(f *zip.File, target string, limit int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
	}
	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrArchiveUnreadable, f.Name, err)
	}
	defer rc.Close()

	written, err := writeFile(target, io.LimitReader(rc, limit+1))
	if err != nil {
		return written, fmt.Errorf("%w: %s: %v", ErrArchiveUnreadable, f.Name, err)
	}
	if written > limit {
		return written, fmt.Errorf("%w: entry %q unpacks past the limit", ErrBundleTooLarge, f.Name)
	}
	return written, nil
}

func writeFile(path string, r io.Reader) (int64, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(out, r)
	if err != nil {
		out.Close()
		return written, err
	}
	return written, out.Close()
}

// findSheet picks the first root-level workbook by name. Hidden files such
// as macOS resource forks are ignored.
func findSheet(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to list bundle: %w", err)
	}
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if isSheet(e.Name()) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", ErrNoSheetFile
}

func isSheet(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range SheetExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}
