package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/question-import-service/internal/importer"
)

var _ importer.MediaStore = (*FSStore)(nil)

func TestFSStore_RegisterAndOpen(t *testing.T) {
	store, err := NewFSStore(filepath.Join(t.TempDir(), "media"), nil)
	require.NoError(t, err)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "map.png")
	require.NoError(t, os.WriteFile(src, []byte("png-bytes"), 0o644))

	scope, err := store.NewScope(ctx, "owner-1")
	require.NoError(t, err)

	name, err := store.Register(ctx, scope, src, "images__map.png")
	require.NoError(t, err)
	assert.Equal(t, "images__map.png", name)

	rc, err := store.Open(scope, name)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	owner, err := store.Owner(scope)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", owner)
}

func TestFSStore_RegisterNameCollisions(t *testing.T) {
	store, err := NewFSStore(t.TempDir(), nil)
	require.NoError(t, err)
	ctx := context.Background()
	scope, err := store.NewScope(ctx, "")
	require.NoError(t, err)

	write := func(name, content string) string {
		p := filepath.Join(t.TempDir(), name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}
	read := func(name string) string {
		rc, err := store.Open(scope, name)
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}

	// a/b__c.png and a__b/c.png both flatten to a__b__c.png
	first, err := store.Register(ctx, scope, write("c.png", "first"), "a__b__c.png")
	require.NoError(t, err)
	assert.Equal(t, "a__b__c.png", first)

	second, err := store.Register(ctx, scope, write("c.png", "second"), "a__b__c.png")
	require.NoError(t, err)
	assert.Equal(t, "a__b__c_1.png", second)

	again, err := store.Register(ctx, scope, write("c.png", "second"), "a__b__c.png")
	require.NoError(t, err)
	assert.Equal(t, "a__b__c_1.png", again, "identical content reuses the stored name")

	same, err := store.Register(ctx, scope, write("c.png", "first"), "a__b__c.png")
	require.NoError(t, err)
	assert.Equal(t, "a__b__c.png", same)

	assert.Equal(t, "first", read("a__b__c.png"))
	assert.Equal(t, "second", read("a__b__c_1.png"))
}

func TestFSStore_OwnerRecordIsReserved(t *testing.T) {
	store, err := NewFSStore(t.TempDir(), nil)
	require.NoError(t, err)
	ctx := context.Background()
	scope, err := store.NewScope(ctx, "owner-1")
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), ".owner")
	require.NoError(t, os.WriteFile(src, []byte("intruder"), 0o644))

	_, err = store.Register(ctx, scope, src, ".owner")
	assert.True(t, errors.Is(err, ErrInvalidKey))

	_, err = store.Open(scope, ".owner")
	assert.True(t, errors.Is(err, ErrInvalidKey))

	owner, err := store.Owner(scope)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", owner)
}

func TestNameVariant(t *testing.T) {
	assert.Equal(t, "pic.png", nameVariant("pic.png", 0))
	assert.Equal(t, "pic_2.png", nameVariant("pic.png", 2))
	assert.Equal(t, "notes_1", nameVariant("notes", 1))
}

func TestFSStore_RejectsInvalidKeys(t *testing.T) {
	store, err := NewFSStore(t.TempDir(), nil)
	require.NoError(t, err)
	ctx := context.Background()
	scope, err := store.NewScope(ctx, "")
	require.NoError(t, err)

	_, err = store.Register(ctx, "../etc", "/dev/null", "x.png")
	assert.True(t, errors.Is(err, ErrInvalidKey))

	_, err = store.Register(ctx, scope, "/dev/null", "../x.png")
	assert.True(t, errors.Is(err, ErrInvalidKey))

	_, err = store.Register(ctx, scope, filepath.Join(t.TempDir(), "missing.png"), "missing.png")
	assert.Error(t, err)
}
