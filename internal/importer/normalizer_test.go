package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/question-import-service/internal/models"
)

// recordingStore keeps registrations in memory.
type recordingStore struct {
	mu         sync.Mutex
	scopes     int
	registered []string
	failOn     string
}

func (s *recordingStore) NewScope(ctx context.Context, owner string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes++
	return fmt.Sprintf("scope-%d", s.scopes), nil
}

func (s *recordingStore) Register(ctx context.Context, scopeID, sourcePath, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == s.failOn {
		return "", errors.New("disk full")
	}
	s.registered = append(s.registered, name)
	return name, nil
}

func writeMedia(t *testing.T, root string, rel string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("img"), 0o644))
}

func newTestNormalizer(t *testing.T) (*Normalizer, *recordingStore, string) {
	t.Helper()
	root := t.TempDir()
	store := &recordingStore{}
	return NewNormalizer(NewMediaScope(store, root, "owner-1"), nil), store, root
}

func TestNormalizer_EmptyInput(t *testing.T) {
	n, _, _ := newTestNormalizer(t)

	assert.Equal(t, models.TextField{}, n.Field(context.Background(), ""))
	assert.True(t, n.Body(context.Background(), "   ").IsEmpty())
}

func TestNormalizer_PlainTextRoundTrip(t *testing.T) {
	n, store, _ := newTestNormalizer(t)
	text := "<p>What is the capital of France?</p>"

	field := n.Body(context.Background(), text)

	assert.Equal(t, text, field.Text)
	assert.Equal(t, models.FormatHTML, field.Format)
	assert.Empty(t, field.ItemID)
	assert.Zero(t, store.scopes)
}

func TestNormalizer_BodyDecodesEscapes(t *testing.T) {
	n, _, _ := newTestNormalizer(t)

	field := n.Body(context.Background(), "  a&&058;b &&035;1 x&&061;y &&123;k&&125; &&126;z&&010end  ")

	assert.Equal(t, "a:b #1 x=y {k} ~z\nend", field.Text)
}

func TestNormalizer_FieldKeepsEscapesAndWhitespace(t *testing.T) {
	n, _, _ := newTestNormalizer(t)

	field := n.Field(context.Background(), " 10&&058;30 ")

	assert.Equal(t, " 10&&058;30 ", field.Text)
}

func TestDecodeEscapes_Idempotent(t *testing.T) {
	inputs := []string{
		"&&058;&&035;&&061;&&123;&&125;&&126;&&010",
		"&&&058;058;",
		"plain text",
		"&&05&&058;8;",
	}
	for _, in := range inputs {
		once := DecodeEscapes(in)
		assert.Equal(t, once, DecodeEscapes(once), in)
	}
}

func TestNormalizer_RewritesMediaReferences(t *testing.T) {
	n, store, root := newTestNormalizer(t)
	writeMedia(t, root, "images/maps/france.png")
	writeMedia(t, root, "logo.png")

	text := `<img src="@@PLUGINFILE@@/images/maps/france.png"> <img src="@@PLUGINFILE@@/logo.png">` +
		` <img src="@@PLUGINFILE@@/images/maps/france.png">`
	field := n.Body(context.Background(), text)

	assert.Equal(t, `<img src="@@PLUGINFILE@@/images__maps__france.png"> <img src="@@PLUGINFILE@@/logo.png">`+
		` <img src="@@PLUGINFILE@@/images__maps__france.png">`, field.Text)
	assert.Equal(t, "scope-1", field.ItemID)
	assert.Equal(t, []string{"images__maps__france.png", "logo.png"}, store.registered)
}

func TestNormalizer_ScopeSharedAcrossFields(t *testing.T) {
	n, store, root := newTestNormalizer(t)
	writeMedia(t, root, "a.png")
	writeMedia(t, root, "b.png")

	first := n.Field(context.Background(), `<img src="@@PLUGINFILE@@/a.png">`)
	second := n.Field(context.Background(), `<img src="@@PLUGINFILE@@/b.png">`)
	third := n.Field(context.Background(), "no media")

	assert.Equal(t, 1, store.scopes)
	assert.Equal(t, "scope-1", first.ItemID)
	assert.Equal(t, "scope-1", second.ItemID)
	assert.Empty(t, third.ItemID)
	assert.Equal(t, "scope-1", n.Scope().ID())
}

func TestNormalizer_UnresolvableReferencesLeftUntouched(t *testing.T) {
	n, store, _ := newTestNormalizer(t)
	text := `<img src="@@PLUGINFILE@@/missing.png"> <img src="@@PLUGINFILE@@/../escape.png">`

	field := n.Field(context.Background(), text)

	assert.Equal(t, text, field.Text)
	assert.Empty(t, field.ItemID)
	assert.Empty(t, store.registered)
}

func TestNormalizer_RegistrationFailureLeavesReference(t *testing.T) {
	n, store, root := newTestNormalizer(t)
	writeMedia(t, root, "broken.png")
	store.failOn = "broken.png"
	text := `<img src="@@PLUGINFILE@@/broken.png">`

	field := n.Field(context.Background(), text)

	assert.Equal(t, text, field.Text)
	assert.Empty(t, field.ItemID)
}

func TestNormalizer_NilStoreIgnoresMedia(t *testing.T) {
	root := t.TempDir()
	writeMedia(t, root, "a.png")
	n := NewNormalizer(NewMediaScope(nil, root, ""), nil)
	text := `<img src="@@PLUGINFILE@@/a.png">`

	field := n.Field(context.Background(), text)

	assert.Equal(t, text, field.Text)
	assert.Empty(t, field.ItemID)
}

func TestNormalizer_TranscodesLegacyBytes(t *testing.T) {
	n, _, _ := newTestNormalizer(t)

	field := n.Field(context.Background(), "caf\xe9")

	assert.Equal(t, "café", field.Text)
}

func TestNormalizer_ComposesToNFC(t *testing.T) {
	n, _, _ := newTestNormalizer(t)

	field := n.Field(context.Background(), "cafe\u0301")

	assert.Equal(t, "caf\u00e9", field.Text)
}

func TestFlattenMediaName(t *testing.T) {
	assert.Equal(t, "pic.png", flattenMediaName("pic.png"))
	assert.Equal(t, "pic.png", flattenMediaName("./pic.png"))
	assert.Equal(t, "img__pic.png", flattenMediaName("img/pic.png"))
	assert.Equal(t, "a__b__c.png", flattenMediaName("a/b/c.png"))
	assert.Equal(t, "weirdname.png", flattenMediaName(`weird|name".png`))
}
