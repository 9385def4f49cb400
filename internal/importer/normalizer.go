package importer

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/SAP-F-2025/question-import-service/internal/models"
)

// PluginFilePlaceholder prefixes media references inside question text.
const PluginFilePlaceholder = "@@PLUGINFILE@@"

var mediaRefPattern = regexp.MustCompile(`(?i)"` + regexp.QuoteMeta(PluginFilePlaceholder) + `/([^"]*)"`)

// Sheet authors escape characters that clash with other question formats.
var escapeDecoder = strings.NewReplacer(
	"&&058;", ":",
	"&&035;", "#",
	"&&061;", "=",
	"&&123;", "{",
	"&&125;", "}",
	"&&126;", "~",
	"&&010", "\n",
)

// DecodeEscapes replaces escape placeholders with their literal characters.
func DecodeEscapes(s string) string {
	return escapeDecoder.Replace(s)
}

// Normalizer turns raw cells into TextFields, registering referenced media
// through the batch MediaScope.
type Normalizer struct {
	scope  *MediaScope
	logger *slog.Logger
}

func NewNormalizer(scope *MediaScope, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{scope: scope, logger: logger}
}

func (n *Normalizer) Scope() *MediaScope {
	return n.scope
}

// Body normalizes text destined for a question body: escape placeholders are
// decoded and surrounding whitespace trimmed before Field runs.
func (n *Normalizer) Body(ctx context.Context, raw string) models.TextField {
	return n.Field(ctx, strings.TrimSpace(DecodeEscapes(raw)))
}

// Field rewrites media references and wraps the text as HTML. Empty input
// yields an empty TextField.
func (n *Normalizer) Field(ctx context.Context, raw string) models.TextField {
	if raw == "" {
		return models.TextField{}
	}
	text, itemID := n.rewriteMedia(ctx, raw)
	return models.TextField{
		Text:   canonicalEncoding(text),
		Format: models.FormatHTML,
		ItemID: itemID,
	}
}

func (n *Normalizer) rewriteMedia(ctx context.Context, text string) (string, string) {
	matches := mediaRefPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return text, ""
	}

	var itemID string
	done := make(map[string]bool, len(matches))
	for _, m := range matches {
		ref := m[1]
		if done[ref] {
			continue
		}
		done[ref] = true

		source, ok := n.scope.resolve(ref)
		if !ok {
			if unescaped, err := url.PathUnescape(ref); err == nil && unescaped != ref {
				source, ok = n.scope.resolve(unescaped)
			}
		}
		if !ok {
			n.logger.Debug("Media reference not found in bundle", "path", ref)
			continue
		}

		name := flattenMediaName(ref)
		if name == "" {
			continue
		}
		stored, scopeID, err := n.scope.register(ctx, source, name)
		if err != nil {
			n.logger.Warn("Failed to register media", "path", ref, "error", err)
			continue
		}
		itemID = scopeID
		text = strings.ReplaceAll(text, m[0], `"`+PluginFilePlaceholder+"/"+stored+`"`)
	}
	return text, itemID
}

// canonicalEncoding returns NFC UTF-8. Bytes that are not valid UTF-8 are
// read as Windows-1252, the usual legacy encoding of spreadsheet exports.
func canonicalEncoding(s string) string {
	if !utf8.ValidString(s) {
		decoded, err := charmap.Windows1252.NewDecoder().String(s)
		if err != nil {
			decoded = strings.ToValidUTF8(s, "�")
		}
		s = decoded
	}
	return norm.NFC.String(s)
}
