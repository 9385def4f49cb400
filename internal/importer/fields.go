package importer

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/SAP-F-2025/question-import-service/internal/models"
)

const (
	defaultNameLength    = 80
	fallbackQuestionName = "Imported question"
)

// htmlEscaper escapes markup characters but leaves quotes alone.
var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// questionName returns the escaped name cell, or a name derived from the
// question text when the cell is blank.
func questionName(row Row) string {
	if name := escapeHTML(strings.TrimSpace(row.Cell(ColName))); name != "" {
		return name
	}
	return defaultQuestionName(row.Cell(ColText))
}

// defaultQuestionName strips markup from the question text and shortens it.
func defaultQuestionName(text string) string {
	plain := strings.Join(strings.Fields(plainText(DecodeEscapes(text))), " ")
	if plain == "" {
		return fallbackQuestionName
	}
	if utf8.RuneCountInString(plain) > defaultNameLength {
		runes := []rune(plain)
		plain = strings.TrimSpace(string(runes[:defaultNameLength-3])) + "..."
	}
	return escapeHTML(plain)
}

var blockTags = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "tr": true, "td": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

func plainText(fragment string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if blockTags[string(name)] {
				b.WriteByte(' ')
			}
		}
	}
}

// defaultMark reads the mark column; blank, unparsable and non-positive
// values fall back to models.DefaultMark.
func defaultMark(row Row) float64 {
	raw := strings.TrimSpace(row.Cell(ColDefaultMark))
	if raw == "" {
		return models.DefaultMark
	}
	mark, err := strconv.ParseFloat(raw, 64)
	if err != nil || mark <= 0 || math.IsInf(mark, 0) || math.IsNaN(mark) {
		return models.DefaultMark
	}
	return mark
}
