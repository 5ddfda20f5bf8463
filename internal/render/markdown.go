// Package render turns changelog Markdown into HTML and renders the
// public read-only pages.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// md renders CommonMark plus tables, strikethrough and autolinks. Raw HTML
// in the source is dropped.
var md = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify),
)

// MarkdownToHTML converts changelog content to HTML.
func MarkdownToHTML(source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Excerpt returns the plain text of source, whitespace-collapsed and cut to
// at most max runes with an ellipsis.
func Excerpt(source string, max int) string {
	src := []byte(source)
	node := md.Parser().Parse(text.NewReader(src))

	var builder strings.Builder
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n.Kind() {
		case ast.KindText:
			t := n.(*ast.Text)
			builder.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				builder.WriteByte(' ')
			}
		case ast.KindCodeSpan:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					builder.Write(t.Segment.Value(src))
				}
			}
			return ast.WalkSkipChildren, nil
		case ast.KindParagraph, ast.KindHeading, ast.KindListItem:
			builder.WriteByte(' ')
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	plain := strings.Join(strings.Fields(builder.String()), " ")
	if max <= 0 || utf8.RuneCountInString(plain) <= max {
		return plain
	}
	runes := []rune(plain)
	return strings.TrimSpace(string(runes[:max])) + "..."
}
