// -----------------------------------------------------------------------
// Package markdown converts markdown to HTML for pages and emails, and
// imports pasted HTML back into markdown for the admin editor
// -----------------------------------------------------------------------

package markdown

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts between markdown and HTML. Raw HTML in markdown is
// dropped on render, so stored content cannot inject markup.
type Renderer struct {
	md        goldmark.Markdown
	converter *htmltomarkdown.Converter
}

// NewRenderer creates a renderer with GitHub Flavored Markdown enabled
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Typographer),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				html.WithXHTML(),
			),
		),
		converter: htmltomarkdown.NewConverter("", true, nil),
	}
}

// ToHTML renders markdown to an HTML fragment
func (r *Renderer) ToHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// ToTemplateHTML renders markdown for use in html/template. On failure the
// markdown is shown escaped inside a pre block.
func (r *Renderer) ToTemplateHTML(markdown string) template.HTML {
	out, err := r.ToHTML(markdown)
	if err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(markdown) + "</pre>")
	}
	return template.HTML(out)
}

// FromHTML converts pasted HTML into markdown
func (r *Renderer) FromHTML(htmlContent string) (string, error) {
	out, err := r.converter.ConvertString(htmlContent)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// LooksLikeHTML reports whether content appears to be an HTML document or fragment
func LooksLikeHTML(content string) bool {
	trimmed := strings.TrimSpace(strings.ToLower(content))
	if !strings.HasPrefix(trimmed, "<") {
		return false
	}
	for _, tag := range []string{"<p", "<div", "<h1", "<h2", "<h3", "<ul", "<ol", "<html", "<body", "<article", "<section", "<table", "<br"} {
		if strings.HasPrefix(trimmed, tag) {
			return true
		}
	}
	return false
}
