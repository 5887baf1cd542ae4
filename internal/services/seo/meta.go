// -----------------------------------------------------------------------
// Package seo builds page metadata, sitemap.xml and robots.txt
// -----------------------------------------------------------------------

package seo

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/serendib/internal/common"
)

// DescriptionLength is the rune limit for meta descriptions
const DescriptionLength = 160

// Meta is the head metadata for one page
type Meta struct {
	Title       string
	Description string
	Canonical   string
	Image       string
	Type        string // Open Graph type: website or article
	Keywords    []string
	SiteName    string
	NoIndex     bool
}

// FullTitle appends the site name unless the title already is the site name
func (m Meta) FullTitle() string {
	if m.Title == "" || m.Title == m.SiteName {
		return m.SiteName
	}
	return m.Title + " | " + m.SiteName
}

// KeywordList joins the keywords for the keywords meta tag
func (m Meta) KeywordList() string {
	return strings.Join(m.Keywords, ", ")
}

// Builder creates Meta values for the configured site
type Builder struct {
	site common.SiteConfig
}

// NewBuilder creates a metadata builder
func NewBuilder(site common.SiteConfig) *Builder {
	return &Builder{site: site}
}

// Page builds metadata for a static page
func (b *Builder) Page(title, path, description string) Meta {
	if description == "" {
		description = b.site.Description
	}
	return Meta{
		Title:       title,
		Description: truncate(description, DescriptionLength),
		Canonical:   b.Absolute(path),
		Image:       b.Absolute("/static/images/og-default.svg"),
		Type:        "website",
		SiteName:    b.site.Name,
	}
}

// Article builds metadata for a content page from its rendered HTML body.
// summary wins over the excerpt; image falls back to the first image in the body.
func (b *Builder) Article(title, path, summary, image, bodyHTML string, keywords []string) Meta {
	meta := b.Page(title, path, "")
	meta.Type = "article"
	meta.Keywords = keywords

	description := strings.TrimSpace(summary)
	if description == "" {
		description = Excerpt(bodyHTML, DescriptionLength)
	}
	if description != "" {
		meta.Description = truncate(description, DescriptionLength)
	}

	if image == "" {
		image = FirstImage(bodyHTML)
	}
	if image != "" {
		meta.Image = b.Absolute(image)
	}
	return meta
}

// Absolute resolves path against the configured base URL
func (b *Builder) Absolute(path string) string {
	if path == "" {
		return ""
	}
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	base := strings.TrimSuffix(b.site.BaseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// Excerpt returns the text of the first non-empty paragraph in htmlContent,
// truncated to max runes on a word boundary
func Excerpt(htmlContent string, max int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var text string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text = collapse(s.Text())
		return text == ""
	})
	if text == "" {
		text = collapse(doc.Text())
	}
	return truncate(text, max)
}

// FirstImage returns the src of the first img element, or ""
func FirstImage(htmlContent string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	s = collapse(s)
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}

	runes := []rune(s)
	cut := string(runes[:max-1])
	if i := strings.LastIndex(cut, " "); i > len(cut)/2 {
		cut = cut[:i]
	}
	return fmt.Sprintf("%s…", strings.TrimRight(cut, " ,.;:"))
}
