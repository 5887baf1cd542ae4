package seo

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/serendib/internal/services/content"
)

// StaticPaths are the public pages listed in every sitemap
var StaticPaths = []string{
	"/", "/tours", "/destinations", "/vehicles", "/blog", "/stories",
	"/plan-trip", "/contact", "/about",
}

// SitemapEntry is one url element
type SitemapEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name       `xml:"urlset"`
	Xmlns   string         `xml:"xmlns,attr"`
	URLs    []SitemapEntry `xml:"url"`
}

// SitemapEntries lists the static pages plus every published content page
func (b *Builder) SitemapEntries(ctx context.Context, svc *content.Service) ([]SitemapEntry, error) {
	entries := make([]SitemapEntry, 0, len(StaticPaths))
	for _, path := range StaticPaths {
		priority := "0.6"
		if path == "/" {
			priority = "1.0"
		}
		entries = append(entries, SitemapEntry{Loc: b.Absolute(path), ChangeFreq: "weekly", Priority: priority})
	}

	add := func(prefix, slug string, updated time.Time, priority string) {
		entries = append(entries, SitemapEntry{
			Loc:      b.Absolute(prefix + "/" + slug),
			LastMod:  lastMod(updated),
			Priority: priority,
		})
	}

	tours, err := svc.Tours.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list tours for sitemap: %w", err)
	}
	for _, t := range tours {
		add("/tours", t.Slug, t.UpdatedAt, "0.8")
	}

	destinations, err := svc.Destinations.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list destinations for sitemap: %w", err)
	}
	for _, d := range destinations {
		add("/destinations", d.Slug, d.UpdatedAt, "0.7")
	}

	posts, err := svc.BlogPosts.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog posts for sitemap: %w", err)
	}
	for _, p := range posts {
		add("/blog", p.Slug, p.UpdatedAt, "0.5")
	}

	stories, err := svc.Stories.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories for sitemap: %w", err)
	}
	for _, s := range stories {
		add("/stories", s.Slug, s.UpdatedAt, "0.4")
	}

	return entries, nil
}

// Sitemap encodes entries as a sitemaps.org urlset document
func Sitemap(entries []SitemapEntry) ([]byte, error) {
	out, err := xml.MarshalIndent(urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  entries,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode sitemap: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// Robots returns robots.txt content. Admin and API paths are disallowed.
func (b *Builder) Robots() string {
	var sb strings.Builder
	sb.WriteString("User-agent: *\n")
	sb.WriteString("Disallow: /admin\n")
	sb.WriteString("Disallow: /api/\n")
	sb.WriteString("Disallow: /ws/\n")
	sb.WriteString("Allow: /\n\n")
	fmt.Fprintf(&sb, "Sitemap: %s\n", b.Absolute("/sitemap.xml"))
	return sb.String()
}

func lastMod(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
