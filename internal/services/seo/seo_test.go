package seo

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/common"
	"github.com/ternarybob/serendib/internal/models"
	"github.com/ternarybob/serendib/internal/services/content"
	"github.com/ternarybob/serendib/internal/storage/badger"
)

func testBuilder() *Builder {
	return NewBuilder(common.SiteConfig{
		Name:        "Serendib Journeys",
		BaseURL:     "https://serendib.test/",
		Description: "Private tours across Sri Lanka.",
	})
}

func TestExcerpt_FirstParagraph(t *testing.T) {
	html := `<h1>Ella</h1><p>  </p><p>Ella is a   small town
	in the hills.</p><p>Second paragraph.</p>`
	assert.Equal(t, "Ella is a small town in the hills.", Excerpt(html, 160))
}

func TestExcerpt_Truncates(t *testing.T) {
	long := "<p>" + strings.Repeat("Sigiriya rock fortress ", 20) + "</p>"
	excerpt := Excerpt(long, DescriptionLength)
	assert.LessOrEqual(t, utf8.RuneCountInString(excerpt), DescriptionLength)
	assert.True(t, strings.HasSuffix(excerpt, "…"))
	assert.True(t, strings.HasPrefix(excerpt, "Sigiriya rock fortress"))
}

func TestExcerpt_NoParagraph(t *testing.T) {
	assert.Equal(t, "Just text", Excerpt("<div>Just <b>text</b></div>", 160))
	assert.Equal(t, "", Excerpt("", 160))
}

func TestFirstImage(t *testing.T) {
	assert.Equal(t, "/img/a.jpg", FirstImage(`<p>x</p><img src="/img/a.jpg"><img src="/img/b.jpg">`))
	assert.Equal(t, "", FirstImage(`<p>none</p>`))
}

func TestPageAndArticle(t *testing.T) {
	b := testBuilder()

	page := b.Page("Tours", "/tours", "")
	assert.Equal(t, "Tours | Serendib Journeys", page.FullTitle())
	assert.Equal(t, "https://serendib.test/tours", page.Canonical)
	assert.Equal(t, "Private tours across Sri Lanka.", page.Description)
	assert.Equal(t, "website", page.Type)

	article := b.Article("Galle Fort", "/destinations/galle-fort", "",
		"", `<p>Walk the ramparts at sunset.</p><img src="/static/galle.jpg">`, []string{"galle", "fort"})
	assert.Equal(t, "article", article.Type)
	assert.Equal(t, "Walk the ramparts at sunset.", article.Description)
	assert.Equal(t, "https://serendib.test/static/galle.jpg", article.Image)
	assert.Equal(t, "galle, fort", article.KeywordList())

	withSummary := b.Article("Galle Fort", "/destinations/galle-fort", "Colonial fort", "https://cdn.test/g.jpg", "<p>Body</p>", nil)
	assert.Equal(t, "Colonial fort", withSummary.Description)
	assert.Equal(t, "https://cdn.test/g.jpg", withSummary.Image)
}

func TestRobots(t *testing.T) {
	robots := testBuilder().Robots()
	assert.Contains(t, robots, "Disallow: /admin")
	assert.Contains(t, robots, "Sitemap: https://serendib.test/sitemap.xml")
}

func TestSitemap(t *testing.T) {
	logger := arbor.NewLogger()
	storage, err := badger.NewManager(logger, &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "db")})
	require.NoError(t, err)
	defer storage.Close()

	svc := content.NewService(storage, nil, logger)
	ctx := context.Background()
	_, err = svc.Tours.Create(ctx, &models.Tour{Title: "Cultural Triangle", DurationDays: 4, Published: true})
	require.NoError(t, err)
	_, err = svc.Tours.Create(ctx, &models.Tour{Title: "Secret draft", DurationDays: 4})
	require.NoError(t, err)
	_, err = svc.BlogPosts.Create(ctx, &models.BlogPost{Title: "Monsoon guide", Published: true})
	require.NoError(t, err)

	b := testBuilder()
	entries, err := b.SitemapEntries(ctx, svc)
	require.NoError(t, err)
	assert.Len(t, entries, len(StaticPaths)+2)

	data, err := Sitemap(entries)
	require.NoError(t, err)
	xml := string(data)
	assert.Contains(t, xml, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	assert.Contains(t, xml, "<loc>https://serendib.test/tours/cultural-triangle</loc>")
	assert.Contains(t, xml, "<loc>https://serendib.test/blog/monsoon-guide</loc>")
	assert.NotContains(t, xml, "secret-draft")
}
