package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/common"
	"github.com/ternarybob/serendib/internal/services/seo"
	"github.com/ternarybob/serendib/pages"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PageData is the root object every page template receives
type PageData struct {
	Site common.SiteConfig
	Meta seo.Meta
	Page string // first path segment, used for the active nav link
	Data interface{}
	Year int
}

// PageRenderer executes the embedded page templates
type PageRenderer struct {
	templates *template.Template
	site      common.SiteConfig
	seo       *seo.Builder
	logger    arbor.ILogger
}

// NewPageRenderer parses every embedded template
func NewPageRenderer(site common.SiteConfig, builder *seo.Builder, logger arbor.ILogger) (*PageRenderer, error) {
	templates, err := template.New("").Funcs(templateFuncs()).ParseFS(pages.Templates(), "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	return &PageRenderer{
		templates: templates,
		site:      site,
		seo:       builder,
		logger:    logger,
	}, nil
}

// Render executes a page with metadata built from title, path and the site description
func (p *PageRenderer) Render(w http.ResponseWriter, r *http.Request, status int, name, title, path string, data interface{}) {
	meta := p.seo.Page(title, path, "")
	if strings.HasPrefix(path, "/admin") {
		meta.NoIndex = true
	}
	p.RenderMeta(w, r, status, name, path, meta, data)
}

// RenderMeta executes a page with caller-supplied metadata
func (p *PageRenderer) RenderMeta(w http.ResponseWriter, r *http.Request, status int, name, path string, meta seo.Meta, data interface{}) {
	page := PageData{
		Site: p.site,
		Meta: meta,
		Page: pageKey(path),
		Data: data,
		Year: time.Now().Year(),
	}

	// Buffer so a template error still produces a clean 500
	var buf bytes.Buffer
	if err := p.templates.ExecuteTemplate(&buf, name, page); err != nil {
		p.logger.Error().
			Err(err).
			Str("template", name).
			Str("path", r.URL.Path).
			Msg("Failed to render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// Error renders the error page for an HTTP status
func (p *PageRenderer) Error(w http.ResponseWriter, r *http.Request, status int) {
	message := "Something went wrong on our side. Please try again in a moment."
	if status == http.StatusNotFound {
		message = "We could not find the page you were looking for."
	}

	meta := p.seo.Page(http.StatusText(status), r.URL.Path, message)
	meta.NoIndex = true
	meta.Canonical = ""
	p.RenderMeta(w, r, status, "error.html", r.URL.Path, meta, map[string]interface{}{
		"Status":  status,
		"Message": message,
	})
}

// NotFound renders the 404 page
func (p *PageRenderer) NotFound(w http.ResponseWriter, r *http.Request) {
	p.Error(w, r, http.StatusNotFound)
}

func pageKey(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return "home"
	}
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}

var pricePrinter = message.NewPrinter(language.English)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"price":    formatPrice,
		"stars":    formatStars,
		"date":     formatDate,
		"datetime": formatDateTime,
	}
}

// formatPrice renders a whole-unit amount with thousands separators, e.g. "USD 1,250"
func formatPrice(amount float64, currency string) string {
	if currency == "" {
		currency = "USD"
	}
	return pricePrinter.Sprintf("%s %.0f", strings.ToUpper(currency), amount)
}

func formatStars(rating int) string {
	rating = max(0, min(rating, 5))
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 January 2006")
}

// formatDateTime accepts time.Time or *time.Time; nil and zero render as a dash
func formatDateTime(v interface{}) string {
	var t time.Time
	switch tv := v.(type) {
	case time.Time:
		t = tv
	case *time.Time:
		if tv != nil {
			t = *tv
		}
	}
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
