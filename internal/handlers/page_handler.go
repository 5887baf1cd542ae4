package handlers

import (
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/interfaces"
	"github.com/ternarybob/serendib/internal/models"
	"github.com/ternarybob/serendib/internal/planner"
	"github.com/ternarybob/serendib/internal/services/content"
	"github.com/ternarybob/serendib/internal/services/seo"
	"github.com/ternarybob/serendib/internal/services/sessions"
)

const (
	homeFeaturedTours = 6
	homeStories       = 3
	homePosts         = 5
)

// PageHandler serves the public site: content pages, the trip planner page,
// sitemap, robots and static assets
type PageHandler struct {
	content       *content.Service
	sessions      *sessions.Manager
	seo           *seo.Builder
	pages         *PageRenderer
	static        http.Handler
	secureCookies bool
	logger        arbor.ILogger
}

// NewPageHandler creates the public page handler. static is the asset tree served under /static/.
func NewPageHandler(
	contentService *content.Service,
	manager *sessions.Manager,
	builder *seo.Builder,
	pages *PageRenderer,
	static fs.FS,
	secureCookies bool,
	logger arbor.ILogger,
) *PageHandler {
	return &PageHandler{
		content:       contentService,
		sessions:      manager,
		seo:           builder,
		pages:         pages,
		static:        http.StripPrefix("/static/", http.FileServer(http.FS(static))),
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// HomeHandler handles GET / and renders the not-found page for any unmatched path
func (h *PageHandler) HomeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.pages.Error(w, r, http.StatusNotFound)
		return
	}
	if !h.requireGet(w, r) {
		return
	}

	ctx := r.Context()
	tours, err := h.content.FeaturedTours(ctx, homeFeaturedTours)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to load featured tours")
	}
	stories, err := h.content.Stories.List(ctx, true)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to load stories")
	}
	posts, err := h.content.BlogPosts.List(ctx, true)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to load blog posts")
	}

	h.pages.Render(w, r, http.StatusOK, "home.html", "Sri Lanka tours and chauffeur holidays", "/", map[string]interface{}{
		"Tours":   tours,
		"Stories": headOf(stories, homeStories),
		"Posts":   headOf(posts, homePosts),
	})
}

// ToursHandler handles GET /tours and /tours/{slug}
func (h *PageHandler) ToursHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireGet(w, r) {
		return
	}
	if isIndex(r.URL.Path, "/tours") {
		h.renderList(w, r, h.content.Tours, "tours.html", "Tours", "/tours")
		return
	}

	tour, body, ok := loadPublished(h, w, r, h.content.Tours, "/tours/")
	if !ok {
		return
	}
	meta := h.seo.Article(tour.Title, r.URL.Path, tour.Summary, tour.Image, string(body), tour.Highlights)
	h.pages.RenderMeta(w, r, http.StatusOK, "tour.html", r.URL.Path, meta, map[string]interface{}{
		"Item": tour,
		"Body": body,
	})
}

// DestinationsHandler handles GET /destinations and /destinations/{slug}
func (h *PageHandler) DestinationsHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireGet(w, r) {
		return
	}
	if isIndex(r.URL.Path, "/destinations") {
		h.renderList(w, r, h.content.Destinations, "destinations.html", "Destinations", "/destinations")
		return
	}

	dest, body, ok := loadPublished(h, w, r, h.content.Destinations, "/destinations/")
	if !ok {
		return
	}
	tours, err := h.content.ToursVisiting(r.Context(), dest.Slug)
	if err != nil {
		h.logger.Warn().Err(err).Str("destination", dest.Slug).Msg("Failed to load tours for destination")
	}

	var keywords []string
	if dest.Province != "" {
		keywords = []string{dest.Province, "Sri Lanka"}
	}
	meta := h.seo.Article(dest.Name, r.URL.Path, dest.Summary, dest.Image, string(body), keywords)
	h.pages.RenderMeta(w, r, http.StatusOK, "destination.html", r.URL.Path, meta, map[string]interface{}{
		"Item":  dest,
		"Body":  body,
		"Tours": tours,
	})
}

// VehiclesHandler handles GET /vehicles
func (h *PageHandler) VehiclesHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireGet(w, r) {
		return
	}
	h.renderList(w, r, h.content.Vehicles, "vehicles.html", "Vehicles and chauffeurs", "/vehicles")
}

// BlogHandler handles GET /blog and /blog/{slug}
func (h *PageHandler) BlogHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireGet(w, r) {
		return
	}
	if isIndex(r.URL.Path, "/blog") {
		h.renderList(w, r, h.content.BlogPosts, "blog.html", "Blog", "/blog")
		return
	}

	post, body, ok := loadPublished(h, w, r, h.content.BlogPosts, "/blog/")
	if !ok {
		return
	}
	meta := h.seo.Article(post.Title, r.URL.Path, "", post.Cover, string(body), post.Tags)
	h.pages.RenderMeta(w, r, http.StatusOK, "post.html", r.URL.Path, meta, map[string]interface{}{
		"Item": post,
		"Body": body,
	})
}

// StoriesHandler handles GET /stories and /stories/{slug}
func (h *PageHandler) StoriesHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireGet(w, r) {
		return
	}
	if isIndex(r.URL.Path, "/stories") {
		h.renderList(w, r, h.content.Stories, "stories.html", "Traveller stories", "/stories")
		return
	}

	story, body, ok := loadPublished(h, w, r, h.content.Stories, "/stories/")
	if !ok {
		return
	}
	meta := h.seo.Article(story.Title, r.URL.Path, "", story.Image, string(body), nil)
	h.pages.RenderMeta(w, r, http.StatusOK, "story.html", r.URL.Path, meta, map[string]interface{}{
		"Item": story,
		"Body": body,
	})
}

// PlanTripHandler handles GET /plan-trip?province=&q=&add=
// The page is rendered from the caller's planner session so it is usable before the script loads.
func (h *PageHandler) PlanTripHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireGet(w, r) {
		return
	}

	session := plannerSession(h.sessions, h.secureCookies, w, r)
	catalog := session.Catalog
	query := r.URL.Query()

	if add := query.Get("add"); add != "" {
		if !session.AddPlace(add) {
			h.logger.Debug().Str("place_id", add).Msg("Ignoring unknown place in add link")
		}
	}

	provinceID := query.Get("province")
	if _, ok := catalog.Province(provinceID); !ok {
		provinceID = catalog.DefaultProvinceID()
	}
	search := query.Get("q")
	places := planner.Filter(catalog, provinceID, search)

	h.pages.Render(w, r, http.StatusOK, "plan-trip.html", "Plan your Sri Lanka trip", "/plan-trip", map[string]interface{}{
		"ActiveProvince": provinceID,
		"Tabs":           planner.Tabs(catalog, provinceID),
		"Places":         planner.Cards(places, session.Selection),
		"Query":          search,
		"Itinerary":      planner.RenderItinerary(session.Selection.Places()),
	})
}

// ContactHandler handles GET /contact?tour={id}
func (h *PageHandler) ContactHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireGet(w, r) {
		return
	}

	var tour *models.Tour
	if id := r.URL.Query().Get("tour"); id != "" {
		found, err := h.content.Tours.Get(r.Context(), id)
		if err == nil && found.Published {
			tour = found
		}
	}

	h.pages.Render(w, r, http.StatusOK, "contact.html", "Contact us", "/contact", map[string]interface{}{
		"Tour": tour,
	})
}

// AboutHandler handles GET /about
func (h *PageHandler) AboutHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireGet(w, r) {
		return
	}
	h.pages.Render(w, r, http.StatusOK, "about.html", "About us", "/about", nil)
}

// SitemapHandler handles GET /sitemap.xml, built from published content on each request
func (h *PageHandler) SitemapHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	entries, err := h.seo.SitemapEntries(r.Context(), h.content)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build sitemap entries")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	data, err := seo.Sitemap(entries)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode sitemap")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Write(data)
}

// RobotsHandler handles GET /robots.txt
func (h *PageHandler) RobotsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(h.seo.Robots()))
}

// StaticFileHandler serves embedded CSS, JS and images under /static/
func (h *PageHandler) StaticFileHandler(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/") {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	h.static.ServeHTTP(w, r)
}

// ContentAPIHandler handles GET /api/content/{kind} and /api/content/{kind}/{slug}.
// Only published documents are visible.
func (h *PageHandler) ContentAPIHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/content/"), "/"), "/")
	kind, ok := models.ParseContentKind(parts[0])
	if !ok || len(parts) > 2 {
		WriteError(w, http.StatusNotFound, "Unknown content kind")
		return
	}

	if len(parts) == 1 {
		h.writePublishedList(w, r, kind)
		return
	}
	h.writePublishedItem(w, r, kind, parts[1])
}

func (h *PageHandler) writePublishedList(w http.ResponseWriter, r *http.Request, kind models.ContentKind) {
	store, _ := h.content.Store(kind)
	docs, err := store.ListAny(r.Context(), true)
	if err != nil {
		h.logger.Error().Err(err).Str("kind", string(kind)).Msg("Failed to list content")
		WriteError(w, http.StatusInternalServerError, "Failed to list content")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"kind":  kind,
		"items": docs,
	})
}

func (h *PageHandler) writePublishedItem(w http.ResponseWriter, r *http.Request, kind models.ContentKind, slug string) {
	var (
		doc interface{}
		err error
	)
	ctx := r.Context()
	switch kind {
	case models.ContentKindTour:
		doc, err = h.content.Tours.GetBySlug(ctx, slug, true)
	case models.ContentKindDestination:
		doc, err = h.content.Destinations.GetBySlug(ctx, slug, true)
	case models.ContentKindVehicle:
		doc, err = h.content.Vehicles.GetBySlug(ctx, slug, true)
	case models.ContentKindBlogPost:
		doc, err = h.content.BlogPosts.GetBySlug(ctx, slug, true)
	case models.ContentKindStory:
		doc, err = h.content.Stories.GetBySlug(ctx, slug, true)
	}

	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		WriteError(w, http.StatusNotFound, "Not found")
	case err != nil:
		h.logger.Error().Err(err).Str("kind", string(kind)).Str("slug", slug).Msg("Failed to load content")
		WriteError(w, http.StatusInternalServerError, "Failed to load content")
	default:
		WriteJSON(w, http.StatusOK, doc)
	}
}

// requireGet allows GET and HEAD, rendering the error page otherwise
func (h *PageHandler) requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	h.pages.Error(w, r, http.StatusMethodNotAllowed)
	return false
}

// renderList renders the published documents of a collection as Data.Items
func (h *PageHandler) renderList(w http.ResponseWriter, r *http.Request, store content.Store, name, title, path string) {
	items, err := store.ListAny(r.Context(), true)
	if err != nil {
		h.logger.Error().Err(err).Str("kind", string(store.Kind())).Msg("Failed to list content")
		h.pages.Error(w, r, http.StatusInternalServerError)
		return
	}
	h.pages.Render(w, r, http.StatusOK, name, title, path, map[string]interface{}{
		"Items": items,
	})
}

// loadPublished fetches the published document named by the path segment after
// prefix and renders its body. It writes the error page and returns false on failure.
func loadPublished[T any, PT content.Document[T]](h *PageHandler, w http.ResponseWriter, r *http.Request, coll *content.Collection[T, PT], prefix string) (*T, template.HTML, bool) {
	slug := PathID(r.URL.Path, prefix)
	if slug == "" {
		h.pages.Error(w, r, http.StatusNotFound)
		return nil, "", false
	}

	doc, err := coll.GetBySlug(r.Context(), slug, true)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			h.pages.Error(w, r, http.StatusNotFound)
		} else {
			h.logger.Error().Err(err).Str("kind", string(coll.Kind())).Str("slug", slug).Msg("Failed to load page content")
			h.pages.Error(w, r, http.StatusInternalServerError)
		}
		return nil, "", false
	}
	return doc, coll.RenderBody(doc), true
}

func isIndex(path, root string) bool {
	return path == root || path == root+"/"
}

func headOf[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
