package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/common"
	"github.com/ternarybob/serendib/internal/interfaces"
	"github.com/ternarybob/serendib/internal/models"
	"github.com/ternarybob/serendib/internal/services/markdown"
	"github.com/ternarybob/serendib/internal/services/validation"
)

// Document constrains PT to be a pointer to T that implements models.Document
type Document[T any] interface {
	*T
	models.Document
}

// Collection manages one content kind
type Collection[T any, PT Document[T]] struct {
	kind      models.ContentKind
	storage   interfaces.DocumentStorage[T]
	validator *validation.Service
	markdown  *markdown.Renderer
	events    interfaces.EventService
	logger    arbor.ILogger
	now       func() time.Time
}

// Kind returns the content kind this collection stores
func (c *Collection[T, PT]) Kind() models.ContentKind {
	return c.kind
}

// List returns documents newest first. publishedOnly hides drafts.
func (c *Collection[T, PT]) List(ctx context.Context, publishedOnly bool) ([]*T, error) {
	docs, err := c.storage.List(ctx)
	if err != nil {
		return nil, err
	}
	if !publishedOnly {
		return docs, nil
	}

	published := make([]*T, 0, len(docs))
	for _, doc := range docs {
		if PT(doc).IsPublished() {
			published = append(published, doc)
		}
	}
	return published, nil
}

// Get returns a document by ID
func (c *Collection[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	return c.storage.Get(ctx, id)
}

// GetBySlug returns a document by slug. Drafts are reported as not found
// when publishedOnly is set.
func (c *Collection[T, PT]) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*T, error) {
	doc, err := c.storage.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if publishedOnly && !PT(doc).IsPublished() {
		return nil, fmt.Errorf("%s slug %s: %w", c.kind, slug, interfaces.ErrNotFound)
	}
	return doc, nil
}

// Create validates and stores a new document, assigning its ID and slug
func (c *Collection[T, PT]) Create(ctx context.Context, doc *T) (*T, error) {
	p := PT(doc)
	p.SetDocID(common.NewID(idPrefix(c.kind)))

	if err := c.prepare(ctx, p); err != nil {
		return nil, err
	}
	p.Stamp(time.Time{}, c.now())

	if err := c.storage.Save(ctx, p.DocID(), doc); err != nil {
		return nil, err
	}

	c.changed(ctx, p, "created")
	return doc, nil
}

// Update replaces the document with ID id, keeping its creation time
func (c *Collection[T, PT]) Update(ctx context.Context, id string, doc *T) (*T, error) {
	existing, err := c.storage.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p := PT(doc)
	p.SetDocID(id)
	if err := c.prepare(ctx, p); err != nil {
		return nil, err
	}

	if post, ok := any(doc).(*models.BlogPost); ok && post.PublishedAt.IsZero() {
		post.PublishedAt = any(existing).(*models.BlogPost).PublishedAt
	}
	p.Stamp(PT(existing).CreatedTime(), c.now())

	if err := c.storage.Save(ctx, id, doc); err != nil {
		return nil, err
	}

	c.changed(ctx, p, "updated")
	return doc, nil
}

// Delete removes a document
func (c *Collection[T, PT]) Delete(ctx context.Context, id string) error {
	doc, err := c.storage.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := c.storage.Delete(ctx, id); err != nil {
		return err
	}
	c.changed(ctx, PT(doc), "deleted")
	return nil
}

// Count returns the number of stored documents, drafts included
func (c *Collection[T, PT]) Count(ctx context.Context) (int, error) {
	return c.storage.Count(ctx)
}

// RenderBody converts the document's markdown body to HTML
func (c *Collection[T, PT]) RenderBody(doc *T) template.HTML {
	return c.markdown.ToTemplateHTML(PT(doc).BodyMarkdown())
}

// prepare validates doc, converts pasted HTML to markdown and settles the slug
func (c *Collection[T, PT]) prepare(ctx context.Context, p PT) error {
	if fieldErrors := c.validator.Struct(p); fieldErrors != nil {
		return fieldErrors
	}

	if body := p.BodyMarkdown(); markdown.LooksLikeHTML(body) {
		converted, err := c.markdown.FromHTML(body)
		if err != nil {
			c.logger.Warn().Err(err).Str("kind", string(c.kind)).Msg("HTML import failed, keeping body as-is")
		} else {
			p.SetBodyMarkdown(converted)
		}
	}

	base := Slugify(p.DocSlug())
	if base == "" {
		base = Slugify(p.SlugSource())
	}
	if base == "" {
		base = strings.TrimPrefix(p.DocID(), idPrefix(c.kind)+"_")
	}

	slug, err := c.uniqueSlug(ctx, base, p.DocID())
	if err != nil {
		return err
	}
	p.SetDocSlug(slug)
	return nil
}

// uniqueSlug appends -2, -3, ... until no other document in the kind owns the slug
func (c *Collection[T, PT]) uniqueSlug(ctx context.Context, base, id string) (string, error) {
	slug := base
	for n := 2; ; n++ {
		existing, err := c.storage.GetBySlug(ctx, slug)
		if errors.Is(err, interfaces.ErrNotFound) {
			return slug, nil
		}
		if err != nil {
			return "", err
		}
		if PT(existing).DocID() == id {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

func (c *Collection[T, PT]) changed(ctx context.Context, p PT, action string) {
	c.logger.Info().
		Str("kind", string(c.kind)).
		Str("id", p.DocID()).
		Str("slug", p.DocSlug()).
		Str("action", action).
		Msg("Content changed")

	if c.events == nil {
		return
	}
	_ = c.events.Publish(ctx, interfaces.Event{
		Type: interfaces.EventContentChanged,
		Payload: map[string]interface{}{
			"kind":   string(c.kind),
			"id":     p.DocID(),
			"slug":   p.DocSlug(),
			"action": action,
		},
	})
}

// ----------------------------------------------------------------------------
// Kind-erased access for the admin JSON API
// ----------------------------------------------------------------------------

// Store is a content collection addressed without knowing its Go type
type Store interface {
	Kind() models.ContentKind
	ListAny(ctx context.Context, publishedOnly bool) (interface{}, error)
	GetAny(ctx context.Context, id string) (interface{}, error)
	CreateJSON(ctx context.Context, data []byte) (interface{}, error)
	UpdateJSON(ctx context.Context, id string, data []byte) (interface{}, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

func (c *Collection[T, PT]) ListAny(ctx context.Context, publishedOnly bool) (interface{}, error) {
	return c.List(ctx, publishedOnly)
}

func (c *Collection[T, PT]) GetAny(ctx context.Context, id string) (interface{}, error) {
	return c.Get(ctx, id)
}

func (c *Collection[T, PT]) CreateJSON(ctx context.Context, data []byte) (interface{}, error) {
	doc := new(T)
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return c.Create(ctx, doc)
}

func (c *Collection[T, PT]) UpdateJSON(ctx context.Context, id string, data []byte) (interface{}, error) {
	doc := new(T)
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return c.Update(ctx, id, doc)
}

func idPrefix(kind models.ContentKind) string {
	switch kind {
	case models.ContentKindTour:
		return "tour"
	case models.ContentKindDestination:
		return "dest"
	case models.ContentKindVehicle:
		return "veh"
	case models.ContentKindBlogPost:
		return "post"
	case models.ContentKindStory:
		return "story"
	}
	return "doc"
}
