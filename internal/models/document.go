package models

import "time"

// Document is the behaviour shared by every content kind. The admin API and
// content service work through it so all five kinds share one CRUD path.
type Document interface {
	DocID() string
	SetDocID(id string)
	DocSlug() string
	SetDocSlug(slug string)
	SlugSource() string // text the slug is derived from when none is given
	IsPublished() bool
	BodyMarkdown() string
	SetBodyMarkdown(body string)
	CreatedTime() time.Time
	Stamp(created time.Time, now time.Time) // created is zero for new documents
}

func (t *Tour) CreatedTime() time.Time { return t.CreatedAt }
func (t *Tour) DocID() string { return t.ID }
func (t *Tour) SetDocID(id string) { t.ID = id }
func (t *Tour) DocSlug() string { return t.Slug }
func (t *Tour) SetDocSlug(slug string) { t.Slug = slug }
func (t *Tour) SlugSource() string { return t.Title }
func (t *Tour) IsPublished() bool { return t.Published }
func (t *Tour) BodyMarkdown() string { return t.Body }
func (t *Tour) SetBodyMarkdown(body string) { t.Body = body }
func (t *Tour) Stamp(created, now time.Time) { t.CreatedAt, t.UpdatedAt = stampCreated(created, now), now }

func (d *Destination) CreatedTime() time.Time { return d.CreatedAt }
func (d *Destination) DocID() string { return d.ID }
func (d *Destination) SetDocID(id string) { d.ID = id }
func (d *Destination) DocSlug() string { return d.Slug }
func (d *Destination) SetDocSlug(slug string) { d.Slug = slug }
func (d *Destination) SlugSource() string { return d.Name }
func (d *Destination) IsPublished() bool { return d.Published }
func (d *Destination) BodyMarkdown() string { return d.Body }
func (d *Destination) SetBodyMarkdown(body string) { d.Body = body }
func (d *Destination) Stamp(created, now time.Time) { d.CreatedAt, d.UpdatedAt = stampCreated(created, now), now }

// Vehicles have no long-form body
func (v *Vehicle) CreatedTime() time.Time { return v.CreatedAt }
func (v *Vehicle) DocID() string { return v.ID }
func (v *Vehicle) SetDocID(id string) { v.ID = id }
func (v *Vehicle) DocSlug() string { return v.Slug }
func (v *Vehicle) SetDocSlug(slug string) { v.Slug = slug }
func (v *Vehicle) SlugSource() string { return v.Name }
func (v *Vehicle) IsPublished() bool { return v.Published }
func (v *Vehicle) BodyMarkdown() string { return "" }
func (v *Vehicle) SetBodyMarkdown(string) {}
func (v *Vehicle) Stamp(created, now time.Time) { v.CreatedAt, v.UpdatedAt = stampCreated(created, now), now }

func (b *BlogPost) CreatedTime() time.Time { return b.CreatedAt }
func (b *BlogPost) DocID() string { return b.ID }
func (b *BlogPost) SetDocID(id string) { b.ID = id }
func (b *BlogPost) DocSlug() string { return b.Slug }
func (b *BlogPost) SetDocSlug(slug string) { b.Slug = slug }
func (b *BlogPost) SlugSource() string { return b.Title }
func (b *BlogPost) IsPublished() bool { return b.Published }
func (b *BlogPost) BodyMarkdown() string { return b.Body }
func (b *BlogPost) SetBodyMarkdown(body string) { b.Body = body }

// Stamp also sets PublishedAt the first time a post is published
func (b *BlogPost) Stamp(created, now time.Time) {
	b.CreatedAt, b.UpdatedAt = stampCreated(created, now), now
	if b.Published && b.PublishedAt.IsZero() {
		b.PublishedAt = now
	}
}

func (s *Story) CreatedTime() time.Time { return s.CreatedAt }
func (s *Story) DocID() string { return s.ID }
func (s *Story) SetDocID(id string) { s.ID = id }
func (s *Story) DocSlug() string { return s.Slug }
func (s *Story) SetDocSlug(slug string) { s.Slug = slug }
func (s *Story) SlugSource() string { return s.Title }
func (s *Story) IsPublished() bool { return s.Published }
func (s *Story) BodyMarkdown() string { return s.Body }
func (s *Story) SetBodyMarkdown(body string) { s.Body = body }
func (s *Story) Stamp(created, now time.Time) { s.CreatedAt, s.UpdatedAt = stampCreated(created, now), now }

func stampCreated(created, now time.Time) time.Time {
	if created.IsZero() {
		return now
	}
	return created
}
