package domain

import (
	"context"
)

// Post represents a blog post
// A post is stored as a Markdown file with a front matter header at a path derived from its slug.
// Revision is the blob SHA the post was read at and is empty for posts that do not exist yet.
type Post struct {
	Slug      string
	Title     string
	Date      string
	Content   string
	Published bool
	Category  string
	Excerpt   string
	Revision  string
}

// PostMeta is the listing projection of a Post. Excerpt is always populated.
type PostMeta struct {
	Slug      string
	Title     string
	Date      string
	Published bool
	Category  string
	Excerpt   string
	Revision  string
}

// Meta projects the post onto its listing form, using excerpt for the Excerpt field.
func (p *Post) Meta(excerpt string) *PostMeta {
	return &PostMeta{
		Slug:      p.Slug,
		Title:     p.Title,
		Date:      p.Date,
		Published: p.Published,
		Category:  p.Category,
		Excerpt:   excerpt,
		Revision:  p.Revision,
	}
}

// PostIndex is a full listing of the posts directory. Malformed holds the slugs of files
// that could not be read as posts.
type PostIndex struct {
	Posts     []*PostMeta
	Malformed []string
}

type PostRepository interface {
	// List returns every post sorted by date, newest first. A missing posts directory yields an empty list.
	List(ctx context.Context) ([]*PostMeta, error)

	// Index is List plus the slugs of skipped malformed files.
	Index(ctx context.Context) (*PostIndex, error)

	// Get returns nil without an error when the post does not exist.
	Get(ctx context.Context, slug string) (*Post, error)

	// Create writes a new post and returns its revision.
	Create(ctx context.Context, p *Post) (string, error)

	// Update overwrites an existing post; p.Revision must be the last observed revision.
	Update(ctx context.Context, p *Post) (string, error)

	// Save creates the post when p.Revision is empty and updates it otherwise.
	Save(ctx context.Context, p *Post) (string, error)

	Delete(ctx context.Context, slug string, revision string) error
}
