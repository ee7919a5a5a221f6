package persistence

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/dfryer1193/repoblog/blog/document"
	"github.com/dfryer1193/repoblog/blog/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var _ domain.PostRepository = (*GitPostRepository)(nil)

const postExt = ".md"

// GitPostRepository implements domain.PostRepository on top of a versioned file tree.
// Each post is one Markdown file with a front matter header, named after its slug.
type GitPostRepository struct {
	source      domain.SourceRepository
	dir         string
	concurrency int
}

// NewPostRepository creates a new GitPostRepository reading and writing below cfg.PostsPath.
func NewPostRepository(source domain.SourceRepository, cfg Config) *GitPostRepository {
	cfg = cfg.withDefaults()
	return &GitPostRepository{
		source:      source,
		dir:         cfg.PostsPath,
		concurrency: cfg.FetchConcurrency,
	}
}

// List reads every post file concurrently and returns their metadata, newest first.
// Posts sharing a date keep the order of the directory listing.
func (r *GitPostRepository) List(ctx context.Context) ([]*domain.PostMeta, error) {
	index, err := r.Index(ctx)
	if err != nil {
		return nil, err
	}
	return index.Posts, nil
}

// Index reads every post under the posts directory. Files that do not parse as posts are
// left out of Posts and their slugs reported in Malformed.
func (r *GitPostRepository) Index(ctx context.Context) (*domain.PostIndex, error) {
	entries, err := r.source.ListDirectory(ctx, r.dir)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.PostIndex{Posts: []*domain.PostMeta{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	files := make([]domain.FileEntry, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name, postExt) {
			files = append(files, e)
		}
	}

	metas := make([]*domain.PostMeta, len(files))
	malformed := make([]bool, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, entry := range files {
		g.Go(func() error {
			slug := strings.TrimSuffix(entry.Name, postExt)

			file, err := r.source.ReadFile(gctx, entry.Path)
			if errors.Is(err, domain.ErrNotFound) {
				// Deleted between the listing and the read.
				log.Warn().Str("slug", slug).Msg("Post disappeared while listing")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read post %s: %w", slug, err)
			}

			post, doc, err := decodePost(slug, file)
			if errors.Is(err, domain.ErrMalformedDocument) {
				log.Error().Err(err).Str("slug", slug).Msg("Skipping malformed post")
				malformed[i] = true
				return nil
			}
			if err != nil {
				return err
			}

			if post.Title == "" {
				post.Title = slug
			}
			metas[i] = post.Meta(excerptFor(doc))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := &domain.PostIndex{Posts: make([]*domain.PostMeta, 0, len(metas))}
	for i, m := range metas {
		if m != nil {
			index.Posts = append(index.Posts, m)
		}
		if malformed[i] {
			index.Malformed = append(index.Malformed, strings.TrimSuffix(files[i].Name, postExt))
		}
	}

	sort.SliceStable(index.Posts, func(i, j int) bool {
		return index.Posts[i].Date > index.Posts[j].Date
	})
	sort.Strings(index.Malformed)
	return index, nil
}

// Get returns the post stored under slug, or nil if there is none.
func (r *GitPostRepository) Get(ctx context.Context, slug string) (*domain.Post, error) {
	if !domain.SafeSlug(slug) {
		return nil, fmt.Errorf("post %q: %w", slug, domain.ErrInvalidSlug)
	}

	file, err := r.source.ReadFile(ctx, r.postPath(slug))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post %s: %w", slug, err)
	}

	post, _, err := decodePost(slug, file)
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Create writes a new post file. It fails with domain.ErrAlreadyExists if the slug is taken.
func (r *GitPostRepository) Create(ctx context.Context, p *domain.Post) (string, error) {
	if p == nil {
		return "", fmt.Errorf("post cannot be nil: %w", domain.ErrInvalidPost)
	}
	if !domain.ValidSlug(p.Slug) {
		return "", fmt.Errorf("post %q: %w", p.Slug, domain.ErrInvalidSlug)
	}

	raw, err := encodePost(p)
	if err != nil {
		return "", err
	}

	rev, err := r.source.WriteFile(ctx, r.postPath(p.Slug), raw, "", "Create post: "+p.Slug)
	if err != nil {
		return "", fmt.Errorf("failed to create post %s: %w", p.Slug, err)
	}
	return rev, nil
}

// Update overwrites an existing post file, guarded by p.Revision.
func (r *GitPostRepository) Update(ctx context.Context, p *domain.Post) (string, error) {
	if p == nil {
		return "", fmt.Errorf("post cannot be nil: %w", domain.ErrInvalidPost)
	}
	if !domain.SafeSlug(p.Slug) {
		return "", fmt.Errorf("post %q: %w", p.Slug, domain.ErrInvalidSlug)
	}
	if p.Revision == "" {
		return "", fmt.Errorf("updating post %s: %w", p.Slug, domain.ErrRevisionRequired)
	}

	raw, err := encodePost(p)
	if err != nil {
		return "", err
	}

	rev, err := r.source.WriteFile(ctx, r.postPath(p.Slug), raw, p.Revision, "Update post: "+p.Slug)
	if err != nil {
		return "", fmt.Errorf("failed to update post %s: %w", p.Slug, err)
	}
	return rev, nil
}

// Save creates the post when it carries no revision and updates it otherwise.
func (r *GitPostRepository) Save(ctx context.Context, p *domain.Post) (string, error) {
	if p != nil && p.Revision != "" {
		return r.Update(ctx, p)
	}
	return r.Create(ctx, p)
}

func (r *GitPostRepository) Delete(ctx context.Context, slug string, revision string) error {
	if !domain.SafeSlug(slug) {
		return fmt.Errorf("post %q: %w", slug, domain.ErrInvalidSlug)
	}
	if revision == "" {
		return fmt.Errorf("deleting post %s: %w", slug, domain.ErrRevisionRequired)
	}

	if err := r.source.DeleteFile(ctx, r.postPath(slug), revision, "Delete post: "+slug); err != nil {
		return fmt.Errorf("failed to delete post %s: %w", slug, err)
	}
	return nil
}

func (r *GitPostRepository) postPath(slug string) string {
	return path.Join(r.dir, slug+postExt)
}

// decodePost converts a stored file into a domain.Post. Excerpt is only set when the header has one.
func decodePost(slug string, file *domain.FileContent) (*domain.Post, *document.Document, error) {
	doc, err := document.Parse(file.Content)
	if err != nil {
		return nil, nil, fmt.Errorf("post %s: %w", slug, err)
	}
	if len(doc.UnknownKeys) > 0 {
		log.Debug().Str("slug", slug).Strs("keys", doc.UnknownKeys).Msg("Ignoring unknown front matter keys")
	}

	post := &domain.Post{
		Slug:     slug,
		Title:    doc.Meta.Title,
		Date:     doc.Meta.Date,
		Content:  doc.Body,
		Category: doc.Meta.Category,
		Excerpt:  doc.Meta.Excerpt,
		Revision: file.Revision,
	}
	if doc.Meta.Published != nil {
		post.Published = *doc.Meta.Published
	}
	return post, doc, nil
}

func encodePost(p *domain.Post) ([]byte, error) {
	published := p.Published
	meta := document.FrontMatter{
		Title:     p.Title,
		Date:      document.NormalizeDate(p.Date),
		Published: &published,
		Category:  p.Category,
		Excerpt:   p.Excerpt,
	}

	raw, err := document.Serialize(p.Content, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode post %s: %w", p.Slug, err)
	}
	return raw, nil
}

// excerptFor prefers an explicit excerpt from the header over one derived from the body.
func excerptFor(doc *document.Document) string {
	if doc.Meta.Excerpt != "" {
		return doc.Meta.Excerpt
	}
	return document.DeriveExcerpt(doc.Body)
}
