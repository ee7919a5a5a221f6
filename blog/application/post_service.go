package application

import (
	"context"
	"fmt"
	"time"

	"github.com/dfryer1193/repoblog/blog/domain"
	"github.com/rs/zerolog/log"
)

const (
	defaultRecentCount = 5
	dateLayout         = "2006-01-02"
)

// PostFilter narrows the public post listing. Empty fields do not filter.
type PostFilter struct {
	Category string
	Archive  string
}

// PostListPage is everything the public index needs in one call.
type PostListPage struct {
	Posts      []*domain.PostMeta
	Categories []CategoryCount
	Archives   []ArchiveBucket
	Recent     []*domain.PostMeta
	// Total is the number of published posts before filtering.
	Total int
}

// PostPage is a single published post with its rendered body and neighbours.
type PostPage struct {
	Post       *domain.Post
	HTML       []byte
	Navigation Navigation
}

type PostServiceConfig struct {
	PreferredCategories []string
	RecentCount         int
}

type PostService struct {
	repo      domain.PostRepository
	markdown  MarkdownRenderer
	preferred []string
	recent    int

	now func() time.Time
}

func NewPostService(repo domain.PostRepository, markdown MarkdownRenderer, cfg PostServiceConfig) *PostService {
	preferred := cfg.PreferredCategories
	if preferred == nil {
		preferred = DefaultPreferredCategories
	}
	recent := cfg.RecentCount
	if recent <= 0 {
		recent = defaultRecentCount
	}

	return &PostService{
		repo:      repo,
		markdown:  markdown,
		preferred: preferred,
		recent:    recent,
		now:       time.Now,
	}
}

// ListPosts returns the published posts matching filter, along with the sidebar views.
// Drafts never appear in any part of the page.
func (s *PostService) ListPosts(ctx context.Context, filter PostFilter) (*PostListPage, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list posts: %w", err)
	}

	published := FilterPublished(all)
	posts := published
	if filter.Category != "" {
		posts = FilterByCategory(posts, filter.Category)
	}
	if filter.Archive != "" {
		posts = FilterByArchive(posts, filter.Archive)
	}

	return &PostListPage{
		Posts:      posts,
		Categories: Categories(published, s.preferred),
		Archives:   Archives(published),
		Recent:     Recent(published, s.recent),
		Total:      len(published),
	}, nil
}

// GetPostPage returns a published post rendered to HTML. Unpublished posts are reported
// as domain.ErrNotFound.
func (s *PostService) GetPostPage(ctx context.Context, slug string) (*PostPage, error) {
	post, err := s.repo.Get(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("could not get post %s: %w", slug, err)
	}
	if post == nil || !post.Published {
		return nil, fmt.Errorf("post %s: %w", slug, domain.ErrNotFound)
	}

	result, err := s.markdown.Render([]byte(post.Content))
	if err != nil {
		return nil, fmt.Errorf("could not render post %s: %w", slug, err)
	}
	if post.Title == "" {
		post.Title = result.Title
	}
	if post.Title == "" {
		post.Title = post.Slug
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list posts: %w", err)
	}

	return &PostPage{
		Post:       post,
		HTML:       result.HTMLContent,
		Navigation: Navigate(FilterPublished(all), slug),
	}, nil
}

// ListAllPosts returns every post including drafts, along with the slugs of post files
// that could not be parsed.
func (s *PostService) ListAllPosts(ctx context.Context) (*domain.PostIndex, error) {
	index, err := s.repo.Index(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list posts: %w", err)
	}
	if len(index.Malformed) > 0 {
		log.Warn().Strs("slugs", index.Malformed).Msg("Malformed posts left out of the listing")
	}
	return index, nil
}

// GetPost returns a post for editing, or domain.ErrNotFound.
func (s *PostService) GetPost(ctx context.Context, slug string) (*domain.Post, error) {
	post, err := s.repo.Get(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("could not get post %s: %w", slug, err)
	}
	if post == nil {
		return nil, fmt.Errorf("post %s: %w", slug, domain.ErrNotFound)
	}
	return post, nil
}

// CreatePost stores a new post. A missing date defaults to today (UTC).
func (s *PostService) CreatePost(ctx context.Context, p *domain.Post) (string, error) {
	if p == nil {
		return "", fmt.Errorf("post cannot be nil: %w", domain.ErrInvalidPost)
	}
	if p.Date == "" {
		p.Date = s.now().UTC().Format(dateLayout)
	}

	rev, err := s.repo.Create(ctx, p)
	if err != nil {
		log.Error().Err(err).Str("slug", p.Slug).Msg("Failed to create post")
		return "", err
	}

	log.Info().Str("slug", p.Slug).Str("revision", rev).Bool("published", p.Published).Msg("Created post")
	return rev, nil
}

func (s *PostService) UpdatePost(ctx context.Context, p *domain.Post) (string, error) {
	if p == nil {
		return "", fmt.Errorf("post cannot be nil: %w", domain.ErrInvalidPost)
	}

	rev, err := s.repo.Update(ctx, p)
	if err != nil {
		log.Error().Err(err).Str("slug", p.Slug).Str("revision", p.Revision).Msg("Failed to update post")
		return "", err
	}

	log.Info().Str("slug", p.Slug).Str("revision", rev).Bool("published", p.Published).Msg("Updated post")
	return rev, nil
}

// SavePost creates p when it has no revision and updates it otherwise.
func (s *PostService) SavePost(ctx context.Context, p *domain.Post) (string, error) {
	if p != nil && p.Revision != "" {
		return s.UpdatePost(ctx, p)
	}
	return s.CreatePost(ctx, p)
}

func (s *PostService) DeletePost(ctx context.Context, slug string, revision string) error {
	if err := s.repo.Delete(ctx, slug, revision); err != nil {
		log.Error().Err(err).Str("slug", slug).Str("revision", revision).Msg("Failed to delete post")
		return err
	}

	log.Info().Str("slug", slug).Msg("Deleted post")
	return nil
}
