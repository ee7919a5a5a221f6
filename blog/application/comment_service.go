package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dfryer1193/repoblog/blog/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type CommentService struct {
	repo domain.CommentRepository

	newID func() (string, error)
	now   func() time.Time
}

func NewCommentService(repo domain.CommentRepository) *CommentService {
	return &CommentService{
		repo:  repo,
		newID: newCommentID,
		now:   time.Now,
	}
}

// newCommentID returns a time-ordered UUID, so ids sort by creation time.
func newCommentID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Submit records a new reader comment. Every field is required.
func (s *CommentService) Submit(ctx context.Context, slug, author, content string) (*domain.Comment, error) {
	slug = strings.TrimSpace(slug)
	author = strings.TrimSpace(author)
	if slug == "" || author == "" || strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("missing fields: %w", domain.ErrInvalidComment)
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("could not generate comment id: %w", err)
	}

	c := &domain.Comment{
		ID:       id,
		PostSlug: slug,
		Author:   author,
		Content:  content,
		Date:     s.now().UTC().Truncate(time.Millisecond),
		IsRead:   false,
	}

	if err := s.repo.Append(ctx, slug, c); err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Failed to save comment")
		return nil, err
	}

	log.Info().Str("slug", slug).Str("id", c.ID).Msg("Comment submitted")
	return c, nil
}

func (s *CommentService) ListForPost(ctx context.Context, slug string) ([]*domain.Comment, error) {
	return s.repo.ListForPost(ctx, slug)
}

// ListAll returns every comment, newest first, and how many of them are unread.
func (s *CommentService) ListAll(ctx context.Context) ([]*domain.Comment, int, error) {
	comments, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	return comments, countUnread(comments), nil
}

func (s *CommentService) UnreadCount(ctx context.Context) (int, error) {
	comments, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	return countUnread(comments), nil
}

// MarkRead flags a comment as seen by the admin.
func (s *CommentService) MarkRead(ctx context.Context, slug, id string) (*domain.Comment, error) {
	c, err := s.repo.Update(ctx, slug, id, func(c *domain.Comment) {
		c.IsRead = true
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("slug", slug).Str("id", id).Msg("Comment marked as read")
	return c, nil
}

// Reply sets the admin reply on a comment. Replying also marks the comment as read.
func (s *CommentService) Reply(ctx context.Context, slug, id, reply string) (*domain.Comment, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, fmt.Errorf("reply cannot be empty: %w", domain.ErrInvalidComment)
	}

	c, err := s.repo.Update(ctx, slug, id, func(c *domain.Comment) {
		c.Reply = reply
		c.IsRead = true
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("slug", slug).Str("id", id).Msg("Replied to comment")
	return c, nil
}

// Collection returns a post's comments with the revision an edit must be based on.
func (s *CommentService) Collection(ctx context.Context, slug string) (*domain.CommentCollection, error) {
	return s.repo.Collection(ctx, slug)
}

// ReplaceAll overwrites a post's comments with an edited collection. revision must be the one
// returned by Collection; comments submitted since then make the write fail with domain.ErrConflict.
func (s *CommentService) ReplaceAll(ctx context.Context, slug string, comments []*domain.Comment, revision string) (string, error) {
	for _, c := range comments {
		if c == nil || c.ID == "" {
			return "", fmt.Errorf("every comment needs an id: %w", domain.ErrInvalidComment)
		}
		if c.PostSlug == "" {
			c.PostSlug = slug
		}
	}

	rev, err := s.repo.ReplaceAll(ctx, slug, comments, revision)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Str("revision", revision).Msg("Failed to replace comments")
		return "", err
	}

	log.Info().Str("slug", slug).Int("count", len(comments)).Str("revision", rev).Msg("Replaced comments")
	return rev, nil
}

func countUnread(comments []*domain.Comment) int {
	n := 0
	for _, c := range comments {
		if !c.IsRead {
			n++
		}
	}
	return n
}
