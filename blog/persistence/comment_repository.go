package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/dfryer1193/repoblog/blog/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var _ domain.CommentRepository = (*GitCommentRepository)(nil)

const (
	commentExt = ".json"

	// commentDateLayout matches what JavaScript's Date.toISOString produces.
	commentDateLayout = "2006-01-02T15:04:05.000Z07:00"
)

// GitCommentRepository implements domain.CommentRepository with one JSON array file per post.
// Every mutation rewrites the whole collection, guarded by the file's revision.
type GitCommentRepository struct {
	source      domain.SourceRepository
	dir         string
	concurrency int
	attempts    uint
	delay       time.Duration
}

func NewCommentRepository(source domain.SourceRepository, cfg Config) *GitCommentRepository {
	cfg = cfg.withDefaults()
	return &GitCommentRepository{
		source:      source,
		dir:         cfg.CommentsPath,
		concurrency: cfg.FetchConcurrency,
		attempts:    cfg.CommentRetryAttempts,
		delay:       cfg.CommentRetryDelay,
	}
}

// ListForPost returns the comments of a post in the order they were appended.
func (r *GitCommentRepository) ListForPost(ctx context.Context, slug string) ([]*domain.Comment, error) {
	collection, err := r.Collection(ctx, slug)
	if err != nil {
		return nil, err
	}
	return collection.Comments, nil
}

// Collection returns the comments of a post with the revision they were read at.
func (r *GitCommentRepository) Collection(ctx context.Context, slug string) (*domain.CommentCollection, error) {
	if !domain.SafeSlug(slug) {
		return nil, fmt.Errorf("comments for %q: %w", slug, domain.ErrInvalidSlug)
	}

	comments, revision, err := r.load(ctx, slug)
	if err != nil {
		return nil, err
	}
	return &domain.CommentCollection{Comments: comments, Revision: revision}, nil
}

// Append adds c to the end of the post's collection. Concurrent writers that win the race
// cause the read-modify-write to be retried against the fresh collection.
// Comments already in the collection are written back as they were read.
func (r *GitCommentRepository) Append(ctx context.Context, slug string, c *domain.Comment) error {
	if c == nil {
		return fmt.Errorf("comment cannot be nil: %w", domain.ErrInvalidComment)
	}
	if !domain.SafeSlug(slug) {
		return fmt.Errorf("comments for %q: %w", slug, domain.ErrInvalidSlug)
	}

	return r.withRetry(ctx, slug, func() error {
		records, revision, err := r.loadRecords(ctx, slug)
		if err != nil {
			return err
		}
		for _, existing := range records {
			if existing.ID == c.ID {
				return fmt.Errorf("comment %s already exists on %s: %w", c.ID, slug, domain.ErrInvalidComment)
			}
		}

		_, err = r.store(ctx, slug, append(records, newCommentRecord(slug, c)), revision)
		return err
	})
}

// ReplaceAll overwrites the post's collection with comments. The stored collection must still be
// at expectedRevision; an empty expectedRevision creates the file. Stored dates and unknown fields
// of comments that keep their id and date are preserved.
func (r *GitCommentRepository) ReplaceAll(ctx context.Context, slug string, comments []*domain.Comment, expectedRevision string) (string, error) {
	if !domain.SafeSlug(slug) {
		return "", fmt.Errorf("comments for %q: %w", slug, domain.ErrInvalidSlug)
	}

	seen := make(map[string]struct{}, len(comments))
	for _, c := range comments {
		if c == nil {
			return "", fmt.Errorf("comment cannot be nil: %w", domain.ErrInvalidComment)
		}
		if _, dup := seen[c.ID]; dup {
			return "", fmt.Errorf("duplicate comment id %s: %w", c.ID, domain.ErrInvalidComment)
		}
		seen[c.ID] = struct{}{}
	}

	current, revision, err := r.loadRecords(ctx, slug)
	if err != nil {
		return "", err
	}
	if revision != expectedRevision {
		return "", fmt.Errorf("comments for %s changed since revision %q: %w", slug, expectedRevision, domain.ErrConflict)
	}

	byID := make(map[string]*commentRecord, len(current))
	for i := range current {
		byID[current[i].ID] = &current[i]
	}

	records := make([]commentRecord, 0, len(comments))
	for _, c := range comments {
		records = append(records, mergeCommentRecord(byID[c.ID], slug, c))
	}
	return r.store(ctx, slug, records, expectedRevision)
}

// Update applies fn to the comment with the given id and stores the collection.
// It returns the updated comment, or domain.ErrNotFound if no comment has that id.
func (r *GitCommentRepository) Update(ctx context.Context, slug string, id string, fn func(c *domain.Comment)) (*domain.Comment, error) {
	if !domain.SafeSlug(slug) {
		return nil, fmt.Errorf("comments for %q: %w", slug, domain.ErrInvalidSlug)
	}

	var updated *domain.Comment
	err := r.withRetry(ctx, slug, func() error {
		records, revision, err := r.loadRecords(ctx, slug)
		if err != nil {
			return err
		}

		updated = nil
		for i := range records {
			if records[i].ID == id {
				c := records[i].toDomain(slug)
				fn(c)
				records[i] = mergeCommentRecord(&records[i], slug, c)
				updated = c
				break
			}
		}
		if updated == nil {
			return fmt.Errorf("comment %s on %s: %w", id, slug, domain.ErrNotFound)
		}

		_, err = r.store(ctx, slug, records, revision)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListAll returns the comments of every post, newest first.
func (r *GitCommentRepository) ListAll(ctx context.Context) ([]*domain.Comment, error) {
	entries, err := r.source.ListDirectory(ctx, r.dir)
	if errors.Is(err, domain.ErrNotFound) {
		return []*domain.Comment{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list comment collections: %w", err)
	}

	var slugs []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name, commentExt) {
			slugs = append(slugs, strings.TrimSuffix(e.Name, commentExt))
		}
	}

	collections := make([][]*domain.Comment, len(slugs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, slug := range slugs {
		g.Go(func() error {
			comments, _, err := r.load(gctx, slug)
			if errors.Is(err, domain.ErrMalformedDocument) {
				log.Error().Err(err).Str("slug", slug).Msg("Skipping malformed comment collection")
				return nil
			}
			if err != nil {
				return err
			}
			collections[i] = comments
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]*domain.Comment, 0)
	for _, c := range collections {
		all = append(all, c...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Date.After(all[j].Date)
	})
	return all, nil
}

// withRetry runs op until it succeeds, fails with anything but a lost race, or runs out of attempts.
func (r *GitCommentRepository) withRetry(ctx context.Context, slug string, op func() error) error {
	return retry.Do(
		op,
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrAlreadyExists)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Str("slug", slug).Uint("attempt", n+1).Msg("Comment collection changed concurrently, retrying")
		}),
	)
}

// load reads the collection of a post. An absent file is an empty collection with no revision.
func (r *GitCommentRepository) load(ctx context.Context, slug string) ([]*domain.Comment, string, error) {
	records, revision, err := r.loadRecords(ctx, slug)
	if err != nil {
		return nil, "", err
	}

	comments := make([]*domain.Comment, 0, len(records))
	for i := range records {
		comments = append(comments, records[i].toDomain(slug))
	}
	return comments, revision, nil
}

func (r *GitCommentRepository) loadRecords(ctx context.Context, slug string) ([]commentRecord, string, error) {
	file, err := r.source.ReadFile(ctx, r.commentsPath(slug))
	if errors.Is(err, domain.ErrNotFound) {
		return []commentRecord{}, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read comments for %s: %w", slug, err)
	}

	var records []commentRecord
	if err := json.Unmarshal(file.Content, &records); err != nil {
		return nil, "", fmt.Errorf("comments for %s: %v: %w", slug, err, domain.ErrMalformedDocument)
	}
	return records, file.Revision, nil
}

func (r *GitCommentRepository) store(ctx context.Context, slug string, records []commentRecord, revision string) (string, error) {
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode comments for %s: %w", slug, err)
	}

	rev, err := r.source.WriteFile(ctx, r.commentsPath(slug), raw, revision, "Update comments for: "+slug)
	if err != nil {
		return "", fmt.Errorf("failed to save comments for %s: %w", slug, err)
	}
	return rev, nil
}

func (r *GitCommentRepository) commentsPath(slug string) string {
	return path.Join(r.dir, slug+commentExt)
}

// commentFields are the stored fields of a comment this service understands.
type commentFields struct {
	ID       string `json:"id"`
	PostSlug string `json:"postSlug"`
	Author   string `json:"author"`
	Content  string `json:"content"`
	Date     string `json:"date"`
	Reply    string `json:"reply,omitempty"`
	IsRead   bool   `json:"isRead"`
}

var commentFieldNames = []string{"id", "postSlug", "author", "content", "date", "reply", "isRead"}

// commentRecord is the stored JSON form of a comment. Date stays the string found in the file,
// and fields written by other tools are kept in extra and written back untouched.
type commentRecord struct {
	commentFields
	extra map[string]json.RawMessage
}

func (cr *commentRecord) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &cr.commentFields); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for key := range all {
		for _, known := range commentFieldNames {
			if strings.EqualFold(key, known) {
				delete(all, key)
				break
			}
		}
	}
	if len(all) > 0 {
		cr.extra = all
	}
	return nil
}

func (cr commentRecord) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(cr.commentFields)
	if err != nil || len(cr.extra) == 0 {
		return raw, err
	}

	keys := make([]string, 0, len(cr.extra))
	for key := range cr.extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(raw[:len(raw)-1])
	for _, key := range keys {
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(cr.extra[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func newCommentRecord(slug string, c *domain.Comment) commentRecord {
	postSlug := c.PostSlug
	if postSlug == "" {
		postSlug = slug
	}

	rec := commentRecord{commentFields: commentFields{
		ID:       c.ID,
		PostSlug: postSlug,
		Author:   c.Author,
		Content:  c.Content,
		Reply:    c.Reply,
		IsRead:   c.IsRead,
	}}
	if !c.Date.IsZero() {
		rec.Date = c.Date.UTC().Format(commentDateLayout)
	}
	return rec
}

// mergeCommentRecord builds the record for c on top of the stored record it replaces, if any.
// The stored date string survives as long as c still carries the same instant, at
// millisecond precision or better.
func mergeCommentRecord(stored *commentRecord, slug string, c *domain.Comment) commentRecord {
	rec := newCommentRecord(slug, c)
	if stored == nil {
		return rec
	}

	rec.extra = stored.extra
	t, ok := parseCommentDate(stored.Date)
	switch {
	case !ok && c.Date.IsZero():
		rec.Date = stored.Date
	case ok && (c.Date.Equal(t) || c.Date.Equal(t.Truncate(time.Millisecond))):
		rec.Date = stored.Date
	}
	return rec
}

// toDomain converts a record to a domain.Comment. Dates that fail to parse are left zero,
// which sorts them last in ListAll.
func (cr *commentRecord) toDomain(slug string) *domain.Comment {
	c := &domain.Comment{
		ID:       cr.ID,
		PostSlug: cr.PostSlug,
		Author:   cr.Author,
		Content:  cr.Content,
		Reply:    cr.Reply,
		IsRead:   cr.IsRead,
	}
	if c.PostSlug == "" {
		c.PostSlug = slug
	}
	if t, ok := parseCommentDate(cr.Date); ok {
		c.Date = t
	}
	return c
}

// parseCommentDate accepts full timestamps and bare dates, both of which JavaScript's Date parses.
func parseCommentDate(value string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
