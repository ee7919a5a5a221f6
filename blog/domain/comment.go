package domain

import (
	"context"
	"time"
)

// Comment is a reader comment on a post. All comments of a post are stored together,
// in submission order, and share the revision of that collection.
type Comment struct {
	ID       string
	PostSlug string
	Author   string
	Content  string
	Date     time.Time
	IsRead   bool
	Reply    string
}

// CommentCollection is the comments of one post together with the revision they were read at.
type CommentCollection struct {
	Comments []*Comment
	Revision string
}

type CommentRepository interface {
	// ListForPost returns the comments of a post in storage order.
	ListForPost(ctx context.Context, slug string) ([]*Comment, error)

	// Collection returns the comments of a post and the revision of the stored collection,
	// which is empty while the post has no comments file.
	Collection(ctx context.Context, slug string) (*CommentCollection, error)

	// Append adds a comment to the end of a post's collection.
	Append(ctx context.Context, slug string, c *Comment) error

	// ReplaceAll overwrites a post's whole collection, provided it is still at expectedRevision.
	// It returns the new revision.
	ReplaceAll(ctx context.Context, slug string, comments []*Comment, expectedRevision string) (string, error)

	// Update applies fn to a single comment and stores the collection.
	Update(ctx context.Context, slug string, id string, fn func(c *Comment)) (*Comment, error)

	// ListAll returns the comments of every post, newest first.
	ListAll(ctx context.Context) ([]*Comment, error)
}
