package persistence

import (
	"time"

	"github.com/dfryer1193/repoblog/blog/domain"
)

const (
	defaultPostsPath            = "content/posts"
	defaultCommentsPath         = "content/comments"
	defaultSettingsPath         = "content/settings.json"
	defaultFetchConcurrency     = 8
	defaultCommentRetryAttempts = 3
	defaultCommentRetryDelay    = 200 * time.Millisecond
)

// Config describes where content lives inside the source repository.
type Config struct {
	PostsPath    string
	CommentsPath string
	SettingsPath string

	// FetchConcurrency bounds the number of files read in parallel by List operations.
	FetchConcurrency int

	CommentRetryAttempts uint
	CommentRetryDelay    time.Duration

	// DefaultSettings is returned by the settings repository while no settings file exists.
	DefaultSettings domain.Settings
}

func DefaultConfig() Config {
	return Config{
		PostsPath:            defaultPostsPath,
		CommentsPath:         defaultCommentsPath,
		SettingsPath:         defaultSettingsPath,
		FetchConcurrency:     defaultFetchConcurrency,
		CommentRetryAttempts: defaultCommentRetryAttempts,
		CommentRetryDelay:    defaultCommentRetryDelay,
		DefaultSettings: domain.Settings{
			BlogTitle:       "My Blog",
			BlogDescription: "A blog backed by a git repository",
		},
	}
}

// withDefaults fills every zero field from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PostsPath == "" {
		c.PostsPath = d.PostsPath
	}
	if c.CommentsPath == "" {
		c.CommentsPath = d.CommentsPath
	}
	if c.SettingsPath == "" {
		c.SettingsPath = d.SettingsPath
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = d.FetchConcurrency
	}
	if c.CommentRetryAttempts == 0 {
		c.CommentRetryAttempts = d.CommentRetryAttempts
	}
	if c.CommentRetryDelay <= 0 {
		c.CommentRetryDelay = d.CommentRetryDelay
	}
	return c
}
