package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SOURCE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, BackendMemory, cfg.Github.Backend)
	assert.Equal(t, "content/posts", cfg.Content.PostsPath)
	assert.Equal(t, "content/comments", cfg.Content.CommentsPath)
	assert.Equal(t, "content/settings.json", cfg.Content.SettingsPath)
	assert.Equal(t, 8, cfg.Content.FetchConcurrency)
	assert.Equal(t, 3, cfg.Content.CommentRetryAttempts)
	assert.Equal(t, "My Blog", cfg.Settings.BlogTitle)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
port = "9000"
shutdown_timeout = "10s"

[github]
owner = "file-owner"
repo = "file-repo"
branch = "main"

[content]
posts_path = "blog/posts"
preferred_categories = ["Go", "Travel"]

[settings]
blog_title = "From file"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SOURCE_BACKEND", "")
	t.Setenv("GITHUB_OWNER", "")
	t.Setenv("REPO_OWNER", "env-owner")
	t.Setenv("PORT", "7000")
	t.Setenv("FETCH_CONCURRENCY", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, BackendGithub, cfg.Github.Backend)
	assert.Equal(t, "env-owner", cfg.Github.Owner)
	assert.Equal(t, "file-repo", cfg.Github.Repo)
	assert.Equal(t, "main", cfg.Github.Branch)
	assert.Equal(t, "blog/posts", cfg.Content.PostsPath)
	assert.Equal(t, "content/comments", cfg.Content.CommentsPath)
	assert.Equal(t, 8, cfg.Content.FetchConcurrency)
	assert.Equal(t, []string{"Go", "Travel"}, cfg.Content.PreferredCategories)
	assert.Equal(t, "From file", cfg.Settings.BlogTitle)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "Github with repo", mutate: func(c *Config) { c.Github.Owner, c.Github.Repo = "o", "r" }},
		{name: "Github without owner", mutate: func(c *Config) { c.Github.Repo = "r" }, wantErr: true},
		{name: "Github without repo", mutate: func(c *Config) { c.Github.Owner = "o" }, wantErr: true},
		{name: "Memory needs no repo", mutate: func(c *Config) { c.Github.Backend = BackendMemory }},
		{name: "Unknown backend", mutate: func(c *Config) { c.Github.Backend = "s3" }, wantErr: true},
		{name: "Empty posts path", mutate: func(c *Config) { c.Github.Backend = BackendMemory; c.Content.PostsPath = "" }, wantErr: true},
		{name: "Zero concurrency", mutate: func(c *Config) { c.Github.Backend = BackendMemory; c.Content.FetchConcurrency = 0 }, wantErr: true},
		{name: "Zero retry attempts", mutate: func(c *Config) { c.Github.Backend = BackendMemory; c.Content.CommentRetryAttempts = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
