package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	BackendGithub = "github"
	BackendMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Github   GithubConfig   `toml:"github"`
	Content  ContentConfig  `toml:"content"`
	Log      LogConfig      `toml:"log"`
	Settings SettingsConfig `toml:"settings"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string        `toml:"port"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// GithubConfig selects the repository holding the blog content
type GithubConfig struct {
	Backend        string        `toml:"backend"`
	Token          string        `toml:"token"`
	Owner          string        `toml:"owner"`
	Repo           string        `toml:"repo"`
	Branch         string        `toml:"branch"`
	APIURL         string        `toml:"api_url"`
	Timeout        time.Duration `toml:"timeout"`
	CommitterName  string        `toml:"committer_name"`
	CommitterEmail string        `toml:"committer_email"`
}

// ContentConfig holds the repository layout and rendering settings
type ContentConfig struct {
	PostsPath            string        `toml:"posts_path"`
	CommentsPath         string        `toml:"comments_path"`
	SettingsPath         string        `toml:"settings_path"`
	FetchConcurrency     int           `toml:"fetch_concurrency"`
	CommentRetryAttempts int           `toml:"comment_retry_attempts"`
	CommentRetryDelay    time.Duration `toml:"comment_retry_delay"`
	AssetBaseURL         string        `toml:"asset_base_url"`
	PostBaseURL          string        `toml:"post_base_url"`
	RecentCount          int           `toml:"recent_count"`
	PreferredCategories  []string      `toml:"preferred_categories"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "pretty"
}

// SettingsConfig is served until a settings file has been committed
type SettingsConfig struct {
	BlogTitle          string `toml:"blog_title"`
	BlogDescription    string `toml:"blog_description"`
	ProfileName        string `toml:"profile_name"`
	ProfileDescription string `toml:"profile_description"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Github: GithubConfig{
			Backend: BackendGithub,
			Timeout: 10 * time.Second,
		},
		Content: ContentConfig{
			PostsPath:            "content/posts",
			CommentsPath:         "content/comments",
			SettingsPath:         "content/settings.json",
			FetchConcurrency:     8,
			CommentRetryAttempts: 3,
			CommentRetryDelay:    200 * time.Millisecond,
			PostBaseURL:          "/posts",
			RecentCount:          5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Settings: SettingsConfig{
			BlogTitle: "My Blog",
		},
	}
}

// Load reads configuration from the TOML file named by CONFIG_FILE, if any, and then
// from environment variables. Environment variables win over the file.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.ReadTimeout = getDurationEnv("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getDurationEnv("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.ShutdownTimeout = getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Github.Backend = strings.ToLower(getEnv("SOURCE_BACKEND", c.Github.Backend))
	c.Github.Token = getEnv("GITHUB_TOKEN", c.Github.Token)
	c.Github.Owner = getEnv("GITHUB_OWNER", getEnv("REPO_OWNER", c.Github.Owner))
	c.Github.Repo = getEnv("GITHUB_REPO", getEnv("REPO_NAME", c.Github.Repo))
	c.Github.Branch = getEnv("GITHUB_BRANCH", c.Github.Branch)
	c.Github.APIURL = getEnv("GITHUB_API_URL", c.Github.APIURL)
	c.Github.Timeout = getDurationEnv("GITHUB_TIMEOUT", c.Github.Timeout)
	c.Github.CommitterName = getEnv("COMMITTER_NAME", c.Github.CommitterName)
	c.Github.CommitterEmail = getEnv("COMMITTER_EMAIL", c.Github.CommitterEmail)

	c.Content.PostsPath = getEnv("POSTS_PATH", c.Content.PostsPath)
	c.Content.CommentsPath = getEnv("COMMENTS_PATH", c.Content.CommentsPath)
	c.Content.SettingsPath = getEnv("SETTINGS_PATH", c.Content.SettingsPath)
	c.Content.FetchConcurrency = getIntEnv("FETCH_CONCURRENCY", c.Content.FetchConcurrency)
	c.Content.CommentRetryAttempts = getIntEnv("COMMENT_RETRY_ATTEMPTS", c.Content.CommentRetryAttempts)
	c.Content.CommentRetryDelay = getDurationEnv("COMMENT_RETRY_DELAY", c.Content.CommentRetryDelay)
	c.Content.AssetBaseURL = getEnv("ASSET_BASE_URL", c.Content.AssetBaseURL)
	c.Content.PostBaseURL = getEnv("POST_BASE_URL", c.Content.PostBaseURL)
	c.Content.RecentCount = getIntEnv("RECENT_COUNT", c.Content.RecentCount)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Github.Backend {
	case BackendGithub:
		if c.Github.Owner == "" {
			return fmt.Errorf("GITHUB_OWNER is required")
		}
		if c.Github.Repo == "" {
			return fmt.Errorf("GITHUB_REPO is required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown SOURCE_BACKEND %q", c.Github.Backend)
	}

	if c.Content.PostsPath == "" || c.Content.CommentsPath == "" || c.Content.SettingsPath == "" {
		return fmt.Errorf("content paths cannot be empty")
	}
	if c.Content.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be at least 1")
	}
	if c.Content.CommentRetryAttempts < 1 {
		return fmt.Errorf("COMMENT_RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
