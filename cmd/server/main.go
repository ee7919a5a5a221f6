package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dfryer1193/repoblog/blog/application"
	"github.com/dfryer1193/repoblog/blog/domain"
	"github.com/dfryer1193/repoblog/blog/persistence"
	"github.com/dfryer1193/repoblog/internal/config"
	"github.com/dfryer1193/repoblog/internal/middleware"
	"github.com/dfryer1193/repoblog/internal/rest"
	gh "github.com/dfryer1193/repoblog/shared/github"
	"github.com/dfryer1193/repoblog/shared/logger"
	"github.com/dfryer1193/repoblog/shared/memory"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	sourceRepo, err := newSourceRepository(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up content source")
	}

	log.Info().Str("repo", sourceRepo.GetRepoFullName()).Str("branch", contentBranch(context.Background(), sourceRepo, cfg.Github.Branch)).Msg("Using content repository")

	storeCfg := persistence.Config{
		PostsPath:            cfg.Content.PostsPath,
		CommentsPath:         cfg.Content.CommentsPath,
		SettingsPath:         cfg.Content.SettingsPath,
		FetchConcurrency:     cfg.Content.FetchConcurrency,
		CommentRetryAttempts: uint(cfg.Content.CommentRetryAttempts),
		CommentRetryDelay:    cfg.Content.CommentRetryDelay,
		DefaultSettings: domain.Settings{
			BlogTitle:          cfg.Settings.BlogTitle,
			BlogDescription:    cfg.Settings.BlogDescription,
			ProfileName:        cfg.Settings.ProfileName,
			ProfileDescription: cfg.Settings.ProfileDescription,
		},
	}

	markdown := application.NewMarkdownRenderer(application.MarkdownConfig{
		PostBaseURL:  cfg.Content.PostBaseURL,
		AssetBaseURL: cfg.Content.AssetBaseURL,
	})
	postService := application.NewPostService(
		persistence.NewPostRepository(sourceRepo, storeCfg),
		markdown,
		application.PostServiceConfig{
			PreferredCategories: cfg.Content.PreferredCategories,
			RecentCount:         cfg.Content.RecentCount,
		},
	)
	commentService := application.NewCommentService(persistence.NewCommentRepository(sourceRepo, storeCfg))
	settingsRepo := persistence.NewSettingsRepository(sourceRepo, storeCfg)

	gin.SetMode(gin.ReleaseMode)
	service := gin.New()
	service.Use(middleware.LoggingMiddleware())
	service.Use(gin.CustomRecovery(middleware.HandlePanics()))
	rest.NewApi(service, postService, commentService, settingsRepo)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      service,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Msg("Starting server on port :" + cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to shutdown server")
	}

	log.Info().Msg("Server stopped")
}

func newSourceRepository(cfg *config.Config) (domain.SourceRepository, error) {
	switch cfg.Github.Backend {
	case config.BackendMemory:
		log.Warn().Msg("Using in-memory content source, nothing will be persisted")
		return memory.NewSourceRepository("memory/" + cfg.Github.Repo), nil
	case config.BackendGithub:
		client, err := gh.NewClient(&http.Client{Timeout: cfg.Github.Timeout}, cfg.Github.Token, cfg.Github.APIURL)
		if err != nil {
			return nil, err
		}
		return gh.NewGithubSourceRepository(client, gh.Config{
			Owner:          cfg.Github.Owner,
			Repo:           cfg.Github.Repo,
			Branch:         cfg.Github.Branch,
			CommitterName:  cfg.Github.CommitterName,
			CommitterEmail: cfg.Github.CommitterEmail,
			Timeout:        cfg.Github.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown source backend %q", cfg.Github.Backend)
	}
}

// contentBranch names the branch content is read from. A configured branch is used as is;
// otherwise the default branch is looked up, which only informs the startup log.
func contentBranch(ctx context.Context, source domain.SourceRepository, configured string) string {
	if configured != "" {
		return configured
	}
	branch, err := source.GetDefaultBranchName(ctx)
	if err != nil {
		log.Warn().Err(err).Str("repo", source.GetRepoFullName()).Msg("Failed to get default branch name")
		return "(default)"
	}
	return branch
}
