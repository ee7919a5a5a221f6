package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dfryer1193/repoblog/blog/domain"
	"github.com/google/go-github/v75/github"
)

var _ domain.SourceRepository = (*GithubSourceRepository)(nil)

const defaultTimeout = 10 * time.Second

// Config controls where and how the repository reads and commits content.
type Config struct {
	Owner          string
	Repo           string
	Branch         string // empty means the repository's default branch
	CommitterName  string
	CommitterEmail string
	Timeout        time.Duration
}

// GithubSourceRepository is an implementation of domain.SourceRepository that uses the GitHub contents API.
type GithubSourceRepository struct {
	client  *github.Client
	owner   string
	gitRepo string
	branch  string
	author  *github.CommitAuthor
	timeout time.Duration
}

// NewGithubSourceRepository creates a new GithubSourceRepository.
func NewGithubSourceRepository(client *github.Client, cfg Config) *GithubSourceRepository {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var author *github.CommitAuthor
	if cfg.CommitterName != "" && cfg.CommitterEmail != "" {
		author = &github.CommitAuthor{
			Name:  github.Ptr(cfg.CommitterName),
			Email: github.Ptr(cfg.CommitterEmail),
		}
	}

	return &GithubSourceRepository{
		client:  client,
		owner:   cfg.Owner,
		gitRepo: cfg.Repo,
		branch:  cfg.Branch,
		author:  author,
		timeout: timeout,
	}
}

// NewClient builds a go-github client. A non-empty apiURL points it at GitHub Enterprise
// or any other server speaking the same API.
func NewClient(httpClient *http.Client, token string, apiURL string) (*github.Client, error) {
	client := github.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if apiURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("github: invalid api url %q: %w", apiURL, err)
		}
	}
	return client, nil
}

// ListDirectory lists the entries of a directory at the configured branch.
func (g *GithubSourceRepository) ListDirectory(ctx context.Context, path string) ([]domain.FileEntry, error) {
	op := fmt.Sprintf("listing directory %s", path)
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	fileContent, dirContent, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.gitRepo, path, g.getOptions())
	if err != nil {
		return nil, handleGithubError(op, err)
	}
	if fileContent != nil && dirContent == nil {
		return nil, fmt.Errorf("github: %s: path is a file: %w", op, domain.ErrNotFound)
	}

	entries := make([]domain.FileEntry, 0, len(dirContent))
	for _, c := range dirContent {
		if c.GetType() != "file" {
			continue
		}
		entries = append(entries, domain.FileEntry{
			Name:     c.GetName(),
			Path:     c.GetPath(),
			Revision: c.GetSHA(),
		})
	}
	return entries, nil
}

// ReadFile fetches the decoded contents of a file and its blob SHA. Large files are read
// through the git blobs API.
func (g *GithubSourceRepository) ReadFile(ctx context.Context, path string) (*domain.FileContent, error) {
	op := fmt.Sprintf("getting file %s", path)
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	fileContent, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.gitRepo, path, g.getOptions())
	if err != nil {
		return nil, handleGithubError(op, err)
	}

	if fileContent == nil {
		return nil, fmt.Errorf("github: %s: path is a directory: %w", op, domain.ErrNotFound)
	}

	var content []byte
	switch fileContent.GetEncoding() {
	case "none":
		// Files over 1 MB are listed without content; fetch the blob itself.
		raw, _, err := g.client.Git.GetBlobRaw(ctx, g.owner, g.gitRepo, fileContent.GetSHA())
		if err != nil {
			return nil, handleGithubError(fmt.Sprintf("getting blob of %s", path), err)
		}
		content = raw
	default:
		decoded, err := fileContent.GetContent()
		if err != nil {
			return nil, fmt.Errorf("github: %s failed to decode content: %v: %w", op, err, domain.ErrMalformedDocument)
		}
		content = []byte(decoded)
	}

	return &domain.FileContent{
		Path:     fileContent.GetPath(),
		Content:  content,
		Revision: fileContent.GetSHA(),
	}, nil
}

// WriteFile commits content to path. Without an expected revision the file is created.
func (g *GithubSourceRepository) WriteFile(ctx context.Context, path string, content []byte, expectedRevision string, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	opts := g.fileOptions(message)
	opts.Content = content

	var (
		resp *github.RepositoryContentResponse
		err  error
	)
	if expectedRevision == "" {
		op := fmt.Sprintf("creating file %s", path)
		resp, _, err = g.client.Repositories.CreateFile(ctx, g.owner, g.gitRepo, path, opts)
		if err != nil {
			err = handleGithubError(op, err)
			// GitHub answers 422 when a create omits the sha of an existing file.
			if errors.Is(err, domain.ErrConflict) {
				return "", fmt.Errorf("github: %s: %w", op, domain.ErrAlreadyExists)
			}
			return "", err
		}
	} else {
		op := fmt.Sprintf("updating file %s at %s", path, expectedRevision)
		opts.SHA = github.Ptr(expectedRevision)
		resp, _, err = g.client.Repositories.UpdateFile(ctx, g.owner, g.gitRepo, path, opts)
		if err != nil {
			return "", handleGithubError(op, err)
		}
	}

	if resp == nil || resp.Content == nil {
		return "", fmt.Errorf("github: writing %s returned no content", path)
	}
	return resp.Content.GetSHA(), nil
}

// DeleteFile removes path, provided expectedRevision is still current.
func (g *GithubSourceRepository) DeleteFile(ctx context.Context, path string, expectedRevision string, message string) error {
	op := fmt.Sprintf("deleting file %s at %s", path, expectedRevision)
	if expectedRevision == "" {
		return fmt.Errorf("github: %s: %w", op, domain.ErrRevisionRequired)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	opts := g.fileOptions(message)
	opts.SHA = github.Ptr(expectedRevision)
	_, _, err := g.client.Repositories.DeleteFile(ctx, g.owner, g.gitRepo, path, opts)
	if err != nil {
		return handleGithubError(op, err)
	}
	return nil
}

// GetRepoFullName returns the repository's full name (e.g., "owner/repo").
func (g *GithubSourceRepository) GetRepoFullName() string {
	return fmt.Sprintf("%s/%s", g.owner, g.gitRepo)
}

// GetDefaultBranchName fetches the repository metadata and returns the name of the default branch.
func (g *GithubSourceRepository) GetDefaultBranchName(ctx context.Context) (string, error) {
	op := fmt.Sprintf("getting repository info for %s/%s", g.owner, g.gitRepo)
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	repo, _, err := g.client.Repositories.Get(ctx, g.owner, g.gitRepo)
	if err != nil {
		return "", handleGithubError(op, err)
	}
	return repo.GetDefaultBranch(), nil
}

func (g *GithubSourceRepository) getOptions() *github.RepositoryContentGetOptions {
	if g.branch == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: g.branch}
}

func (g *GithubSourceRepository) fileOptions(message string) *github.RepositoryContentFileOptions {
	opts := &github.RepositoryContentFileOptions{
		Message:   github.Ptr(message),
		Committer: g.author,
	}
	if g.branch != "" {
		opts.Branch = github.Ptr(g.branch)
	}
	return opts
}

// handleGithubError inspects an error from the go-github client and maps it onto the domain error taxonomy.
func handleGithubError(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("github: %s timed out: %w: %w", op, domain.ErrUnavailable, err)
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return fmt.Errorf("github: %s was rate limited: %w: %w", op, domain.ErrUnavailable, err)
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) {
		status := 0
		if errResp.Response != nil {
			status = errResp.Response.StatusCode
		}
		var kind error
		switch {
		case status == http.StatusNotFound:
			kind = domain.ErrNotFound
		case status == http.StatusConflict, status == http.StatusUnprocessableEntity:
			kind = domain.ErrConflict
		case status >= http.StatusInternalServerError:
			kind = domain.ErrUnavailable
		default:
			return fmt.Errorf("github: %s failed with status %d: %s", op, status, errResp.Message)
		}
		return fmt.Errorf("github: %s failed with status %d: %s: %w", op, status, errResp.Message, kind)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("github: %s failed: %w: %w", op, domain.ErrUnavailable, err)
	}

	return fmt.Errorf("github: %s failed: %w", op, err)
}
