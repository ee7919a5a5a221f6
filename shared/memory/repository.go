package memory

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dfryer1193/repoblog/blog/domain"
)

var _ domain.SourceRepository = (*SourceRepository)(nil)

// Commit records one mutation applied to the tree.
type Commit struct {
	Path    string
	Message string
	Deleted bool
}

type file struct {
	content  []byte
	revision string
}

// SourceRepository is an in-memory versioned file tree with the same revision
// semantics as the GitHub contents API. It backs local development and tests.
type SourceRepository struct {
	mu      sync.RWMutex
	name    string
	files   map[string]file
	commits []Commit
}

func NewSourceRepository(name string) *SourceRepository {
	return &SourceRepository{
		name:  name,
		files: make(map[string]file),
	}
}

// ListDirectory returns the files directly below dir, sorted by name.
func (s *SourceRepository) ListDirectory(ctx context.Context, dir string) ([]domain.FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("memory: listing %s: %w: %w", dir, domain.ErrUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := strings.TrimSuffix(dir, "/") + "/"
	var entries []domain.FileEntry
	for p, f := range s.files {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		entries = append(entries, domain.FileEntry{Name: rest, Path: p, Revision: f.revision})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("memory: listing %s: %w", dir, domain.ErrNotFound)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (s *SourceRepository) ReadFile(ctx context.Context, p string) (*domain.FileContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("memory: reading %s: %w: %w", p, domain.ErrUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[p]
	if !ok {
		return nil, fmt.Errorf("memory: reading %s: %w", p, domain.ErrNotFound)
	}
	return &domain.FileContent{
		Path:     p,
		Content:  append([]byte(nil), f.content...),
		Revision: f.revision,
	}, nil
}

func (s *SourceRepository) WriteFile(ctx context.Context, p string, content []byte, expectedRevision string, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("memory: writing %s: %w: %w", p, domain.ErrUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.files[p]
	switch {
	case expectedRevision == "" && exists:
		return "", fmt.Errorf("memory: creating %s: %w", p, domain.ErrAlreadyExists)
	case expectedRevision != "" && (!exists || current.revision != expectedRevision):
		return "", fmt.Errorf("memory: updating %s at %s: %w", p, expectedRevision, domain.ErrConflict)
	}

	rev := blobSHA(content)
	s.files[p] = file{content: append([]byte(nil), content...), revision: rev}
	s.commits = append(s.commits, Commit{Path: p, Message: message})
	return rev, nil
}

func (s *SourceRepository) DeleteFile(ctx context.Context, p string, expectedRevision string, message string) error {
	if expectedRevision == "" {
		return fmt.Errorf("memory: deleting %s: %w", p, domain.ErrRevisionRequired)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory: deleting %s: %w: %w", p, domain.ErrUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.files[p]
	if !ok {
		return fmt.Errorf("memory: deleting %s: %w", p, domain.ErrNotFound)
	}
	if current.revision != expectedRevision {
		return fmt.Errorf("memory: deleting %s at %s: %w", p, expectedRevision, domain.ErrConflict)
	}

	delete(s.files, p)
	s.commits = append(s.commits, Commit{Path: p, Message: message, Deleted: true})
	return nil
}

func (s *SourceRepository) GetDefaultBranchName(ctx context.Context) (string, error) {
	return "main", nil
}

func (s *SourceRepository) GetRepoFullName() string {
	return s.name
}

// Commits returns the mutations applied so far, oldest first.
func (s *SourceRepository) Commits() []Commit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Commit(nil), s.commits...)
}

// blobSHA computes the git blob id of content, which is what GitHub reports as a file's sha.
func blobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
