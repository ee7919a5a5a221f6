package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/dfryer1193/repoblog/blog/domain"
	"github.com/dfryer1193/repoblog/shared/memory"
	"github.com/stretchr/testify/assert"
)

// branchlessSource cannot report its default branch, like a token without metadata access.
type branchlessSource struct {
	*memory.SourceRepository
	lookups int
}

func (s *branchlessSource) GetDefaultBranchName(ctx context.Context) (string, error) {
	s.lookups++
	return "", fmt.Errorf("getting repository: %w", domain.ErrUnavailable)
}

func TestContentBranch(t *testing.T) {
	ctx := context.Background()

	failing := &branchlessSource{SourceRepository: memory.NewSourceRepository("owner/blog")}
	assert.Equal(t, "content", contentBranch(ctx, failing, "content"))
	assert.Zero(t, failing.lookups, "a configured branch needs no lookup")

	assert.Equal(t, "(default)", contentBranch(ctx, failing, ""))
	assert.Equal(t, 1, failing.lookups)

	assert.Equal(t, "main", contentBranch(ctx, memory.NewSourceRepository("owner/blog"), ""))
}
