package domain

import (
	"context"
)

// FileEntry is a single entry of a directory listing.
type FileEntry struct {
	Name     string
	Path     string
	Revision string
}

// FileContent is the content of a file together with the revision it was read at.
type FileContent struct {
	Path     string
	Content  []byte
	Revision string
}

// SourceRepository defines the interface for accessing a versioned file tree (e.g., a GitHub repository).
// Every successful write or delete is one commit; nothing is grouped across calls.
type SourceRepository interface {
	// ListDirectory returns the entries of a directory, or ErrNotFound if it does not exist.
	ListDirectory(ctx context.Context, path string) ([]FileEntry, error)

	// ReadFile returns a file's bytes and revision, or ErrNotFound if it does not exist.
	ReadFile(ctx context.Context, path string) (*FileContent, error)

	// WriteFile creates the file when expectedRevision is empty and updates it otherwise.
	// Creating over an existing file fails with ErrAlreadyExists; a stale revision fails with ErrConflict.
	// It returns the revision of the written file.
	WriteFile(ctx context.Context, path string, content []byte, expectedRevision string, message string) (string, error)

	// DeleteFile removes a file. The revision is mandatory.
	DeleteFile(ctx context.Context, path string, expectedRevision string, message string) error

	GetDefaultBranchName(ctx context.Context) (string, error)
	GetRepoFullName() string
}
