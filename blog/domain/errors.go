package domain

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrNotFound is returned when a file or directory does not exist in the source repository.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write or delete carries a stale revision.
	ErrConflict = errors.New("revision conflict")
	// ErrAlreadyExists is returned when creating a file at a path that is already taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrRevisionRequired is returned when an update or delete is attempted without a revision.
	ErrRevisionRequired = errors.New("revision required")
	// ErrUnavailable is returned for transport failures, timeouts and upstream outages.
	ErrUnavailable = errors.New("source unavailable")
	// ErrMalformedDocument is returned when stored content cannot be decoded.
	ErrMalformedDocument = errors.New("malformed document")

	ErrInvalidSlug    = errors.New("invalid slug")
	ErrInvalidPost    = errors.New("invalid post")
	ErrInvalidComment = errors.New("invalid comment")
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidSlug reports whether slug is usable as a storage key.
func ValidSlug(slug string) bool {
	return slugRegex.MatchString(slug)
}

// SafeSlug reports whether slug can address an existing file without leaving its directory.
// It is looser than ValidSlug so that files created outside this service stay reachable.
func SafeSlug(slug string) bool {
	if slug == "" || slug == "." || slug == ".." {
		return false
	}
	return !strings.ContainsAny(slug, "/\\")
}
