package persistence

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/dfryer1193/repoblog/blog/domain"
	"github.com/dfryer1193/repoblog/shared/memory"
)

// setupTestSource creates an in-memory source repository seeded with files
func setupTestSource(t *testing.T, files map[string]string) *memory.SourceRepository {
	t.Helper()

	source := memory.NewSourceRepository("owner/blog")
	for p, content := range files {
		if _, err := source.WriteFile(context.Background(), p, []byte(content), "", "seed"); err != nil {
			t.Fatalf("failed to seed %s: %v", p, err)
		}
	}
	return source
}

func TestNewPostRepository(t *testing.T) {
	source := setupTestSource(t, nil)

	repo := NewPostRepository(source, Config{})
	if repo == nil {
		t.Fatal("NewPostRepository returned nil")
	}
	if repo.dir != defaultPostsPath {
		t.Errorf("dir = %q, want %q", repo.dir, defaultPostsPath)
	}
	if repo.concurrency != defaultFetchConcurrency {
		t.Errorf("concurrency = %d, want %d", repo.concurrency, defaultFetchConcurrency)
	}
}

func TestPostRepository_List_MissingDirectory(t *testing.T) {
	repo := NewPostRepository(setupTestSource(t, nil), DefaultConfig())

	posts, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if posts == nil || len(posts) != 0 {
		t.Errorf("List = %v, want empty non-nil slice", posts)
	}
}

func TestPostRepository_CreateThenList(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(setupTestSource(t, nil), DefaultConfig())

	rev, err := repo.Create(ctx, &domain.Post{
		Slug:      "hello",
		Title:     "Hello",
		Date:      "2024-01-01",
		Content:   "# Hi\nWorld",
		Published: true,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if rev == "" {
		t.Error("Create returned an empty revision")
	}

	posts, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("List returned %d posts, want 1", len(posts))
	}

	got := posts[0]
	if got.Slug != "hello" {
		t.Errorf("Slug = %q, want hello", got.Slug)
	}
	if got.Title != "Hello" {
		t.Errorf("Title = %q, want Hello", got.Title)
	}
	if got.Date != "2024-01-01" {
		t.Errorf("Date = %q, want 2024-01-01", got.Date)
	}
	if got.Excerpt != "Hi World" {
		t.Errorf("Excerpt = %q, want %q", got.Excerpt, "Hi World")
	}
	if !got.Published {
		t.Error("Published = false, want true")
	}
	if got.Revision != rev {
		t.Errorf("Revision = %q, want %q", got.Revision, rev)
	}
}

func TestPostRepository_List_Ordering(t *testing.T) {
	source := setupTestSource(t, map[string]string{
		"content/posts/a-january.md":  "---\ntitle: January\ndate: 2024-01-01\n---\njan",
		"content/posts/b-february.md": "---\ntitle: February\ndate: 2024-02-01\n---\nfeb",
		"content/posts/c-undated.md":  "---\ntitle: Undated\n---\nnone",
		"content/posts/d-january.md":  "---\ntitle: Also January\ndate: 2024-01-01\n---\njan again",
		"content/posts/notes.txt":     "not a post",
		"content/posts/e-bare.md":     "No header at all",
	})
	repo := NewPostRepository(source, DefaultConfig())

	posts, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	var slugs []string
	for _, p := range posts {
		slugs = append(slugs, p.Slug)
	}
	want := "b-february,a-january,d-january,c-undated,e-bare"
	if got := strings.Join(slugs, ","); got != want {
		t.Errorf("List order = %s, want %s", got, want)
	}

	bare := posts[len(posts)-1]
	if bare.Title != "e-bare" {
		t.Errorf("Title fallback = %q, want e-bare", bare.Title)
	}
	if bare.Published {
		t.Error("post without published key should not be published")
	}
}

func TestPostRepository_List_SkipsMalformed(t *testing.T) {
	source := setupTestSource(t, map[string]string{
		"content/posts/good.md":   "---\ntitle: Good\ndate: 2024-01-01\n---\nfine",
		"content/posts/broken.md": "---\ntitle: Broken\nno closing delimiter",
	})
	repo := NewPostRepository(source, DefaultConfig())

	posts, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Slug != "good" {
		t.Errorf("List = %+v, want only the good post", posts)
	}
}

func TestPostRepository_Index_ReportsMalformed(t *testing.T) {
	source := setupTestSource(t, map[string]string{
		"content/posts/good.md":     "---\ntitle: Good\ndate: 2024-01-01\n---\nfine",
		"content/posts/broken.md":   "---\ntitle: Broken\nno closing delimiter",
		"content/posts/also-bad.md": "---\ntitle: [unclosed\n---\nbody",
	})
	repo := NewPostRepository(source, DefaultConfig())

	index, err := repo.Index(context.Background())
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if len(index.Posts) != 1 || index.Posts[0].Slug != "good" {
		t.Errorf("Index.Posts = %+v, want only the good post", index.Posts)
	}
	if want := []string{"also-bad", "broken"}; !reflect.DeepEqual(index.Malformed, want) {
		t.Errorf("Index.Malformed = %v, want %v", index.Malformed, want)
	}
}

func TestPostRepository_List_ExplicitExcerpt(t *testing.T) {
	source := setupTestSource(t, map[string]string{
		"content/posts/custom.md": "---\ntitle: Custom\nexcerpt: Hand written\n---\nThe body text",
	})
	repo := NewPostRepository(source, DefaultConfig())

	posts, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if posts[0].Excerpt != "Hand written" {
		t.Errorf("Excerpt = %q, want %q", posts[0].Excerpt, "Hand written")
	}
}

func TestPostRepository_Get(t *testing.T) {
	ctx := context.Background()
	source := setupTestSource(t, map[string]string{
		"content/posts/hello.md": "---\ntitle: Hello\ndate: 2024-01-01T10:00:00Z\npublished: true\ncategory: 技術\n---\n# Hi\nWorld",
	})
	repo := NewPostRepository(source, DefaultConfig())

	post, err := repo.Get(ctx, "hello")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if post == nil {
		t.Fatal("Get returned nil for an existing post")
	}
	if post.Title != "Hello" || post.Date != "2024-01-01" || post.Category != "技術" || !post.Published {
		t.Errorf("Get = %+v", post)
	}
	if post.Content != "# Hi\nWorld" {
		t.Errorf("Content = %q", post.Content)
	}
	if post.Excerpt != "" {
		t.Errorf("Excerpt = %q, want empty when not set in the header", post.Excerpt)
	}
	if post.Revision == "" {
		t.Error("Revision not set")
	}
}

func TestPostRepository_Get_Missing(t *testing.T) {
	repo := NewPostRepository(setupTestSource(t, nil), DefaultConfig())

	post, err := repo.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if post != nil {
		t.Errorf("Get = %+v, want nil", post)
	}
}

func TestPostRepository_Get_Malformed(t *testing.T) {
	source := setupTestSource(t, map[string]string{
		"content/posts/broken.md": "---\ntitle: Broken\n",
	})
	repo := NewPostRepository(source, DefaultConfig())

	_, err := repo.Get(context.Background(), "broken")
	if !errors.Is(err, domain.ErrMalformedDocument) {
		t.Errorf("Get error = %v, want ErrMalformedDocument", err)
	}
}

func TestPostRepository_Get_InvalidSlug(t *testing.T) {
	repo := NewPostRepository(setupTestSource(t, nil), DefaultConfig())

	for _, slug := range []string{"", "..", "../settings", "a/b"} {
		if _, err := repo.Get(context.Background(), slug); !errors.Is(err, domain.ErrInvalidSlug) {
			t.Errorf("Get(%q) error = %v, want ErrInvalidSlug", slug, err)
		}
	}
}

func TestPostRepository_Create(t *testing.T) {
	tests := []struct {
		name    string
		seed    map[string]string
		post    *domain.Post
		wantErr error
	}{
		{
			name: "New post",
			post: &domain.Post{Slug: "new-post", Title: "New"},
		},
		{
			name:    "Slug already taken",
			seed:    map[string]string{"content/posts/taken.md": "---\ntitle: Taken\n---\n"},
			post:    &domain.Post{Slug: "taken", Title: "Again"},
			wantErr: domain.ErrAlreadyExists,
		},
		{
			name:    "Invalid slug",
			post:    &domain.Post{Slug: "Not A Slug", Title: "Bad"},
			wantErr: domain.ErrInvalidSlug,
		},
		{
			name:    "Nil post",
			post:    nil,
			wantErr: domain.ErrInvalidPost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewPostRepository(setupTestSource(t, tt.seed), DefaultConfig())

			_, err := repo.Create(context.Background(), tt.post)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Create error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPostRepository_Update_RoundTrip(t *testing.T) {
	ctx := context.Background()
	source := setupTestSource(t, nil)
	repo := NewPostRepository(source, DefaultConfig())

	if _, err := repo.Create(ctx, &domain.Post{Slug: "hello", Title: "Hello", Date: "2024-01-01", Content: "v1"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	post, err := repo.Get(ctx, "hello")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	post.Title = "Hello again"
	post.Content = "v2\n\nwith more text"
	post.Category = "日常"
	post.Published = true

	newRev, err := repo.Update(ctx, post)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if newRev == post.Revision {
		t.Error("Update did not change the revision")
	}

	got, err := repo.Get(ctx, "hello")
	if err != nil {
		t.Fatalf("Get after update failed: %v", err)
	}
	if got.Title != "Hello again" || got.Content != "v2\n\nwith more text" || got.Category != "日常" || !got.Published || got.Date != "2024-01-01" {
		t.Errorf("Get after update = %+v", got)
	}
	if got.Revision != newRev {
		t.Errorf("Revision = %q, want %q", got.Revision, newRev)
	}

	commits := source.Commits()
	if last := commits[len(commits)-1].Message; last != "Update post: hello" {
		t.Errorf("commit message = %q", last)
	}
}

func TestPostRepository_Update_StaleRevision(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(setupTestSource(t, nil), DefaultConfig())

	firstRev, err := repo.Create(ctx, &domain.Post{Slug: "hello", Title: "Hello", Content: "v1"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := repo.Update(ctx, &domain.Post{Slug: "hello", Title: "Hello", Content: "v2", Revision: firstRev}); err != nil {
		t.Fatalf("first Update failed: %v", err)
	}

	_, err = repo.Update(ctx, &domain.Post{Slug: "hello", Title: "Hello", Content: "v3", Revision: firstRev})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("Update error = %v, want ErrConflict", err)
	}

	_, err = repo.Update(ctx, &domain.Post{Slug: "hello", Title: "Hello", Content: "v3"})
	if !errors.Is(err, domain.ErrRevisionRequired) {
		t.Errorf("Update without revision error = %v, want ErrRevisionRequired", err)
	}
}

func TestPostRepository_Save(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(setupTestSource(t, nil), DefaultConfig())

	rev, err := repo.Save(ctx, &domain.Post{Slug: "hello", Title: "Hello", Content: "v1"})
	if err != nil {
		t.Fatalf("Save (create) failed: %v", err)
	}

	rev2, err := repo.Save(ctx, &domain.Post{Slug: "hello", Title: "Hello", Content: "v2", Revision: rev})
	if err != nil {
		t.Fatalf("Save (update) failed: %v", err)
	}

	_, err = repo.Save(ctx, &domain.Post{Slug: "hello", Title: "Hello", Content: "v3"})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("Save without revision on existing post error = %v, want ErrAlreadyExists", err)
	}

	post, err := repo.Get(ctx, "hello")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if post.Content != "v2" || post.Revision != rev2 {
		t.Errorf("Get = %+v, want content v2 at %s", post, rev2)
	}
}

func TestPostRepository_Delete(t *testing.T) {
	ctx := context.Background()
	source := setupTestSource(t, nil)
	repo := NewPostRepository(source, DefaultConfig())

	rev, err := repo.Create(ctx, &domain.Post{Slug: "hello", Title: "Hello", Date: "2024-01-01"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := repo.Create(ctx, &domain.Post{Slug: "other", Title: "Other", Date: "2024-01-02"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Delete(ctx, "hello", ""); !errors.Is(err, domain.ErrRevisionRequired) {
		t.Errorf("Delete without revision error = %v, want ErrRevisionRequired", err)
	}
	if err := repo.Delete(ctx, "hello", "0000"); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("Delete with stale revision error = %v, want ErrConflict", err)
	}

	if err := repo.Delete(ctx, "hello", rev); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	posts, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Slug != "other" {
		t.Errorf("List after delete = %+v", posts)
	}

	commits := source.Commits()
	last := commits[len(commits)-1]
	if !last.Deleted || last.Message != "Delete post: hello" {
		t.Errorf("last commit = %+v", last)
	}
}
