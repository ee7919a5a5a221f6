package rest

import (
	"fmt"
	"time"

	"github.com/dfryer1193/repoblog/api"
	"github.com/dfryer1193/repoblog/blog/application"
	"github.com/dfryer1193/repoblog/blog/domain"
)

const commentDateLayout = "2006-01-02T15:04:05.000Z07:00"

func toApiPostMeta(p *domain.PostMeta) api.PostMeta {
	return api.PostMeta{
		Slug:      p.Slug,
		Title:     p.Title,
		Date:      p.Date,
		Published: p.Published,
		Category:  p.Category,
		Excerpt:   p.Excerpt,
		Sha:       p.Revision,
	}
}

func toApiPostMetas(posts []*domain.PostMeta) []api.PostMeta {
	out := make([]api.PostMeta, 0, len(posts))
	for _, p := range posts {
		out = append(out, toApiPostMeta(p))
	}
	return out
}

// toPublicPostMetas drops revisions, which only the admin surface hands out.
func toPublicPostMetas(posts []*domain.PostMeta) []api.PostMeta {
	out := toApiPostMetas(posts)
	for i := range out {
		out[i].Sha = ""
	}
	return out
}

func toApiPost(p *domain.Post) api.Post {
	return api.Post{
		Slug:      p.Slug,
		Title:     p.Title,
		Date:      p.Date,
		Content:   p.Content,
		Published: p.Published,
		Category:  p.Category,
		Excerpt:   p.Excerpt,
		Sha:       p.Revision,
	}
}

func fromPostProto(slug string, proto *api.PostProto) *domain.Post {
	return &domain.Post{
		Slug:      slug,
		Title:     proto.Title,
		Date:      proto.Date,
		Content:   proto.Content,
		Published: proto.Published,
		Category:  proto.Category,
		Excerpt:   proto.Excerpt,
		Revision:  proto.Sha,
	}
}

func toApiPostList(page *application.PostListPage) api.PostList {
	categories := make([]api.Category, 0, len(page.Categories))
	for _, c := range page.Categories {
		categories = append(categories, api.Category{Name: c.Name, Count: c.Count})
	}
	archives := make([]api.Archive, 0, len(page.Archives))
	for _, a := range page.Archives {
		archives = append(archives, api.Archive{Month: a.Key, Count: a.Count})
	}

	return api.PostList{
		Posts:      toPublicPostMetas(page.Posts),
		Categories: categories,
		Archives:   archives,
		Recent:     toPublicPostMetas(page.Recent),
		Total:      page.Total,
	}
}

func toApiPostPage(page *application.PostPage) api.PostPage {
	post := toApiPost(page.Post)
	post.Sha = ""

	out := api.PostPage{
		Post: post,
		HTML: string(page.HTML),
	}
	if page.Navigation.Newer != nil {
		newer := toApiPostMeta(page.Navigation.Newer)
		newer.Sha = ""
		out.Newer = &newer
	}
	if page.Navigation.Older != nil {
		older := toApiPostMeta(page.Navigation.Older)
		older.Sha = ""
		out.Older = &older
	}
	return out
}

func toApiComment(c *domain.Comment) api.Comment {
	out := api.Comment{
		ID:       c.ID,
		PostSlug: c.PostSlug,
		Author:   c.Author,
		Content:  c.Content,
		IsRead:   c.IsRead,
		Reply:    c.Reply,
	}
	if !c.Date.IsZero() {
		out.Date = c.Date.UTC().Format(commentDateLayout)
	}
	return out
}

func toApiComments(comments []*domain.Comment) []api.Comment {
	out := make([]api.Comment, 0, len(comments))
	for _, c := range comments {
		out = append(out, toApiComment(c))
	}
	return out
}

func fromApiComment(c *api.Comment) (*domain.Comment, error) {
	out := &domain.Comment{
		ID:       c.ID,
		PostSlug: c.PostSlug,
		Author:   c.Author,
		Content:  c.Content,
		IsRead:   c.IsRead,
		Reply:    c.Reply,
	}
	if c.Date != "" {
		t, err := time.Parse(time.RFC3339Nano, c.Date)
		if err != nil {
			return nil, fmt.Errorf("comment %s has an invalid date %q: %w", c.ID, c.Date, domain.ErrInvalidComment)
		}
		out.Date = t.UTC()
	}
	return out, nil
}

func toApiSettings(s *domain.Settings) api.Settings {
	return api.Settings{
		BlogTitle:          s.BlogTitle,
		BlogDescription:    s.BlogDescription,
		ProfileName:        s.ProfileName,
		ProfileDescription: s.ProfileDescription,
		Sha:                s.Revision,
	}
}

func fromApiSettings(s *api.Settings) *domain.Settings {
	return &domain.Settings{
		BlogTitle:          s.BlogTitle,
		BlogDescription:    s.BlogDescription,
		ProfileName:        s.ProfileName,
		ProfileDescription: s.ProfileDescription,
		Revision:           s.Sha,
	}
}
