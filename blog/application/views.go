package application

import (
	"sort"
	"strings"

	"github.com/dfryer1193/repoblog/blog/domain"
)

const archiveKeyLength = len("2006-01")

// DefaultPreferredCategories is the display order used when none is configured.
var DefaultPreferredCategories = []string{"合気道", "技術", "ラーメン", "ガジェット", "地理", "日常"}

type CategoryCount struct {
	Name  string
	Count int
}

// ArchiveBucket counts the published posts of one month. Key is formatted YYYY-MM.
type ArchiveBucket struct {
	Key   string
	Count int
}

// Navigation holds the neighbours of a post in a date-descending list.
// Either side is nil at the ends of the list.
type Navigation struct {
	Newer *domain.PostMeta
	Older *domain.PostMeta
}

// FilterPublished returns the published posts, preserving order.
func FilterPublished(posts []*domain.PostMeta) []*domain.PostMeta {
	out := make([]*domain.PostMeta, 0, len(posts))
	for _, p := range posts {
		if p.Published {
			out = append(out, p)
		}
	}
	return out
}

func FilterByCategory(posts []*domain.PostMeta, category string) []*domain.PostMeta {
	out := make([]*domain.PostMeta, 0)
	for _, p := range posts {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// FilterByArchive keeps the posts whose date falls in the YYYY-MM month key.
func FilterByArchive(posts []*domain.PostMeta, key string) []*domain.PostMeta {
	out := make([]*domain.PostMeta, 0)
	for _, p := range posts {
		if archiveKey(p.Date) == key {
			out = append(out, p)
		}
	}
	return out
}

// Recent returns at most n posts from the front of the list.
func Recent(posts []*domain.PostMeta, n int) []*domain.PostMeta {
	if n < 0 {
		n = 0
	}
	if len(posts) < n {
		n = len(posts)
	}
	return posts[:n:n]
}

// Categories counts published posts per category. Categories named in preferred come
// first in that order; the remaining ones follow alphabetically. Posts without a category
// are not counted.
func Categories(posts []*domain.PostMeta, preferred []string) []CategoryCount {
	counts := make(map[string]int)
	for _, p := range posts {
		if p.Published && p.Category != "" {
			counts[p.Category]++
		}
	}

	result := make([]CategoryCount, 0, len(counts))
	listed := make(map[string]bool, len(preferred))
	for _, name := range preferred {
		if listed[name] {
			continue
		}
		listed[name] = true
		if n, ok := counts[name]; ok {
			result = append(result, CategoryCount{Name: name, Count: n})
		}
	}

	var rest []string
	for name := range counts {
		if !listed[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		result = append(result, CategoryCount{Name: name, Count: counts[name]})
	}

	return result
}

// Archives groups published posts by month, most recent month first.
func Archives(posts []*domain.PostMeta) []ArchiveBucket {
	counts := make(map[string]int)
	for _, p := range posts {
		if !p.Published {
			continue
		}
		if key := archiveKey(p.Date); key != "" {
			counts[key]++
		}
	}

	result := make([]ArchiveBucket, 0, len(counts))
	for key, n := range counts {
		result = append(result, ArchiveBucket{Key: key, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key > result[j].Key
	})
	return result
}

// Navigate finds slug in posts and returns its neighbours. Nothing wraps around, and an
// unknown slug has no neighbours.
func Navigate(posts []*domain.PostMeta, slug string) Navigation {
	for i, p := range posts {
		if p.Slug != slug {
			continue
		}

		var nav Navigation
		if i > 0 {
			nav.Newer = posts[i-1]
		}
		if i+1 < len(posts) {
			nav.Older = posts[i+1]
		}
		return nav
	}
	return Navigation{}
}

func archiveKey(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < archiveKeyLength {
		return ""
	}
	return date[:archiveKeyLength]
}
