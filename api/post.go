package api

type PostMeta struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	Published bool   `json:"published"`
	Category  string `json:"category,omitempty"`
	Excerpt   string `json:"excerpt"`
	Sha       string `json:"sha,omitempty"`
}

type Post struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
	Category  string `json:"category,omitempty"`
	Excerpt   string `json:"excerpt,omitempty"`
	Sha       string `json:"sha,omitempty"`
}

// PostProto is the body of an admin create or update. Sha must be the revision the
// editor loaded when updating.
type PostProto struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
	Category  string `json:"category"`
	Excerpt   string `json:"excerpt"`
	Sha       string `json:"sha"`
}

type Category struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Archive struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type PostList struct {
	Posts      []PostMeta `json:"posts"`
	Categories []Category `json:"categories"`
	Archives   []Archive  `json:"archives"`
	Recent     []PostMeta `json:"recent"`
	Total      int        `json:"total"`
}

type PostPage struct {
	Post  Post      `json:"post"`
	HTML  string    `json:"html"`
	Newer *PostMeta `json:"newer"`
	Older *PostMeta `json:"older"`
}

// Revision is returned by every write.
type Revision struct {
	Slug string `json:"slug,omitempty"`
	Sha  string `json:"sha"`
}

// AdminPostList lists every post, drafts included. Malformed names the slugs whose
// files could not be read as posts.
type AdminPostList struct {
	Posts     []PostMeta `json:"posts"`
	Malformed []string   `json:"malformed"`
}
