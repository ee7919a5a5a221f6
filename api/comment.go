package api

type Comment struct {
	ID       string `json:"id"`
	PostSlug string `json:"postSlug"`
	Author   string `json:"author"`
	Content  string `json:"content"`
	Date     string `json:"date"`
	IsRead   bool   `json:"isRead"`
	Reply    string `json:"reply,omitempty"`
}

// CommentProto is the body of a public comment submission.
type CommentProto struct {
	PostSlug string `json:"postSlug"`
	Author   string `json:"author"`
	Content  string `json:"content"`
}

type CommentReply struct {
	Reply string `json:"reply"`
}

type CommentInbox struct {
	Comments []Comment `json:"comments"`
	Unread   int       `json:"unread"`
}

// CommentCollection is a post's full comment file. Sha is the revision it was read at
// and must be sent back when replacing it.
type CommentCollection struct {
	Comments []Comment `json:"comments"`
	Sha      string    `json:"sha"`
}
