package rest

import (
	"net/http"

	"github.com/dfryer1193/repoblog/api"
	"github.com/dfryer1193/repoblog/blog/domain"
	"github.com/gin-gonic/gin"
)

func (a *Api) AdminListPosts(c *gin.Context) {
	index, err := a.posts.ListAllPosts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	malformed := index.Malformed
	if malformed == nil {
		malformed = []string{}
	}
	c.JSON(http.StatusOK, api.AdminPostList{
		Posts:     toApiPostMetas(index.Posts),
		Malformed: malformed,
	})
}

func (a *Api) AdminGetPost(c *gin.Context) {
	post, err := a.posts.GetPost(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toApiPost(post))
}

func (a *Api) AdminCreatePost(c *gin.Context) {
	proto := &api.PostProto{}
	if err := c.ShouldBindJSON(proto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post := fromPostProto(proto.Slug, proto)
	post.Revision = ""

	rev, err := a.posts.CreatePost(c.Request.Context(), post)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, api.Revision{Slug: post.Slug, Sha: rev})
}

// AdminSavePost writes the post at the path's slug. Without a sha in the body the
// post is created, which fails if it already exists.
func (a *Api) AdminSavePost(c *gin.Context) {
	proto := &api.PostProto{}
	if err := c.ShouldBindJSON(proto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post := fromPostProto(c.Param("slug"), proto)
	rev, err := a.posts.SavePost(c.Request.Context(), post)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.Revision{Slug: post.Slug, Sha: rev})
}

func (a *Api) AdminDeletePost(c *gin.Context) {
	revision := c.Query("sha")
	if revision == "" {
		revision = c.Query("revision")
	}

	if err := a.posts.DeletePost(c.Request.Context(), c.Param("slug"), revision); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (a *Api) AdminListComments(c *gin.Context) {
	comments, unread, err := a.comments.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.CommentInbox{
		Comments: toApiComments(comments),
		Unread:   unread,
	})
}

func (a *Api) AdminGetComments(c *gin.Context) {
	collection, err := a.comments.Collection(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.CommentCollection{
		Comments: toApiComments(collection.Comments),
		Sha:      collection.Revision,
	})
}

// AdminReplaceComments overwrites a post's comments. The body's sha must match the
// stored revision; leave it empty only when the post has no comment file yet.

func (a *Api) AdminReplaceComments(c *gin.Context) {
	proto := &api.CommentCollection{}
	if err := c.ShouldBindJSON(proto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comments := make([]*domain.Comment, 0, len(proto.Comments))
	for i := range proto.Comments {
		comment, err := fromApiComment(&proto.Comments[i])
		if err != nil {
			respondError(c, err)
			return
		}
		comments = append(comments, comment)
	}

	rev, err := a.comments.ReplaceAll(c.Request.Context(), c.Param("slug"), comments, proto.Sha)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.Revision{Slug: c.Param("slug"), Sha: rev})
}

func (a *Api) AdminMarkCommentRead(c *gin.Context) {
	comment, err := a.comments.MarkRead(c.Request.Context(), c.Param("slug"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toApiComment(comment))
}

func (a *Api) AdminReplyToComment(c *gin.Context) {
	reply := &api.CommentReply{}
	if err := c.ShouldBindJSON(reply); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := a.comments.Reply(c.Request.Context(), c.Param("slug"), c.Param("id"), reply.Reply)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toApiComment(comment))
}
