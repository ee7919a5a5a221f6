package rest

import (
	"errors"
	"net/http"

	"github.com/dfryer1193/repoblog/api"
	"github.com/dfryer1193/repoblog/blog/domain"
	"github.com/gin-gonic/gin"
)

func (a *Api) PostComment(c *gin.Context) {
	commentProto := &api.CommentProto{}
	if err := c.ShouldBindJSON(commentProto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := a.comments.Submit(c.Request.Context(), commentProto.PostSlug, commentProto.Author, commentProto.Content)
	if errors.Is(err, domain.ErrInvalidComment) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing fields"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toApiComment(comment))
}

func (a *Api) GetComments(c *gin.Context) {
	slug := c.Param("slug")

	comments, err := a.comments.ListForPost(c.Request.Context(), slug)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toApiComments(comments))
}
