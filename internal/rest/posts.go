package rest

import (
	"net/http"

	"github.com/dfryer1193/repoblog/blog/application"
	"github.com/gin-gonic/gin"
)

func (a *Api) GetPosts(c *gin.Context) {
	filter := application.PostFilter{
		Category: c.Query("category"),
		Archive:  c.Query("archive"),
	}

	page, err := a.posts.ListPosts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toApiPostList(page))
}

func (a *Api) GetPost(c *gin.Context) {
	slug := c.Param("slug")

	page, err := a.posts.GetPostPage(c.Request.Context(), slug)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toApiPostPage(page))
}
