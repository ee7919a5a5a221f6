package rest

import (
	"net/http"
	"time"

	"github.com/dfryer1193/repoblog/blog/application"
	"github.com/dfryer1193/repoblog/blog/domain"
	"github.com/gin-gonic/gin"
)

type Api struct {
	posts    *application.PostService
	comments *application.CommentService
	settings domain.SettingsRepository
}

func NewApi(router *gin.Engine, posts *application.PostService, comments *application.CommentService, settings domain.SettingsRepository) *Api {
	a := &Api{
		posts:    posts,
		comments: comments,
		settings: settings,
	}

	router.GET("/health", healthCheck)

	postsV1 := router.Group("posts/v1")
	{
		postsV1.GET("/", a.GetPosts)
		postsV1.GET("/:slug", a.GetPost)
	}

	commentsV1 := router.Group("comments/v1")
	{
		commentsV1.POST("/", a.PostComment)
		commentsV1.GET("/:slug", a.GetComments)
	}

	settingsV1 := router.Group("settings/v1")
	{
		settingsV1.GET("/", a.GetSettings)
	}

	adminV1 := router.Group("admin/v1")
	{
		adminV1.GET("/posts", a.AdminListPosts)
		adminV1.POST("/posts", a.AdminCreatePost)
		adminV1.GET("/posts/:slug", a.AdminGetPost)
		adminV1.PUT("/posts/:slug", a.AdminSavePost)
		adminV1.DELETE("/posts/:slug", a.AdminDeletePost)

		adminV1.GET("/comments", a.AdminListComments)
		adminV1.GET("/comments/:slug", a.AdminGetComments)
		adminV1.PUT("/comments/:slug", a.AdminReplaceComments)
		adminV1.POST("/comments/:slug/:id/read", a.AdminMarkCommentRead)
		adminV1.POST("/comments/:slug/:id/reply", a.AdminReplyToComment)

		adminV1.PUT("/settings", a.AdminSaveSettings)
	}

	return a
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
