package rest

import (
	"net/http"

	"github.com/dfryer1193/repoblog/api"
	"github.com/gin-gonic/gin"
)

func (a *Api) GetSettings(c *gin.Context) {
	settings, err := a.settings.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := toApiSettings(settings)
	out.Sha = ""
	c.JSON(http.StatusOK, out)
}

func (a *Api) AdminSaveSettings(c *gin.Context) {
	proto := &api.Settings{}
	if err := c.ShouldBindJSON(proto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rev, err := a.settings.Save(c.Request.Context(), fromApiSettings(proto))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.Revision{Sha: rev})
}
