package rest

import (
	"errors"
	"net/http"

	"github.com/dfryer1193/repoblog/blog/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// statusFor maps a domain error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidSlug),
		errors.Is(err, domain.ErrInvalidPost),
		errors.Is(err, domain.ErrInvalidComment),
		errors.Is(err, domain.ErrRevisionRequired):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMalformedDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Int("status", status).Msg("Request failed")
		if status == http.StatusInternalServerError {
			c.JSON(status, gin.H{"error": "Internal server error"})
			return
		}
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
