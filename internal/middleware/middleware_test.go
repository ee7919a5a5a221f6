package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	buf := &bytes.Buffer{}
	previous := log.Logger
	log.Logger = zerolog.New(buf)
	t.Cleanup(func() { log.Logger = previous })
	return buf
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(LoggingMiddleware())
	router.Use(gin.CustomRecovery(HandlePanics()))
	router.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/panic", func(c *gin.Context) { panic("boom") })
	return router
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantLevel  string
	}{
		{name: "Success", path: "/ok", wantStatus: http.StatusOK, wantLevel: `"level":"info"`},
		{name: "Client error", path: "/missing", wantStatus: http.StatusNotFound, wantLevel: `"level":"warn"`},
		{name: "Panic", path: "/panic", wantStatus: http.StatusInternalServerError, wantLevel: `"level":"error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)
			router := newTestRouter()

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !strings.Contains(logs.String(), tt.wantLevel) {
				t.Errorf("logs do not contain %s:\n%s", tt.wantLevel, logs.String())
			}
			if !strings.Contains(logs.String(), `"path":"`+tt.path+`"`) {
				t.Errorf("logs do not contain the path:\n%s", logs.String())
			}
		})
	}
}

func TestHandlePanics_RespondsWithJSON(t *testing.T) {
	captureLogs(t)
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"error":"Internal server error"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}
