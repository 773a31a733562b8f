package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	router := gin.New()
	router.Use(RequestLogger(zap.New(core)))
	router.GET("/cards/:id", func(c *gin.Context) {
		c.String(http.StatusOK, RequestID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/cards/abc", nil)
	req.Header.Set(RequestIDHeader, "client-supplied")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "client-supplied", w.Body.String())
	assert.Equal(t, "client-supplied", w.Header().Get(RequestIDHeader))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "/cards/:id", fields["route"])
	assert.EqualValues(t, http.StatusOK, fields["status"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader), "an id is generated when none is supplied")
	require.Equal(t, 2, logs.Len())
	last := logs.All()[1]
	assert.Equal(t, zapcore.WarnLevel, last.Level)
	assert.Equal(t, "unmatched", last.ContextMap()["route"])
}
