package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func request(r http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterPerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRateLimiter(2).Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, request(r, nil).Code)
	assert.Equal(t, http.StatusOK, request(r, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, request(r, nil).Code)

	other := map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}
	assert.Equal(t, http.StatusOK, request(r, other).Code)
}

func TestGetClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for name, tc := range map[string]struct {
		headers map[string]string
		want    string
	}{
		"forwarded": {map[string]string{"X-Forwarded-For": " 203.0.113.9 , 10.0.0.1"}, "203.0.113.9"},
		"real ip":   {map[string]string{"X-Real-IP": "198.51.100.4"}, "198.51.100.4"},
		"remote":    {nil, "10.0.0.7"},
		"blank hop": {map[string]string{"X-Forwarded-For": " , 10.0.0.1", "X-Real-IP": "198.51.100.4"}, "198.51.100.4"},
	} {
		t.Run(name, func(t *testing.T) {
			var got string
			r := gin.New()
			r.GET("/ping", func(c *gin.Context) { got = getClientIP(c) })
			request(r, tc.headers)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	var scoped *zap.Logger
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ping", func(c *gin.Context) {
		l, _ := c.Get("logger")
		scoped, _ = l.(*zap.Logger)
		c.Status(http.StatusTeapot)
	})

	w := request(r, map[string]string{requestIDHeader: "req-42"})
	assert.Equal(t, "req-42", w.Header().Get(requestIDHeader))
	require.NotNil(t, scoped)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-42", fields["requestId"])
	assert.Equal(t, "/ping", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.Equal(t, zap.WarnLevel, entries[0].Level)

	w = request(r, nil)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}
