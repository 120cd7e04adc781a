package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamraffle-backend/internal/common/errors"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(ErrorHandler())
	return r
}

func TestAdminAuth(t *testing.T) {
	r := newTestRouter()
	r.Use(AdminAuth())
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"admin_id": AdminID(c)})
	})

	t.Run("valid header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("X-Admin-ID", "42")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"admin_id":42}`, w.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("non-numeric header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("X-Admin-ID", "mallory")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRequestIDPropagation(t *testing.T) {
	r := newTestRouter()
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	// Absent inbound id, one is generated.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestErrorHandlerStatusMapping(t *testing.T) {
	r := newTestRouter()
	r.GET("/conflict", func(c *gin.Context) {
		c.Error(errors.NewAlreadyOpenError(7, "g1"))
	})
	r.GET("/missing", func(c *gin.Context) {
		c.Error(errors.NewGiveawayNotFoundError("g404"))
	})
	r.GET("/degraded", func(c *gin.Context) {
		c.Error(errors.New(errors.ErrCodeConfiguration, "no api key"))
	})

	cases := []struct {
		path string
		code int
	}{
		{"/conflict", http.StatusConflict},
		{"/missing", http.StatusNotFound},
		{"/degraded", http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		require.Equal(t, tc.code, w.Code, tc.path)
		assert.Contains(t, w.Body.String(), `"success":false`)
	}
}
