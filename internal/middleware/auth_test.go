package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth("secret"))
	r.GET("/who", func(c *gin.Context) { c.String(http.StatusOK, GetUserKey(c)) })
	r.GET("/private", RequireUser(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func do(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newRouter()
	valid := sign(t, "secret", jwt.MapClaims{"sub": "42", "exp": time.Now().Add(time.Hour).Unix()})

	w := do(r, "/who", "")
	assert.Equal(t, "guest", w.Body.String())

	w = do(r, "/who", valid)
	assert.Equal(t, "42", w.Body.String())

	w = do(r, "/who", sign(t, "other", jwt.MapClaims{"sub": "42"}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/who", sign(t, "secret", jwt.MapClaims{"sub": "42", "exp": time.Now().Add(-time.Hour).Unix()}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/who", sign(t, "secret", jwt.MapClaims{"sub": "guest"}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireUser(t *testing.T) {
	r := newRouter()
	assert.Equal(t, http.StatusUnauthorized, do(r, "/private", "").Code)

	valid := sign(t, "secret", jwt.MapClaims{"sub": "42"})
	assert.Equal(t, http.StatusNoContent, do(r, "/private", valid).Code)
}
