package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SigningAuth(secret))
	router.POST("/api/signatures", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"caller": c.GetString("caller")})
	})
	return router
}

func TestSigningAuthAcceptsValidToken(t *testing.T) {
	router := newAuthRouter("jwt-secret")

	token, err := IssueToken("jwt-secret", "signing-page", 60)
	require.NoError(t, err)

	req, _ := http.NewRequest("POST", "/api/signatures", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "signing-page")
}

func TestSigningAuthRejections(t *testing.T) {
	router := newAuthRouter("jwt-secret")

	t.Run("Missing header", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/api/signatures", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		token, err := IssueToken("other-secret", "signing-page", 60)
		require.NoError(t, err)

		req, _ := http.NewRequest("POST", "/api/signatures", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Expired token", func(t *testing.T) {
		token, err := IssueToken("jwt-secret", "signing-page", -60)
		require.NoError(t, err)

		req, _ := http.NewRequest("POST", "/api/signatures", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
