package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maildesk-io/maildesk/internal/auth"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *auth.JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	router := gin.New()
	router.POST("/protected", NewAuthMiddleware(jwtManager).RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"tenant": c.GetString(ContextTenantID),
			"user":   c.GetString(ContextUserID),
		})
	})
	return router, jwtManager
}

func TestRequireAuthAccepts(t *testing.T) {
	router, jwtManager := newAuthRouter(t)

	token, err := jwtManager.GenerateToken("acme", "u1", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tenant":"acme"`)
	assert.Contains(t, w.Body.String(), `"user":"u1"`)
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	router, _ := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthRejectsBadToken(t *testing.T) {
	router, _ := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireSchedulerSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/run", RequireSchedulerSecret("s3cret"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/run", nil)
	req.Header.Set("X-Scheduler-Secret", "s3cret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/run", nil)
	req.Header.Set("X-Scheduler-Secret", "wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/run", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireSchedulerSecretUnconfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/run", RequireSchedulerSecret(""), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/run", nil)
	req.Header.Set("X-Scheduler-Secret", "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
