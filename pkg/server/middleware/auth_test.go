package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/go-geoai/pkg/server/middleware"
	"github.com/soundprediction/go-geoai/pkg/types"
)

const secret = "test-secret"

func router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequireBearer(secret))
	r.GET("/whoami", func(c *gin.Context) {
		user, _ := c.Request.Context().Value(types.ContextKeyUserID).(string)
		c.String(http.StatusOK, user)
	})
	return r
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestRequireBearer(t *testing.T) {
	valid := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.RegisteredClaims{
		Subject:   "analyst-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	expired := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.RegisteredClaims{
		Subject:   "analyst-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	wrongKey := sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.RegisteredClaims{Subject: "analyst-1"})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "valid token", header: "Bearer " + valid, status: http.StatusOK, body: "analyst-1"},
		{name: "missing header", status: http.StatusUnauthorized, body: "Authorization header required"},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized, body: "Invalid authorization header format"},
		{name: "expired", header: "Bearer " + expired, status: http.StatusUnauthorized, body: "Invalid or expired token"},
		{name: "wrong key", header: "Bearer " + wrongKey, status: http.StatusUnauthorized, body: "Invalid or expired token"},
		{name: "unsigned", header: "Bearer " + sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.RegisteredClaims{}), status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router().ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}
