// Package middleware holds gin middleware shared by the API routes.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/soundprediction/go-geoai/pkg/server/dto"
	"github.com/soundprediction/go-geoai/pkg/types"
)

// RequireBearer rejects requests without a valid HS256 token signed with
// secret. The token subject becomes the user id seen by logging and token
// accounting.
func RequireBearer(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, "Authorization header required")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, "Invalid authorization header format")
			return
		}

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		})
		if err != nil {
			abort(c, "Invalid or expired token")
			return
		}

		if claims.Subject != "" {
			ctx := context.WithValue(c.Request.Context(), types.ContextKeyUserID, claims.Subject)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

func abort(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
		Error:   "unauthorized",
		Message: message,
		Code:    http.StatusUnauthorized,
	})
}
