package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/couchcryptid/civic-report-service/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// authenticate verifies the bearer token issued by the identity provider and
// stores the caller's id and role on the context.
func authenticate(secret []byte, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header required")
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "Bearer token required")
			return
		}

		userID, role, err := parseToken(raw, secret)
		if err != nil {
			logger.Warn("token rejected", "client_ip", c.ClientIP(), "error", err)
			abortWithError(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxRole, role)
		c.Next()
	}
}

func parseToken(raw string, secret []byte) (userID, role string, err error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims: %w", domain.ErrUnauthorized)
	}
	if tokenType, _ := claims["type"].(string); tokenType == "refresh" {
		return "", "", fmt.Errorf("refresh token used for authentication: %w", domain.ErrUnauthorized)
	}
	userID, _ = claims["user_id"].(string)
	if userID == "" {
		return "", "", fmt.Errorf("missing user id: %w", domain.ErrUnauthorized)
	}
	role, _ = claims["role"].(string)
	return userID, role, nil
}

// requireRole rejects callers whose token does not carry role.
func requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != role {
			abortWithError(c, http.StatusForbidden, "Acesso restrito")
			return
		}
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
