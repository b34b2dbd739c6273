package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/exceptionzofficial/testing-backend-akshaya/auth"
	"github.com/exceptionzofficial/testing-backend-akshaya/models"

	"github.com/gin-gonic/gin"
)

const (
	ctxPhone   = "phone"
	ctxRole    = "role"
	ctxRiderID = "riderId"
	ctxClaims  = "claims"
)

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   msg,
		"code":    status,
	})
}

// AuthRequired validates the bearer token and injects its claims into context
func AuthRequired(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abort(c, http.StatusUnauthorized, "Authorization header required (Bearer <token>)")
			return
		}
		claims, err := issuer.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "Token has expired"
			}
			abort(c, http.StatusUnauthorized, msg)
			return
		}
		c.Set(ctxPhone, claims.Phone)
		c.Set(ctxRole, string(claims.Role))
		c.Set(ctxRiderID, claims.RiderID)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		callerRole := GetRole(c)
		if callerRole == "" {
			abort(c, http.StatusForbidden, "Role not found in context")
			return
		}
		for _, r := range roles {
			if callerRole == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "Access denied. Required role(s): "+rolesString(roles))
	}
}

func rolesString(roles []models.UserRole) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

// GetPhone extracts caller phone from context
func GetPhone(c *gin.Context) string {
	return c.GetString(ctxPhone)
}

// GetRole extracts caller role from context
func GetRole(c *gin.Context) models.UserRole {
	return models.UserRole(c.GetString(ctxRole))
}

// GetRiderID returns the caller's rider id, empty for plain users
func GetRiderID(c *gin.Context) string {
	return c.GetString(ctxRiderID)
}

// GetClaims returns the verified token claims, or nil outside AuthRequired.
func GetClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
