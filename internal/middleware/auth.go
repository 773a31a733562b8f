package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminKeyHeader carries the admin key. The Authorization header is taken by the
// user's bearer token, so the admin key travels separately.
const AdminKeyHeader = "X-Admin-Key"

// checkAdminKey compares the request's admin key with the configured one in
// constant time. It returns an error code, or "" when the key matches.
func checkAdminKey(c *gin.Context, key string) (code, message string) {
	provided := c.GetHeader(AdminKeyHeader)
	if provided == "" {
		return "ADMIN_KEY_REQUIRED", AdminKeyHeader + " header required"
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
		return "ADMIN_KEY_INVALID", "Invalid admin key"
	}
	return "", ""
}

// AdminKeyAuth returns middleware that requires a valid admin key for catalog writes.
// If key is empty, all requests are allowed (local development).
func AdminKeyAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}

		if code, msg := checkAdminKey(c, key); code != "" {
			status := http.StatusForbidden
			if code == "ADMIN_KEY_REQUIRED" {
				status = http.StatusUnauthorized
			}
			c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": code})
			return
		}

		c.Next()
	}
}

// VerifyAdminKey returns a handler that tells a client whether its stored admin
// key is still valid
func VerifyAdminKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.JSON(http.StatusOK, gin.H{
				"valid":        true,
				"auth_enabled": false,
				"message":      "Admin key authentication is not configured",
			})
			return
		}

		if code, msg := checkAdminKey(c, key); code != "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"valid": false,
				"error": msg,
				"code":  code,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"valid":        true,
			"auth_enabled": true,
		})
	}
}

// AuthStatus returns a public handler reporting whether admin key auth is enabled
func AuthStatus(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"auth_enabled": key != "",
		})
	}
}
