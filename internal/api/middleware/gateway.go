package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middlewares
const (
	subjectKey = "user_id"
	emailKey   = "user_email"
	roleKey    = "user_role"
)

// GatewayAuth trusts caller identity from gateway headers (X-User-ID, X-User-Email, X-User-Role).
// Used when the harmonizer runs behind a gateway that validates tokens itself.
//
// When AUTH_MODE=gateway, the API trusts these headers unconditionally.
// This should ONLY be used with proper network isolation.
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Missing X-User-ID header from gateway",
			})
			c.Abort()
			return
		}

		c.Set(subjectKey, userID)
		c.Set(emailKey, c.GetHeader("X-User-Email"))
		c.Set(roleKey, c.GetHeader("X-User-Role"))

		c.Next()
	}
}

// Subject returns the authenticated caller, empty when the request carries none
func Subject(c *gin.Context) string {
	return c.GetString(subjectKey)
}

// Email returns the caller email set by the gateway or the token claims
func Email(c *gin.Context) string {
	return c.GetString(emailKey)
}
