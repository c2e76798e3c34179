package middleware

import (
	"github.com/gin-gonic/gin"
)

// AnonymousSubject is the caller recorded for requests without authentication
const AnonymousSubject = "anonymous"

// NoAuth is a pass-through middleware for when AUTH_MODE=none.
// It allows all requests without authentication.
func NoAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Set a fixed subject so stored harmonizations stay listable
		c.Set(subjectKey, AnonymousSubject)
		c.Next()
	}
}
