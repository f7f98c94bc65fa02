// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the calling user. Authentication is out of scope for the
// service: an upstream gateway is expected to authenticate and forward the
// user id in the X-User-ID header. Identity() stores it in the Gin context so
// the rate limiter, the access log and the handlers all see the same value.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderUserID carries the authenticated user id.
	HeaderUserID = "X-User-ID"
	// userIDKey is the Gin context key holding the resolved user id.
	userIDKey = "userID"
	// maxUserIDLen matches the width of the user_id columns.
	maxUserIDLen = 64
)

// IdentityOptions configures Identity.
type IdentityOptions struct {
	// Required rejects requests without a user id with 401.
	Required bool
	// Anonymous is stored when the header is absent and Required is false.
	Anonymous string
}

// Identity reads X-User-ID and stores it under the "userID" context key.
// Ids longer than the user_id column are rejected with 400.
func Identity(opts IdentityOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(HeaderUserID))
		switch {
		case len(uid) > maxUserIDLen:
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_request",
				"message":    "X-User-ID too long",
			})
			return
		case uid == "" && opts.Required:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "X-User-ID header required",
			})
			return
		case uid == "":
			uid = opts.Anonymous
		}
		if uid != "" {
			c.Set(userIDKey, uid)
		}
		c.Next()
	}
}

// UserIDFrom returns the user id stored by Identity, or "" when unknown.
func UserIDFrom(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
