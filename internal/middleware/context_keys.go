package middleware

import "github.com/gin-gonic/gin"

// contextKey is a private type for context keys defined by this package.
// Using a custom type prevents collisions.
type contextKey string

const (
	// loggerCtxKey is the key used to store the request-scoped logger in the
	// standard request context.
	loggerCtxKey = contextKey("logger")

	// userIDKey is the key used to store the authenticated user's ID.
	userIDKey = contextKey("userID")
)

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get(string(userIDKey))
	if !exists {
		// check in the request context as well
		userIDCtxVal := c.Request.Context().Value(userIDKey)
		if userIDCtxVal != nil {
			return userIDCtxVal.(string), true
		}
		return "", false
	}

	userID, ok := userIDVal.(string)
	if !ok {
		// This should not happen if the auth middleware sets it correctly.
		return "", false
	}

	return userID, true
}
