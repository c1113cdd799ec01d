package httputil

import (
	"context"
	"net/http"
)

// Context key type to avoid collisions
type contextKey string

const (
	userIDKey      contextKey = "userID"
	displayNameKey contextKey = "displayName"
)

// WithIdentity adds the authenticated user's ID and display name to the
// request context.
func WithIdentity(r *http.Request, userID, displayName string) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	ctx = context.WithValue(ctx, displayNameKey, displayName)
	return r.WithContext(ctx)
}

// GetUserID retrieves userID from context, returns empty string if not found
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

// GetDisplayName retrieves the display name from context; may be empty.
func GetDisplayName(r *http.Request) string {
	name, _ := r.Context().Value(displayNameKey).(string)
	return name
}
