package types

import (
	"strings"
)

const (
	ContextUserKey      = "user"
	ContextRequestIDKey = "request_id"
	RequestIDHeader     = "X-Request-ID"
	TokenCookieName     = "token"
)

var (
	// Default allowed origins for development
	defaultOrigins = []string{
		"http://localhost:3000",
		"http://localhost:5173",
	}
)

// AllowedOrigins merges the development defaults with the public client URL
// and a comma separated list of extra origins.
func AllowedOrigins(clientURL, allowedOrigins string) []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if clientURL != "" {
		origins = append(origins, strings.TrimSuffix(clientURL, "/"))
	}

	if allowedOrigins != "" {
		envOrigins := strings.Split(allowedOrigins, ",")
		for _, origin := range envOrigins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	return origins
}
