package middleware

import (
	"strings"

	"github.com/collabdoor/collabdoor-api/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	userIDKey    = "user_id"
	userEmailKey = "user_email"

	streamTokenParam = "access_token"
)

// Auth requires a valid access token in the Authorization header.
func Auth(jwtService *services.JWTService) drift.HandlerFunc {
	return authenticate(jwtService, false)
}

// StreamAuth also accepts ?access_token= because EventSource cannot set headers.
// A present but malformed header still wins over the query parameter.
func StreamAuth(jwtService *services.JWTService) drift.HandlerFunc {
	return authenticate(jwtService, true)
}

func authenticate(jwtService *services.JWTService, allowQuery bool) drift.HandlerFunc {
	return func(c *drift.Context) {
		token, problem := requestToken(c, allowQuery)
		if problem != "" {
			c.Unauthorized(problem)
			return
		}

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			c.Unauthorized("invalid or expired token")
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(userEmailKey, claims.Email)
		c.Next()
	}
}

func requestToken(c *drift.Context, allowQuery bool) (token, problem string) {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || value == "" {
			return "", "invalid authorization header format"
		}
		return value, ""
	}
	if allowQuery {
		if value := c.QueryParam(streamTokenParam); value != "" {
			return value, ""
		}
	}
	return "", "missing authorization header"
}

// GetUserID returns the authenticated caller, or uuid.Nil outside Auth.
func GetUserID(c *drift.Context) uuid.UUID {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
