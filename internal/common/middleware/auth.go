package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"tweet-giveaway-backend/internal/common/errors"
	"tweet-giveaway-backend/internal/common/validation"
)

const identityKey = "identity"

// Identity is the caller resolved from the upstream-issued bearer token.
type Identity struct {
	ID     string
	Handle string
}

// Authenticate resolves the bearer token into an Identity when one is present.
// Requests without a token pass through anonymously; RequireAuth rejects them.
// With an empty secret every token is refused.
func Authenticate(secret, issuer string) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		identity, err := ParseIdentity(tokenString, key, issuer)
		if err != nil {
			sendErrorResponse(c, errors.NewUnauthorizedError("invalid token"))
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireAuth отклоняет запросы без идентификации
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetIdentity(c); !ok {
			sendErrorResponse(c, errors.NewUnauthorizedError("bearer token required"))
			return
		}
		c.Next()
	}
}

// GetIdentity returns the identity placed by Authenticate.
func GetIdentity(c *gin.Context) (Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// ParseIdentity validates an HS256 token and extracts sub and handle.
// The handle claim must be a valid Twitter handle; without one the subject is
// used when it qualifies as a handle itself.
func ParseIdentity(tokenString string, key []byte, issuer string) (Identity, error) {
	if len(key) == 0 {
		return Identity{}, fmt.Errorf("signing key is not configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30 * time.Second),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("token validation failed: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(sub) == "" {
		return Identity{}, fmt.Errorf("subject claim missing")
	}

	handle, _ := claims["handle"].(string)
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle != "" {
		if err := validation.ValidateTwitterHandle(handle); err != nil {
			return Identity{}, fmt.Errorf("handle claim: %w", err)
		}
	} else if validation.ValidateTwitterHandle(sub) == nil {
		handle = sub
	}

	return Identity{ID: sub, Handle: handle}, nil
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}
