package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tweet-giveaway-backend/internal/common/errors"
	"tweet-giveaway-backend/internal/common/logger"
)

// Limiter consumes one hit for subject within scope.
type Limiter interface {
	Allow(ctx context.Context, scope, subject string, limit int, window time.Duration) (bool, time.Duration, error)
}

// RateLimit ограничивает частоту запросов на пользователя (или IP для анонимных).
// Ошибки лимитера не блокируют запрос.
func RateLimit(limiter Limiter, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}

		subject := c.ClientIP()
		if id, ok := GetIdentity(c); ok {
			subject = id.ID
		}

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), scope, subject, limit, window)
		if err != nil {
			logger.Warn().Err(err).Str("scope", scope).Msg("Rate limiter unavailable")
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			sendErrorResponse(c, errors.NewRateLimitError(scope, retryAfter))
			return
		}

		c.Next()
	}
}
