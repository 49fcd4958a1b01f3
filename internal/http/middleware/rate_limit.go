package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/citysafe/citysafe-backend/internal/pkg/apperror"
)

// NewRegistrationLimiter создаёт in-memory лимитер по адресу клиента.
// Лимитер создаётся один раз на старте процесса и передаётся в
// middleware явно, чтобы тесты могли подставить свежий экземпляр.
func NewRegistrationLimiter(limit int64, period time.Duration) *limiter.Limiter {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = 1 * time.Minute
	}

	rate := limiter.Rate{
		Period: period,
		Limit:  limit,
	}
	return limiter.New(memory.NewStore(), rate)
}

// RateLimitMiddleware ограничивает число запросов с одного IP.
func RateLimitMiddleware(instance *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		limiterCtx, err := instance.Get(c, c.ClientIP())
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limiterCtx.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", limiterCtx.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", limiterCtx.Reset))

		if limiterCtx.Reached {
			c.AbortWithStatusJSON(apperror.ErrRateLimited.HTTPStatus, gin.H{
				"error": apperror.ErrRateLimited.Message,
			})
			return
		}

		c.Next()
	}
}
