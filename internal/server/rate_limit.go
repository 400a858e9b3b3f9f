package server

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/lotbid/internal/observability/logger"
	"go.uber.org/zap"
)

// PublicStatusRateLimit throttles invitation status reads per client IP so
// tokens cannot be enumerated cheaply.
func (s *Server) PublicStatusRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.statusLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		result, err := s.statusLimiter.Allow(ctx, c.ClientIP())
		if err != nil {
			logger.FromContext(ctx).Warn("invitation status rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
