package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	pkgredis "github.com/nagisa-works/inkstone/internal/pkg/redis"
	"github.com/nagisa-works/inkstone/internal/pkg/response"
)

// RateLimit enforces a fixed-window per-IP limit of max requests per
// window. Authenticated requests bypass the global limiter; pass
// skipAuthenticated=false for endpoint-scoped limits like login.
func RateLimit(rc *pkgredis.Client, scope string, max int64, window time.Duration, skipAuthenticated bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipAuthenticated && IsAuthenticated(c) {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		windowKey := time.Now().UnixMilli() / window.Milliseconds()
		key := fmt.Sprintf("inkstone:rate_limit:%s:%s:%d", scope, ip, windowKey)

		count, err := rc.Incr(ctx, key)
		if err != nil {
			// redis trouble must not take requests down with it
			c.Next()
			return
		}

		if count == 1 {
			rc.PExpire(ctx, key, window+time.Second)
		}

		if count > max {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.TooManyRequests(c, "rate limit exceeded")
			return
		}

		c.Next()
	}
}
