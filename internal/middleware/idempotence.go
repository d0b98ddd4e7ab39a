package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	pkgredis "github.com/nagisa-works/inkstone/internal/pkg/redis"
	"github.com/nagisa-works/inkstone/internal/pkg/response"
)

const (
	idempotenceHeader = "x-idempotence"
	idempotenceTTL    = 60 * time.Second
)

// Idempotence prevents the same non-GET request from being replayed
// within the TTL after a success, or while a first attempt is still in
// flight.
func Idempotence(rc *pkgredis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			c.Next()
			return
		}
		if shouldSkipIdempotence(c.Request.URL.Path) {
			c.Next()
			return
		}

		key, err := resolveIdempotenceKey(c)
		if err != nil || key == "" {
			c.Next()
			return
		}

		redisKey := fmt.Sprintf("inkstone:idempotence:%s", key)
		ctx := c.Request.Context()

		val, err := rc.Get(ctx, redisKey)
		if err != nil {
			// redis trouble must not take requests down with it
			c.Next()
			return
		}
		if val != "" {
			msg := "identical request already succeeded, retry after 60s"
			if val == "0" {
				msg = "identical request still in flight"
			}
			response.Conflict(c, msg)
			return
		}

		if setErr := rc.Set(ctx, redisKey, "0", idempotenceTTL); setErr != nil {
			c.Next()
			return
		}

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			rc.Set(ctx, redisKey, "1", idempotenceTTL)
		} else {
			rc.Del(ctx, redisKey)
		}
	}
}

func shouldSkipIdempotence(path string) bool {
	p := strings.TrimRight(strings.ToLower(strings.TrimSpace(path)), "/")
	// login has its own rate limiter; autosave submits are expected to repeat
	switch p {
	case "/api/auth/login", "/api/auth/logout":
		return true
	}
	return strings.HasSuffix(p, "/versions") || strings.HasSuffix(p, "/autosave")
}

// resolveIdempotenceKey returns the idempotence key for the current request.
func resolveIdempotenceKey(c *gin.Context) (string, error) {
	if hdr := c.GetHeader(idempotenceHeader); hdr != "" {
		return hdr, nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	ua := c.Request.UserAgent()
	ip := c.ClientIP()
	token := extractToken(c)

	if len(body) == 0 && ua == "" && ip == "" && token == "" {
		return "", nil
	}

	raw := c.Request.Method + "|" + c.Request.URL.String() + "|" + string(body) + "|" + ua + "|" + ip + "|" + token
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:]), nil
}
