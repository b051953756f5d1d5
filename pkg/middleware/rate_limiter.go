package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"MateGuard/pkg/response"
)

// RateLimiterConfig 限流配置
//
// Rate 使用 limiter 的速率表达式，例如 "120-M"、"10-S"。
// SkipPaths 按前缀匹配跳过（健康检查、指标端点等）。
type RateLimiterConfig struct {
	Rate      string   `json:"rate"`
	SkipPaths []string `json:"skip_paths"`
	Store     limiter.Store
}

// RateLimiter 以客户端 IP 为键限流。危机相关接口不能被单个异常
// 客户端刷接口拖垮，但拒绝响应仍然带上热线信息以外的标准错误体。
func RateLimiter(cfg RateLimiterConfig) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		rate = limiter.Rate{Period: time.Minute, Limit: 120}
	}
	store := cfg.Store
	if store == nil {
		store = memory.NewStore()
	}
	lim := limiter.New(store, rate)

	return func(c *gin.Context) {
		for _, p := range cfg.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, p) {
				c.Next()
				return
			}
		}

		lctx, err := lim.Get(c.Request.Context(), c.ClientIP())
		if err != nil {
			// 限流器自身故障时放行，不能因为限流挂掉危机接口
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			response.FailWithStatus(c, http.StatusTooManyRequests, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
