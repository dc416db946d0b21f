package servehttp

import (
	"net/http"
	"time"

	"bantay/common"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

var limiterCache = cache.New(10*time.Minute, 10*time.Minute)

// RateLimitFilter bounds the mutation rate per client address. Field units
// report a handful of updates per day; a burst beyond this is either a stuck
// client or abuse.
func RateLimitFilter(r rate.Limit, burst int) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		clientIP := ctx.ClientIP()
		var limiter *rate.Limiter
		if cached, found := limiterCache.Get(clientIP); found {
			limiter = cached.(*rate.Limiter)
		} else {
			limiter = rate.NewLimiter(r, burst)
			limiterCache.Set(clientIP, limiter, cache.DefaultExpiration)
		}

		if !limiter.Allow() {
			ctx.JSON(http.StatusTooManyRequests, &common.ErrorBody{
				Code: "common.rate_limit_exceeded", Message: "too many requests"})
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
