package middleware

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	api "github.com/neocertify/neocertify/internal/api/v1"
	"github.com/neocertify/neocertify/internal/instrumentation"
	"github.com/neocertify/neocertify/internal/ratelimit"
	"github.com/neocertify/neocertify/internal/transport"
)

// RateLimit admits requests through the given limiter, keyed by client IP.
// Every response carries the X-RateLimit headers; rejections answer 429
// with the uniform error envelope. A limiter error fails open: dropping
// traffic because Redis is down would be worse than briefly not limiting.
func RateLimit(limiter ratelimit.Limiter, class string, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := class + ":" + ClientIP(r)
			result, err := limiter.Limit(r.Context(), key)
			if err != nil {
				log.WithError(err).Warn("rate limiter unavailable, admitting request")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetAt.Unix()))

			if !result.Allowed {
				instrumentation.RateLimitRejections.WithLabelValues(class).Inc()
				transport.WriteResponse(w, api.StatusTooManyRequests("rate limit exceeded, try again later"), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
