package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/adserve-sdk-service/internal/apperr"
	"github.com/PratikDhanave/adserve-sdk-service/internal/config"
	"github.com/PratikDhanave/adserve-sdk-service/internal/metrics"
)

const unknownClient = "unknown"

// Limiter applies config.RateRule values against a Store.
type Limiter struct {
	store   Store
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewLimiter(st Store, m *metrics.Metrics) *Limiter {
	return &Limiter{store: st, metrics: m, now: time.Now}
}

// WithClock replaces the time source. Intended for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Check counts one request against rule for the key built from parts.
func (l *Limiter) Check(rule config.RateRule, parts ...string) Decision {
	key := rule.Bucket + ":" + strings.Join(parts, ":")
	d := l.store.Check(key, rule.Limit, rule.Window, l.now())
	if !d.Allowed && l.metrics != nil {
		l.metrics.RateLimitRejection.WithLabelValues(rule.Bucket).Inc()
	}
	return d
}

// Allow is Check reduced to an error: apperr RateLimited on rejection.
func (l *Limiter) Allow(rule config.RateRule, parts ...string) error {
	if d := l.Check(rule, parts...); !d.Allowed {
		return apperr.RateLimited()
	}
	return nil
}

// Enforce checks rule and, on rejection, writes the 429 response and aborts c.
// It reports whether the request may proceed.
func (l *Limiter) Enforce(c *gin.Context, rule config.RateRule, parts ...string) bool {
	d := l.Check(rule, parts...)
	if d.Allowed {
		return true
	}
	secs := int(d.RetryAfter(l.now()) / time.Second)
	if secs < 1 {
		secs = 1
	}
	c.Header("Retry-After", strconv.Itoa(secs))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": apperr.PublicMessage(apperr.RateLimited())})
	return false
}

// Middleware limits every request of a route by rule, keyed on the client address.
func (l *Limiter) Middleware(rule config.RateRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Enforce(c, rule, ClientKey(c.Request)) {
			return
		}
		c.Next()
	}
}

// ClientKey identifies the caller: the first X-Forwarded-For address, else X-Real-IP,
// else "unknown". Every unattributable client shares the "unknown" bucket.
func ClientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
		return unknownClient
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return unknownClient
}
