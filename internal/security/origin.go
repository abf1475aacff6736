// Package security guards state-changing requests against cross-origin calls.
package security

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// OriginGuard rejects mutating requests whose Origin header names neither the
// request's own origin (direct or as seen through a proxy) nor one of extra.
// Safe methods and requests without an Origin header pass.
func OriginGuard(extra []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(extra))
	for _, o := range extra {
		if n, ok := normalizeOrigin(o); ok {
			allowed[n] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		if !AllowedOrigin(c.Request, allowed) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid request origin"})
			return
		}
		c.Next()
	}
}

// AllowedOrigin reports whether r passes the origin check.
func AllowedOrigin(r *http.Request, extra map[string]struct{}) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	raw := r.Header.Get("Origin")
	if raw == "" {
		return true
	}
	origin, ok := normalizeOrigin(raw)
	if !ok {
		return false
	}
	if _, ok := extra[origin]; ok {
		return true
	}
	for _, candidate := range requestOrigins(r) {
		if candidate == origin {
			return true
		}
	}
	return false
}

// requestOrigins lists the origins the request may legitimately come from.
func requestOrigins(r *http.Request) []string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	fwdProto := firstValue(r.Header.Get("X-Forwarded-Proto"))
	fwdHost := firstValue(r.Header.Get("X-Forwarded-Host"))

	var out []string
	add := func(proto, host string) {
		if host == "" {
			return
		}
		if n, ok := normalizeOrigin(proto + "://" + host); ok {
			out = append(out, n)
		}
	}

	add(scheme, r.Host)
	if fwdHost != "" {
		proto := fwdProto
		if proto == "" {
			proto = "https"
		}
		add(proto, fwdHost)
	}
	if fwdProto != "" {
		add(fwdProto, r.Host)
	}
	return out
}

func firstValue(h string) string {
	first, _, _ := strings.Cut(h, ",")
	return strings.TrimSpace(first)
}

// normalizeOrigin reduces raw to lowercase scheme://host[:port].
func normalizeOrigin(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme + "://" + u.Host), true
}
