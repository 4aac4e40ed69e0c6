package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"sidesa/pkg/requestcontext"
)

// ClientMetadata extracts client IP address and a User-Agent summary from the
// request and adds them to the context for handlers and the audit recorder.
// This middleware should be applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIPFromRequest(r)
		ua := SummarizeUserAgent(r.Header.Get("User-Agent"))
		ctx := requestcontext.WithClientMetadata(r.Context(), ip, ua)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SummarizeUserAgent reduces a raw User-Agent header to "Browser Version (OS)".
// Unparseable or empty headers are returned truncated rather than dropped.
func SummarizeUserAgent(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if ua.Bot() {
		return "bot: " + name
	}
	if name == "" {
		if len(raw) > 120 {
			return raw[:120]
		}
		return raw
	}
	summary := name
	if version != "" {
		summary += " " + version
	}
	if os := ua.OS(); os != "" {
		summary += " (" + os + ")"
	}
	return summary
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...); the first is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" or "[::1]:port"
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return strings.Trim(addr[:idx], "[]")
		}
		return addr
	}

	return "unknown"
}
