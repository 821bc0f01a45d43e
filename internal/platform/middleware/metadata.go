package middleware

import (
	"context"
	"net/http"
	"strings"
)

// proxyHeaders is the fixed precedence list for resolving the originating
// client address behind proxies. The order is load-bearing: it decides which
// hop wins, and therefore which IP the abuse tracker counts against.
var proxyHeaders = []string{
	"X-Forwarded-For",
	"Proxy-Client-IP",
	"WL-Proxy-Client-IP",
	"HTTP_X_FORWARDED_FOR",
	"HTTP_X_FORWARDED",
	"HTTP_X_CLUSTER_CLIENT_IP",
	"HTTP_CLIENT_IP",
	"HTTP_FORWARDED_FOR",
	"HTTP_FORWARDED",
	"HTTP_VIA",
	"REMOTE_ADDR",
}

type clientIPKey struct{}
type userAgentKey struct{}

// ClientMetadata extracts the originating client IP and User-Agent and stows
// them in the request context. When trustProxies is false the forwarded-for
// headers are ignored entirely and the socket address is authoritative.
func ClientMetadata(trustProxies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := resolveClientIP(r, trustProxies)

			ctx := r.Context()
			ctx = context.WithValue(ctx, clientIPKey{}, ip)
			ctx = context.WithValue(ctx, userAgentKey{}, r.Header.Get("User-Agent"))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClientIP retrieves the resolved client address from the context.
func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// GetUserAgent retrieves the raw User-Agent header from the context.
func GetUserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

func resolveClientIP(r *http.Request, trustProxies bool) string {
	if trustProxies {
		for _, header := range proxyHeaders {
			value := strings.TrimSpace(r.Header.Get(header))
			if value == "" || strings.EqualFold(value, "unknown") {
				continue
			}
			// Forwarded-for chains list the original client first.
			if before, _, found := strings.Cut(value, ","); found {
				value = strings.TrimSpace(before)
			}
			return value
		}
	}
	return stripPort(r.RemoteAddr)
}

// stripPort removes the port from a RemoteAddr, handling bracketed IPv6.
func stripPort(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	if strings.HasPrefix(remoteAddr, "[") {
		if idx := strings.LastIndex(remoteAddr, "]:"); idx != -1 {
			return remoteAddr[1:idx]
		}
		return strings.Trim(remoteAddr, "[]")
	}
	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 {
		return remoteAddr[:idx]
	}
	return remoteAddr
}
