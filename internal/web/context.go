package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/partsdesk/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx. The IP is
// the actor recorded on timeline events for anonymous callers.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, r.RemoteAddr)
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}

func requestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithRequestMetadata(r.Context(), r)))
	})
}
