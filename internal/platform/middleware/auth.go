package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"inkgate/internal/transport/http/shared"
	dErrors "inkgate/pkg/domain-errors"
)

const bearerPrefix = "Bearer "

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

// IdentityResolver turns a presented bearer credential into a caller identity.
// It verifies the signature, consults the invalidated-credential blocklist,
// and resolves the bound user; any failure surfaces as a domain error.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, raw string) (*Identity, error)
}

type identityKey struct{}

// GetIdentity retrieves the authenticated identity, or nil for anonymous requests.
func GetIdentity(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return id
	}
	return nil
}

// WithIdentity attaches an identity to the context. Exposed for handler tests.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// Authenticate is the per-request authentication gate. A missing Authorization
// header means the request proceeds anonymously; protected operations decide
// later whether that is acceptable. A present but invalid credential is
// rejected here with 401 - the single boundary for verification failures.
func Authenticate(resolver IdentityResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			identity, err := resolver.ResolveIdentity(ctx, raw)
			if err != nil {
				logger.WarnContext(ctx, "rejected bearer credential",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				shared.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
		})
	}
}

// RequireIdentity rejects anonymous requests. Mount after Authenticate on
// routes that need a caller.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetIdentity(r.Context()) == nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeCredentialInvalid, "authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BearerFromHeader extracts the raw bearer value from an Authorization header.
// Returns false when the header is absent or not bearer-shaped.
func BearerFromHeader(r *http.Request) (string, bool) {
	return strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
}
