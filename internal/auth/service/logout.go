package service

import (
	"context"
	"errors"

	"inkgate/internal/auth/store"
	dErrors "inkgate/pkg/domain-errors"
)

// Logout validates a presented credential and invalidates it permanently.
// Logging out with an already-invalid credential is an error, not a silent
// success: the caller gets an unauthorized response either way the value
// fails validation.
func (s *Service) Logout(ctx context.Context, raw string) error {
	ctx, span := s.tracer.Start(ctx, "auth.Logout")
	var spanErr error
	defer func() { endSpan(span, spanErr) }()

	claims, err := s.credentials.Verify(raw)
	if err != nil {
		spanErr = err
		return err
	}

	listed, err := s.denylist.Contains(ctx, raw)
	if err != nil {
		spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to check denylist")
		return spanErr
	}
	if listed {
		spanErr = dErrors.New(dErrors.CodeCredentialInvalid, "invalid credential")
		return spanErr
	}

	if err := s.denylist.Add(ctx, raw, s.now()); err != nil {
		spanErr = dErrors.Wrap(err, dErrors.CodeCredentialPersistence, "failed to invalidate credential")
		return spanErr
	}

	// Best-effort revocation of the user's stored records; the denylist entry
	// above is what guarantees the value never validates again.
	user, err := s.users.FindByEmail(ctx, claims.Subject)
	if err == nil {
		if err := s.RevokeAllUserTokens(ctx, user); err != nil {
			spanErr = err
			return err
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
		return spanErr
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "logout",
			"subject", claims.Subject,
			"event", "logout",
			"log_type", "audit",
		)
	}
	return nil
}
