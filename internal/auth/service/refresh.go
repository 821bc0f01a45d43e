package service

import (
	"context"

	"inkgate/internal/token"
	dErrors "inkgate/pkg/domain-errors"
)

// Refresh exchanges a valid refresh credential for a fresh pair. The
// presented value must verify, carry the refresh audience, not be
// invalidated, and still match a live stored record. Rotation goes through
// GenerateTokenResponse, so the two-live-records invariant holds and the
// presented value is dead afterwards; denylisting it closes the window in
// which the signature alone would still verify.
func (s *Service) Refresh(ctx context.Context, raw string) (*TokenPair, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Refresh")
	var spanErr error
	defer func() { endSpan(span, spanErr) }()

	claims, err := s.credentials.Verify(raw)
	if err != nil {
		spanErr = err
		return nil, err
	}
	if !token.HasAudience(claims, token.AudienceRefresh) {
		spanErr = dErrors.New(dErrors.CodeCredentialInvalid, "invalid credential")
		return nil, spanErr
	}

	listed, err := s.denylist.Contains(ctx, raw)
	if err != nil {
		spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to check denylist")
		return nil, spanErr
	}
	if listed {
		spanErr = dErrors.New(dErrors.CodeCredentialInvalid, "invalid credential")
		return nil, spanErr
	}

	record, err := s.tokens.FindByValue(ctx, raw)
	if err != nil {
		spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential record")
		return nil, spanErr
	}
	if record == nil || !record.Live() {
		spanErr = dErrors.New(dErrors.CodeCredentialInvalid, "invalid credential")
		return nil, spanErr
	}

	user, err := s.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		spanErr = dErrors.New(dErrors.CodeCredentialInvalid, "invalid credential")
		return nil, spanErr
	}
	if !user.Active || user.Locked(s.now()) {
		spanErr = dErrors.New(dErrors.CodeAccountLocked, "account is locked")
		return nil, spanErr
	}

	if err := s.denylist.Add(ctx, raw, s.now()); err != nil {
		spanErr = dErrors.Wrap(err, dErrors.CodeCredentialPersistence, "failed to invalidate credential")
		return nil, spanErr
	}

	pair, err := s.GenerateTokenResponse(ctx, user)
	if err != nil {
		spanErr = err
		return nil, err
	}
	return pair, nil
}
