package service

import (
	"context"

	"inkgate/internal/platform/middleware"
	dErrors "inkgate/pkg/domain-errors"
)

// ResolveIdentity backs the request authentication gate: verify the signed
// value, consult the invalidated-credential blocklist, and resolve the bound
// user by the verified subject. Every failure collapses into
// credential_invalid so the gate leaks nothing about why.
func (s *Service) ResolveIdentity(ctx context.Context, raw string) (*middleware.Identity, error) {
	claims, err := s.credentials.Verify(raw)
	if err != nil {
		return nil, err
	}

	listed, err := s.denylist.Contains(ctx, raw)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check denylist")
	}
	if listed {
		return nil, dErrors.New(dErrors.CodeCredentialInvalid, "invalid credential")
	}

	user, err := s.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeCredentialInvalid, "invalid credential")
	}

	return &middleware.Identity{
		UserID: user.ID.String(),
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	}, nil
}
