package service

import (
	"context"

	"github.com/google/uuid"

	"inkgate/internal/auth/models"
	dErrors "inkgate/pkg/domain-errors"
)

// GenerateTokenResponse replaces the user's credentials with a fresh
// access/refresh pair. The whole sequence - clear all prior records, mint
// two, persist two - runs inside a per-user critical section so concurrent
// logins for the same user always converge on exactly two live records.
// Persistence failures are fatal: the caller must not treat the user as
// logged in if issuance failed.
func (s *Service) GenerateTokenResponse(ctx context.Context, user *models.User) (*TokenPair, error) {
	var pair *TokenPair

	err := s.userLocks.Do(user.ID.String(), func() error {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.PersistTimeout)
		defer cancel()

		if err := s.tokens.DeleteByUser(ctx, user.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeCredentialPersistence, "failed to clear prior credentials")
		}

		access, err := s.credentials.IssueAccess(user)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeCredentialPersistence, "failed to sign access credential")
		}
		refresh, err := s.credentials.IssueRefresh(user)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeCredentialPersistence, "failed to sign refresh credential")
		}

		for _, value := range []string{access, refresh} {
			record := &models.Token{
				ID:     uuid.New(),
				Value:  value,
				Kind:   models.TokenKindBearer,
				UserID: user.ID,
			}
			if err := s.tokens.Save(ctx, record); err != nil {
				return dErrors.Wrap(err, dErrors.CodeCredentialPersistence, "failed to persist credential")
			}
		}

		pair = &TokenPair{AccessToken: access, RefreshToken: refresh}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TokensIssued.Add(2)
	}
	return pair, nil
}

// RevokeAllUserTokens marks every live credential record for the user as both
// expired and revoked. Records are updated, never deleted - hard deletion is
// reserved for the re-login path.
func (s *Service) RevokeAllUserTokens(ctx context.Context, user *models.User) error {
	return s.userLocks.Do(user.ID.String(), func() error {
		records, err := s.tokens.FindByUser(ctx, user.ID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeCredentialPersistence, "failed to load credentials")
		}

		revoked := 0
		for _, record := range records {
			if !record.Live() {
				continue
			}
			record.Revoked = true
			record.Expired = true
			if err := s.tokens.Save(ctx, record); err != nil {
				return dErrors.Wrap(err, dErrors.CodeCredentialPersistence, "failed to revoke credential")
			}
			revoked++
		}

		if s.metrics != nil && revoked > 0 {
			s.metrics.TokensRevoked.Add(float64(revoked))
		}
		return nil
	})
}

// ClearTokens hard-deletes every credential record for the user.
func (s *Service) ClearTokens(ctx context.Context, userID uuid.UUID) error {
	return s.userLocks.Do(userID.String(), func() error {
		if err := s.tokens.DeleteByUser(ctx, userID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeCredentialPersistence, "failed to clear credentials")
		}
		return nil
	})
}
