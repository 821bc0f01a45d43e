package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"inkgate/internal/auth/models"
	"inkgate/internal/auth/password"
	dErrors "inkgate/pkg/domain-errors"
)

// faultyTokenStore wraps the real store and fails selected operations, for
// exercising the persistence-failure paths.
type faultyTokenStore struct {
	TokenStore
	failSave   bool
	failDelete bool
}

var errStoreOffline = errors.New("store offline")

func (f *faultyTokenStore) Save(ctx context.Context, t *models.Token) error {
	if f.failSave {
		return errStoreOffline
	}
	return f.TokenStore.Save(ctx, t)
}

func (f *faultyTokenStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if f.failDelete {
		return errStoreOffline
	}
	return f.TokenStore.DeleteByUser(ctx, userID)
}

func (s *ServiceSuite) withFaultyTokens(faulty *faultyTokenStore) *Service {
	faulty.TokenStore = s.tokens
	svc, err := New(
		s.users, faulty, s.denylist, s.issuer, password.BcryptVerifier{},
		Config{LockThreshold: 4, LockDuration: time.Hour},
		WithNow(s.clock),
	)
	s.Require().NoError(err)
	return svc
}

func (s *ServiceSuite) TestGenerateTokenResponseReplacesPair() {
	user := s.addUser("writer@example.com", "correct horse")

	first, err := s.svc.GenerateTokenResponse(s.ctx, user)
	s.Require().NoError(err)
	second, err := s.svc.GenerateTokenResponse(s.ctx, user)
	s.Require().NoError(err)

	s.Run("only the fresh pair remains", func() {
		records, err := s.tokens.FindByUser(s.ctx, user.ID)
		s.Require().NoError(err)
		s.Len(records, 2)

		stale, err := s.tokens.FindByValue(s.ctx, first.AccessToken)
		s.Require().NoError(err)
		s.Nil(stale, "prior records are hard-deleted, not revoked")
	})

	s.Run("the fresh records are live bearer records", func() {
		for _, value := range []string{second.AccessToken, second.RefreshToken} {
			record, err := s.tokens.FindByValue(s.ctx, value)
			s.Require().NoError(err)
			s.Require().NotNil(record)
			s.Equal(models.TokenKindBearer, record.Kind)
			s.Equal(user.ID, record.UserID)
			s.True(record.Live())
		}
	})
}

func (s *ServiceSuite) TestGenerateTokenResponsePersistenceFailure() {
	user := s.addUser("writer@example.com", "correct horse")

	s.Run("failing insert surfaces as a persistence error", func() {
		svc := s.withFaultyTokens(&faultyTokenStore{failSave: true})

		pair, err := svc.GenerateTokenResponse(s.ctx, user)
		s.Nil(pair)
		s.True(dErrors.HasCode(err, dErrors.CodeCredentialPersistence))
	})

	s.Run("failing clear surfaces as a persistence error", func() {
		svc := s.withFaultyTokens(&faultyTokenStore{failDelete: true})

		pair, err := svc.GenerateTokenResponse(s.ctx, user)
		s.Nil(pair)
		s.True(dErrors.HasCode(err, dErrors.CodeCredentialPersistence))
	})

	s.Run("login fails when issuance cannot be persisted", func() {
		svc := s.withFaultyTokens(&faultyTokenStore{failSave: true})

		pair, err := svc.Login(s.ctx, Credentials{Email: "writer@example.com", Password: "correct horse"}, "10.0.0.1", testUA)
		s.Nil(pair)
		s.True(dErrors.HasCode(err, dErrors.CodeCredentialPersistence))
	})
}

func (s *ServiceSuite) TestRevokeAllUserTokens() {
	user := s.addUser("writer@example.com", "correct horse")
	_, err := s.svc.GenerateTokenResponse(s.ctx, user)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.RevokeAllUserTokens(s.ctx, user))

	records, err := s.tokens.FindByUser(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Require().Len(records, 2, "revocation updates records in place")
	for _, record := range records {
		s.True(record.Revoked)
		s.True(record.Expired)
		s.False(record.Live())
	}
}

func (s *ServiceSuite) TestClearTokens() {
	user := s.addUser("writer@example.com", "correct horse")
	_, err := s.svc.GenerateTokenResponse(s.ctx, user)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.ClearTokens(s.ctx, user.ID))

	records, err := s.tokens.FindByUser(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Empty(records)
}
