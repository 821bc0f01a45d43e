package service

import (
	"time"

	"inkgate/internal/token"
	dErrors "inkgate/pkg/domain-errors"
)

func (s *ServiceSuite) TestRefresh() {
	user := s.addUser("writer@example.com", "correct horse")
	pair, err := s.svc.GenerateTokenResponse(s.ctx, user)
	s.Require().NoError(err)

	fresh, err := s.svc.Refresh(s.ctx, pair.RefreshToken)
	s.Require().NoError(err)
	s.Require().NotNil(fresh)

	s.Run("a new pair replaces the old one", func() {
		s.NotEqual(pair.RefreshToken, fresh.RefreshToken)
		s.Len(s.liveRecords(user.ID), 2)

		stale, err := s.tokens.FindByValue(s.ctx, pair.RefreshToken)
		s.Require().NoError(err)
		s.Nil(stale)
	})

	s.Run("the presented value is dead afterwards", func() {
		listed, err := s.denylist.Contains(s.ctx, pair.RefreshToken)
		s.Require().NoError(err)
		s.True(listed)

		_, err = s.svc.Refresh(s.ctx, pair.RefreshToken)
		s.True(dErrors.HasCode(err, dErrors.CodeCredentialInvalid))
	})

	s.Run("the fresh refresh credential rotates again", func() {
		claims, err := s.issuer.Verify(fresh.RefreshToken)
		s.Require().NoError(err)
		s.True(token.HasAudience(claims, token.AudienceRefresh))

		_, err = s.svc.Refresh(s.ctx, fresh.RefreshToken)
		s.Require().NoError(err)
	})
}

func (s *ServiceSuite) TestRefreshRejections() {
	user := s.addUser("writer@example.com", "correct horse")
	pair, err := s.svc.GenerateTokenResponse(s.ctx, user)
	s.Require().NoError(err)

	s.Run("access credentials cannot refresh", func() {
		_, err := s.svc.Refresh(s.ctx, pair.AccessToken)
		s.True(dErrors.HasCode(err, dErrors.CodeCredentialInvalid))
	})

	s.Run("a verified value without a live record cannot refresh", func() {
		s.Require().NoError(s.svc.RevokeAllUserTokens(s.ctx, user))

		_, err := s.svc.Refresh(s.ctx, pair.RefreshToken)
		s.True(dErrors.HasCode(err, dErrors.CodeCredentialInvalid))
	})
}

func (s *ServiceSuite) TestRefreshLockedAccount() {
	user := s.addUser("writer@example.com", "correct horse")
	pair, err := s.svc.GenerateTokenResponse(s.ctx, user)
	s.Require().NoError(err)

	until := s.now.Add(time.Hour)
	user.LockedUntil = &until
	s.Require().NoError(s.users.Save(s.ctx, user))

	_, err = s.svc.Refresh(s.ctx, pair.RefreshToken)
	s.True(dErrors.HasCode(err, dErrors.CodeAccountLocked))

	listed, err := s.denylist.Contains(s.ctx, pair.RefreshToken)
	s.Require().NoError(err)
	s.False(listed, "a refused rotation leaves the presented value usable")
}

func (s *ServiceSuite) TestRefreshUnknownSubject() {
	ghost := s.addUser("writer@example.com", "correct horse")
	orphan := *ghost
	orphan.Email = "gone@example.com"

	signed, err := s.issuer.IssueRefresh(&orphan)
	s.Require().NoError(err)

	_, err = s.svc.Refresh(s.ctx, signed)
	s.True(dErrors.HasCode(err, dErrors.CodeCredentialInvalid))
}
