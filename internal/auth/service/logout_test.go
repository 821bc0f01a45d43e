package service

import (
	dErrors "inkgate/pkg/domain-errors"
)

func (s *ServiceSuite) TestLogout() {
	user := s.addUser("writer@example.com", "correct horse")
	pair, err := s.svc.GenerateTokenResponse(s.ctx, user)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Logout(s.ctx, pair.AccessToken))

	s.Run("the value lands on the denylist", func() {
		listed, err := s.denylist.Contains(s.ctx, pair.AccessToken)
		s.Require().NoError(err)
		s.True(listed)
	})

	s.Run("stored records are revoked, not deleted", func() {
		records, err := s.tokens.FindByUser(s.ctx, user.ID)
		s.Require().NoError(err)
		s.Require().Len(records, 2)
		for _, record := range records {
			s.False(record.Live())
		}
	})

	s.Run("the invalidated value no longer resolves an identity", func() {
		_, err := s.svc.ResolveIdentity(s.ctx, pair.AccessToken)
		s.True(dErrors.HasCode(err, dErrors.CodeCredentialInvalid))
	})

	s.Run("logging out twice with the same value is an error", func() {
		err := s.svc.Logout(s.ctx, pair.AccessToken)
		s.True(dErrors.HasCode(err, dErrors.CodeCredentialInvalid))
	})

	s.Run("invalidation survives a later re-login", func() {
		fresh, err := s.svc.GenerateTokenResponse(s.ctx, user)
		s.Require().NoError(err)
		s.NotEqual(pair.AccessToken, fresh.AccessToken)

		listed, err := s.denylist.Contains(s.ctx, pair.AccessToken)
		s.Require().NoError(err)
		s.True(listed, "denylist entries are never removed")
	})
}

func (s *ServiceSuite) TestLogoutRejectsUnverifiableValues() {
	err := s.svc.Logout(s.ctx, "not-a-credential")
	s.True(dErrors.HasCode(err, dErrors.CodeCredentialInvalid))

	listed, listErr := s.denylist.Contains(s.ctx, "not-a-credential")
	s.Require().NoError(listErr)
	s.False(listed, "unverifiable values never reach the denylist")
}

func (s *ServiceSuite) TestLogoutToleratesMissingUser() {
	// A credential can outlive its account. The denylist entry is the
	// guarantee; record revocation is best effort.
	user := s.addUser("writer@example.com", "correct horse")

	ghost := *user
	ghost.Email = "gone@example.com"
	orphan, err := s.issuer.IssueAccess(&ghost)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Logout(s.ctx, orphan))

	listed, err := s.denylist.Contains(s.ctx, orphan)
	s.Require().NoError(err)
	s.True(listed)
}
