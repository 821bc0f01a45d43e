package service

import (
	dErrors "inkgate/pkg/domain-errors"
)

func (s *ServiceSuite) TestResolveIdentity() {
	user := s.addUser("writer@example.com", "correct horse")
	pair, err := s.svc.GenerateTokenResponse(s.ctx, user)
	s.Require().NoError(err)

	s.Run("a valid credential resolves the bound user", func() {
		identity, err := s.svc.ResolveIdentity(s.ctx, pair.AccessToken)
		s.Require().NoError(err)
		s.Equal(user.ID.String(), identity.UserID)
		s.Equal("writer@example.com", identity.Email)
		s.Equal("Test Writer", identity.Name)
		s.Equal("user", identity.Role)
	})

	s.Run("garbage fails as credential_invalid", func() {
		_, err := s.svc.ResolveIdentity(s.ctx, "garbage")
		s.True(dErrors.HasCode(err, dErrors.CodeCredentialInvalid))
	})

	s.Run("a denylisted value fails as credential_invalid", func() {
		s.Require().NoError(s.denylist.Add(s.ctx, pair.AccessToken, s.now))

		_, err := s.svc.ResolveIdentity(s.ctx, pair.AccessToken)
		s.True(dErrors.HasCode(err, dErrors.CodeCredentialInvalid))
	})

	s.Run("a subject without an account fails as credential_invalid", func() {
		orphan := *user
		orphan.Email = "gone@example.com"
		signed, err := s.issuer.IssueAccess(&orphan)
		s.Require().NoError(err)

		_, err = s.svc.ResolveIdentity(s.ctx, signed)
		s.True(dErrors.HasCode(err, dErrors.CodeCredentialInvalid))
	})
}
