package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "inkgate/pkg/domain-errors"
)

func (s *ServiceSuite) TestSignup() {
	created, err := s.svc.Signup(s.ctx, SignupRequest{
		Email:    "  New.Writer@Example.COM ",
		Name:     " Ada ",
		Password: "long enough",
	}, "198.51.100.1")
	s.Require().NoError(err)

	s.Run("the account is normalized and active", func() {
		s.Equal("new.writer@example.com", created.Email)
		s.Equal("Ada", created.Name)
		s.Equal("user", created.Role)
		s.True(created.Active)
		s.Equal(0, created.FailedLoginAttempts)
	})

	s.Run("the stored hash verifies against the plaintext", func() {
		stored := s.storedUser("new.writer@example.com")
		s.NoError(bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("long enough")))
	})

	s.Run("the new account can log in", func() {
		pair, err := s.login("new.writer@example.com", "long enough", "198.51.100.2")
		s.Require().NoError(err)
		s.NotNil(pair)
	})
}

func (s *ServiceSuite) TestSignupValidation() {
	cases := []struct {
		name  string
		req   SignupRequest
		field string
	}{
		{"missing @ in email", SignupRequest{Email: "not-an-email", Name: "Ada", Password: "long enough"}, "email"},
		{"blank email", SignupRequest{Email: "   ", Name: "Ada", Password: "long enough"}, "email"},
		{"blank name", SignupRequest{Email: "a@b.example", Name: "  ", Password: "long enough"}, "name"},
		{"short password", SignupRequest{Email: "a@b.example", Name: "Ada", Password: "short"}, "password"},
	}
	for i, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.svc.Signup(s.ctx, tc.req, fmt.Sprintf("10.9.0.%d", i))
			s.Require().Error(err)

			var domainErr *dErrors.Error
			s.Require().ErrorAs(err, &domainErr)
			s.Equal(dErrors.CodeValidation, domainErr.Code)
			s.Contains(domainErr.Fields, tc.field)
		})
	}
}

func (s *ServiceSuite) TestSignupDuplicateEmail() {
	s.addUser("writer@example.com", "correct horse")

	_, err := s.svc.Signup(s.ctx, SignupRequest{
		Email:    "Writer@Example.com",
		Name:     "Imposter",
		Password: "long enough",
	}, "198.51.100.1")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestSignupPerIPCap() {
	s.Run("garbage requests still burn attempts", func() {
		for i := 0; i < 3; i++ {
			_, err := s.svc.Signup(s.ctx, SignupRequest{}, "203.0.113.7")
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		}

		_, err := s.svc.Signup(s.ctx, SignupRequest{
			Email:    "legit@example.com",
			Name:     "Ada",
			Password: "long enough",
		}, "203.0.113.7")
		s.True(dErrors.HasCode(err, dErrors.CodeTooManyRequests), "the cap is consulted before validation")
	})

	s.Run("other addresses are unaffected", func() {
		_, err := s.svc.Signup(s.ctx, SignupRequest{
			Email:    "legit@example.com",
			Name:     "Ada",
			Password: "long enough",
		}, "203.0.113.8")
		s.NoError(err)
	})
}
