package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"inkgate/internal/auth/models"
	"inkgate/internal/auth/password"
	"inkgate/internal/token"
	dErrors "inkgate/pkg/domain-errors"
)

func (s *ServiceSuite) TestLoginSuccess() {
	s.addUser("writer@example.com", "correct horse")

	pair, err := s.login("writer@example.com", "correct horse", "198.51.100.1")
	s.Require().NoError(err)
	s.Require().NotNil(pair)

	s.Run("both credentials verify with the right audiences", func() {
		access, err := s.issuer.Verify(pair.AccessToken)
		s.Require().NoError(err)
		s.True(token.HasAudience(access, token.AudienceAccess))
		s.Equal("writer@example.com", access.Subject)

		refresh, err := s.issuer.Verify(pair.RefreshToken)
		s.Require().NoError(err)
		s.True(token.HasAudience(refresh, token.AudienceRefresh))
	})

	s.Run("exactly two live records are stored", func() {
		user := s.storedUser("writer@example.com")
		s.Len(s.liveRecords(user.ID), 2)
	})
}

func (s *ServiceSuite) TestLoginLockout() {
	s.addUser("writer@example.com", "correct horse")

	// Distinct source addresses keep the per-IP policy out of the way; the
	// lockout state machine is per account.
	attempt := func(i int, plain string) error {
		_, err := s.login("writer@example.com", plain, fmt.Sprintf("10.0.0.%d", i))
		return err
	}

	s.Run("three failures count but do not lock", func() {
		for i := 1; i <= 3; i++ {
			err := attempt(i, "wrong")
			s.True(dErrors.HasCode(err, dErrors.CodeAuthenticationFailed))
		}
		stored := s.storedUser("writer@example.com")
		s.Equal(3, stored.FailedLoginAttempts)
		s.Nil(stored.LockedUntil)
	})

	s.Run("fourth failure applies the timed lock", func() {
		err := attempt(4, "wrong")
		s.True(dErrors.HasCode(err, dErrors.CodeAuthenticationFailed), "the locking attempt itself still reads as a bad password")

		stored := s.storedUser("writer@example.com")
		s.Equal(4, stored.FailedLoginAttempts)
		s.Require().NotNil(stored.LockedUntil)
		s.Equal(s.now.Add(time.Hour), *stored.LockedUntil)
	})

	s.Run("while locked even the correct password is refused", func() {
		err := attempt(5, "correct horse")
		s.True(dErrors.HasCode(err, dErrors.CodeAccountLocked))

		stored := s.storedUser("writer@example.com")
		s.Equal(5, stored.FailedLoginAttempts, "refused attempts still count")
	})

	s.Run("attempt exactly at expiry evaluates as unlocked", func() {
		stored := s.storedUser("writer@example.com")
		s.Require().NotNil(stored.LockedUntil)
		s.now = *stored.LockedUntil

		pair, err := s.login("writer@example.com", "correct horse", "10.0.1.1")
		s.Require().NoError(err)
		s.NotNil(pair)

		stored = s.storedUser("writer@example.com")
		s.Equal(0, stored.FailedLoginAttempts)
		s.Nil(stored.LockedUntil)
	})
}

func (s *ServiceSuite) TestLoginLockBoundaries() {
	s.addUser("writer@example.com", "correct horse")
	lockStart := s.now
	for i := 1; i <= 4; i++ {
		_, _ = s.login("writer@example.com", "wrong", fmt.Sprintf("10.0.0.%d", i))
	}

	s.Run("one second before expiry the lock still holds", func() {
		s.now = lockStart.Add(time.Hour - time.Second)
		_, err := s.login("writer@example.com", "correct horse", "10.0.1.1")
		s.True(dErrors.HasCode(err, dErrors.CodeAccountLocked))
	})

	s.Run("expired lock plus a wrong password restarts the counter at one", func() {
		stored := s.storedUser("writer@example.com")
		s.Require().NotNil(stored.LockedUntil)
		s.now = *stored.LockedUntil

		_, err := s.login("writer@example.com", "wrong", "10.0.1.2")
		s.True(dErrors.HasCode(err, dErrors.CodeAuthenticationFailed), "expiry is checked before the increment")

		stored = s.storedUser("writer@example.com")
		s.Equal(1, stored.FailedLoginAttempts)
		s.Nil(stored.LockedUntil)
	})
}

func (s *ServiceSuite) TestLoginSuccessResetsCounter() {
	s.addUser("writer@example.com", "correct horse")
	for i := 1; i <= 3; i++ {
		_, _ = s.login("writer@example.com", "wrong", fmt.Sprintf("10.0.0.%d", i))
	}

	_, err := s.login("writer@example.com", "correct horse", "10.0.1.1")
	s.Require().NoError(err)
	s.Equal(0, s.storedUser("writer@example.com").FailedLoginAttempts)

	// A fresh run of failures needs the full threshold again.
	for i := 1; i <= 3; i++ {
		_, _ = s.login("writer@example.com", "wrong", fmt.Sprintf("10.0.2.%d", i))
	}
	s.Nil(s.storedUser("writer@example.com").LockedUntil)
}

func (s *ServiceSuite) TestLoginUnknownEmail() {
	_, err := s.login("nobody@example.com", "whatever", "203.0.113.8")
	s.True(dErrors.HasCode(err, dErrors.CodeAuthenticationFailed), "unknown email reads the same as a bad password")

	records, storeErr := s.abuseRecords.FindByIP(s.ctx, "203.0.113.8")
	s.Require().NoError(storeErr)
	s.Require().Len(records, 1, "the address is still charged for the attempt")
	s.Equal(1, records[0].FailureCount)
	s.Equal(testUA, records[0].UserAgent)
}

func (s *ServiceSuite) TestLoginInactiveAccount() {
	user := s.addUser("writer@example.com", "correct horse")
	user.Active = false
	s.Require().NoError(s.users.Save(s.ctx, user))

	_, err := s.login("writer@example.com", "correct horse", "10.0.0.1")
	s.True(dErrors.HasCode(err, dErrors.CodeAccountLocked))
	s.Equal(1, s.storedUser("writer@example.com").FailedLoginAttempts, "the attempt counts even with the right password")
}

func (s *ServiceSuite) TestLoginBlockedIP() {
	s.addUser("writer@example.com", "correct horse")
	s.addUser("other@example.com", "secret password")

	// Three failures from one address block it, regardless of which accounts
	// were targeted.
	_, _ = s.login("writer@example.com", "wrong", "203.0.113.5")
	_, _ = s.login("other@example.com", "wrong", "203.0.113.5")
	_, _ = s.login("nobody@example.com", "wrong", "203.0.113.5")

	s.Run("correct credentials are refused from the blocked address", func() {
		before := s.storedUser("writer@example.com").FailedLoginAttempts

		_, err := s.login("writer@example.com", "correct horse", "203.0.113.5")
		s.True(dErrors.HasCode(err, dErrors.CodeTooManyRequests))

		s.Equal(before, s.storedUser("writer@example.com").FailedLoginAttempts, "a blocked attempt never reaches the account")
	})

	s.Run("the same account logs in from a clean address", func() {
		pair, err := s.login("writer@example.com", "correct horse", "198.51.100.9")
		s.Require().NoError(err)
		s.NotNil(pair)
	})
}

// laggyUserStore adds latency to the pre-lock email lookup, standing in for a
// real database round trip so concurrent attempts overlap.
type laggyUserStore struct {
	UserStore
	delay time.Duration
}

func (l *laggyUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	time.Sleep(l.delay)
	return l.UserStore.FindByEmail(ctx, email)
}

func (s *ServiceSuite) TestConcurrentFailuresAllCount() {
	s.addUser("writer@example.com", "correct horse")

	laggy := &laggyUserStore{UserStore: s.users, delay: 2 * time.Millisecond}
	svc, err := New(laggy, s.tokens, s.denylist, s.issuer, password.BcryptVerifier{},
		Config{LockThreshold: 4, LockDuration: time.Hour},
		WithNow(s.clock),
	)
	s.Require().NoError(err)

	const attempts = 8
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Login(s.ctx,
				Credentials{Email: "writer@example.com", Password: "wrong"},
				fmt.Sprintf("10.2.0.%d", i), testUA)
			s.Error(err)
		}()
	}
	wg.Wait()

	stored := s.storedUser("writer@example.com")
	s.Equal(attempts, stored.FailedLoginAttempts, "every overlapping failure must land on the counter")
	s.NotNil(stored.LockedUntil)
}

func (s *ServiceSuite) TestConcurrentLoginsConvergeOnOnePair() {
	user := s.addUser("writer@example.com", "correct horse")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.login("writer@example.com", "correct horse", fmt.Sprintf("10.1.0.%d", i))
			s.NoError(err)
		}()
	}
	wg.Wait()

	s.Len(s.liveRecords(user.ID), 2, "replacement is atomic per user")
}
