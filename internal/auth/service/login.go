package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"inkgate/internal/auth/models"
	"inkgate/internal/auth/store"
	dErrors "inkgate/pkg/domain-errors"
)

// Credentials is a login request.
type Credentials struct {
	Email    string
	Password string
}

// TokenPair is the result of a successful authentication.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Login runs one authentication attempt end to end: IP throttle, password
// delegation, the lockout state machine, and credential issuance. Failure
// side effects (counter increments, lock application, IP registration)
// commit even though the attempt itself fails.
func (s *Service) Login(ctx context.Context, creds Credentials, ip, userAgent string) (*TokenPair, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login",
		trace.WithAttributes(attribute.String("ip", ip)))
	var spanErr error
	defer func() { endSpan(span, spanErr) }()

	if s.tracker != nil {
		blocked, err := s.tracker.IsBlocked(ctx, ip)
		if err != nil {
			spanErr = err
			return nil, err
		}
		if blocked {
			s.loginFailure(ctx, "ip_blocked", creds.Email, ip)
			spanErr = dErrors.New(dErrors.CodeTooManyRequests, "too many failed attempts from this address")
			return nil, spanErr
		}
	}

	known, err := s.users.FindByEmail(ctx, creds.Email)
	if errors.Is(err, store.ErrNotFound) {
		// Unknown email: no counter exists, so the only side effect is the
		// per-IP registration.
		s.registerIPFailure(ctx, ip, userAgent)
		s.loginFailure(ctx, "unknown_email", creds.Email, ip)
		spanErr = dErrors.New(dErrors.CodeAuthenticationFailed, "invalid credentials")
		return nil, spanErr
	}
	if err != nil {
		spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
		return nil, spanErr
	}

	user, err := s.evaluateAttempt(ctx, known.ID, creds.Password, ip, userAgent)
	if err != nil {
		spanErr = err
		return nil, err
	}

	pair, err := s.GenerateTokenResponse(ctx, user)
	if err != nil {
		spanErr = err
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.LoginSuccess.Inc()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "login succeeded",
			"user_id", user.ID.String(),
			"event", "login_success",
			"log_type", "audit",
		)
	}
	return pair, nil
}

// evaluateAttempt runs the lockout state machine for a known user and returns
// the user as evaluated. The order is load-bearing: lock expiry is checked
// before any counter increment, so an attempt made exactly at or after expiry
// evaluates as unlocked.
func (s *Service) evaluateAttempt(ctx context.Context, userID uuid.UUID, plain, ip, userAgent string) (*models.User, error) {
	s.userLocks.Lock(userID.String())
	defer s.userLocks.Unlock(userID.String())

	// The pre-lock load was only a key lookup. Re-read here so the
	// read-modify-write on the counter sees every concurrent attempt.
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		s.registerIPFailure(ctx, ip, userAgent)
		s.loginFailure(ctx, "unknown_email", "", ip)
		return nil, dErrors.New(dErrors.CodeAuthenticationFailed, "invalid credentials")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	now := s.now()

	// Lazy lock expiry: no background sweep ever clears a lock.
	if user.LockedUntil != nil && !now.Before(*user.LockedUntil) {
		user.LockedUntil = nil
		user.FailedLoginAttempts = 0
	}

	passwordOK := s.passwords.Verify(user.PasswordHash, plain) == nil

	if !user.Active || user.Locked(now) {
		// Inactive and still-locked accounts count the attempt regardless
		// of whether the password was right.
		s.recordFailure(ctx, user)
		s.registerIPFailure(ctx, ip, userAgent)
		s.loginFailure(ctx, "account_locked", user.Email, ip)
		return nil, dErrors.New(dErrors.CodeAccountLocked, "account is locked")
	}

	if !passwordOK {
		s.recordFailure(ctx, user)
		s.registerIPFailure(ctx, ip, userAgent)
		s.loginFailure(ctx, "bad_password", user.Email, ip)
		return nil, dErrors.New(dErrors.CodeAuthenticationFailed, "invalid credentials")
	}

	// Success from UNLOCKED: the counter resets to zero regardless of its
	// prior value. This is the only reset path.
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	if err := s.users.Save(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset failure counter")
	}
	return user, nil
}

// recordFailure increments the failure counter and applies the timed lock at
// the threshold. The mutation is persisted before the caller raises its
// error: failing the request and recording the attempt are independent
// outcomes of the same call.
func (s *Service) recordFailure(ctx context.Context, user *models.User) {
	t := s.now()
	user.FailedLoginAttempts++
	if user.FailedLoginAttempts >= s.cfg.LockThreshold {
		until := t.Add(s.cfg.LockDuration)
		user.LockedUntil = &until
		if s.metrics != nil {
			s.metrics.AccountsLocked.Inc()
		}
		if s.logger != nil {
			s.logger.InfoContext(ctx, "account locked",
				"user_id", user.ID.String(),
				"failed_attempts", user.FailedLoginAttempts,
				"locked_until", until,
				"event", "account_locked",
				"log_type", "audit",
			)
		}
	}
	if err := s.users.Save(ctx, user); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to persist failure counter",
			"user_id", user.ID.String(),
			"error", err,
		)
	}
}

func (s *Service) registerIPFailure(ctx context.Context, ip, userAgent string) {
	if s.tracker == nil || ip == "" {
		return
	}
	if err := s.tracker.RegisterFailedAttempt(ctx, ip, userAgent); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to register ip failure", "ip", ip, "error", err)
	}
}

func (s *Service) loginFailure(ctx context.Context, reason, email, ip string) {
	if s.metrics != nil {
		s.metrics.LoginFailures.WithLabelValues(reason).Inc()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "login failed",
			"reason", reason,
			"email", email,
			"ip", ip,
			"event", "login_failure",
			"log_type", "audit",
		)
	}
}
