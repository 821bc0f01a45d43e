package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"inkgate/internal/auth/models"
	"inkgate/internal/auth/password"
	userStore "inkgate/internal/auth/store/user"
	dErrors "inkgate/pkg/domain-errors"
)

// SignupRequest is an account-creation request.
type SignupRequest struct {
	Email    string
	Name     string
	Password string
}

const defaultRole = "user"

// Signup creates a new account, gated by the per-IP creation cap. The cap is
// consulted before any validation so an abusive address burns an attempt even
// on garbage input.
func (s *Service) Signup(ctx context.Context, req SignupRequest, ip string) (*models.User, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Signup")
	var spanErr error
	defer func() { endSpan(span, spanErr) }()

	if s.limiter != nil && !s.limiter.Allow(ip) {
		if s.metrics != nil {
			s.metrics.SignupsThrottled.Inc()
		}
		spanErr = dErrors.New(dErrors.CodeTooManyRequests, "too many account creations from this address")
		return nil, spanErr
	}

	if fields := validateSignup(req); len(fields) > 0 {
		spanErr = dErrors.NewValidation(fields)
		return nil, spanErr
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
		return nil, spanErr
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         defaultRole,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, userStore.ErrDuplicateEmail) {
			spanErr = dErrors.New(dErrors.CodeConflict, "email already registered")
			return nil, spanErr
		}
		spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
		return nil, spanErr
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "user created",
			"user_id", user.ID.String(),
			"event", "user_created",
			"log_type", "audit",
		)
	}
	return user, nil
}

func validateSignup(req SignupRequest) map[string]string {
	fields := make(map[string]string)
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "must not be blank"
	}
	if len(req.Password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
