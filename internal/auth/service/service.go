package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"inkgate/internal/abuse"
	"inkgate/internal/auth/models"
	"inkgate/internal/platform/metrics"
	"inkgate/internal/token"
	psync "inkgate/pkg/platform/sync"
)

// UserStore defines the persistence interface for user identity and lock state.
// Error Contract: Find methods return store.ErrNotFound when the entity doesn't exist.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenStore defines the persistence interface for credential records.
// Unlike UserStore, FindByValue reports a missing record as nil, nil: absence
// is an expected outcome there, not a failure. A non-nil error always means
// the store itself failed.
type TokenStore interface {
	Save(ctx context.Context, t *models.Token) error
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*models.Token, error)
	FindByValue(ctx context.Context, value string) (*models.Token, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// Denylist records credential values that must never validate again.
type Denylist interface {
	Add(ctx context.Context, value string, at time.Time) error
	Contains(ctx context.Context, value string) (bool, error)
}

// CredentialIssuer mints and validates signed credentials.
type CredentialIssuer interface {
	IssueAccess(user *models.User) (string, error)
	IssueRefresh(user *models.User) (string, error)
	Verify(raw string) (*token.Claims, error)
}

// PasswordVerifier is the commodity password-check primitive.
type PasswordVerifier interface {
	Verify(hash, plain string) error
}

// AbuseTracker is the per-IP failed-attempt policy consulted before and
// during every login attempt.
type AbuseTracker interface {
	RegisterFailedAttempt(ctx context.Context, ip, userAgent string) error
	IsBlocked(ctx context.Context, ip string) (bool, error)
}

// CreationLimiter caps account creations per IP.
type CreationLimiter interface {
	Allow(ip string) bool
}

// Config carries the lockout policy parameters. Thresholds are configuration,
// not constants baked into the algorithm.
type Config struct {
	LockThreshold int
	LockDuration  time.Duration
	// PersistTimeout bounds credential persistence calls so a stuck store
	// cannot hang a login indefinitely.
	PersistTimeout time.Duration
}

// Service orchestrates authentication attempts: password delegation, per-user
// failure counters, the timed account lock, credential issuance and
// revocation.
type Service struct {
	users       UserStore
	tokens      TokenStore
	denylist    Denylist
	credentials CredentialIssuer
	passwords   PasswordVerifier
	tracker     AbuseTracker
	limiter     CreationLimiter
	cfg         Config

	// userLocks serializes token replacement and counter updates per user so
	// concurrent logins cannot interleave clear-then-insert sequences.
	userLocks *psync.ShardedMutex

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAbuseTracker(t AbuseTracker) Option {
	return func(s *Service) { s.tracker = t }
}

func WithCreationLimiter(l CreationLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(
	users UserStore,
	tokens TokenStore,
	denylist Denylist,
	credentials CredentialIssuer,
	passwords PasswordVerifier,
	cfg Config,
	opts ...Option,
) (*Service, error) {
	if users == nil || tokens == nil || denylist == nil || credentials == nil || passwords == nil {
		return nil, fmt.Errorf("auth service: all stores and the credential issuer are required")
	}
	if cfg.LockThreshold <= 0 {
		return nil, fmt.Errorf("auth service: lock threshold must be positive")
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 10 * time.Second
	}

	s := &Service{
		users:       users,
		tokens:      tokens,
		denylist:    denylist,
		credentials: credentials,
		passwords:   passwords,
		cfg:         cfg,
		userLocks:   psync.NewShardedMutex(),
		tracer:      otel.Tracer("inkgate/auth"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

var _ AbuseTracker = (*abuse.Tracker)(nil)
