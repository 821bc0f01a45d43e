package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"inkgate/internal/auth/models"
	dErrors "inkgate/pkg/domain-errors"
)

// Audience tags distinguish what a credential may be used for. Access and
// refresh credentials come from the same signer with different tags and TTLs.
const (
	AudienceAccess  = "access"
	AudienceRefresh = "refresh"
)

// Claims are the JWT claims carried by every issued credential.
// Subject is the user's email; Name and Role ride along so the gate can
// establish the caller without an extra lookup on cold paths.
type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service creates and validates signed, time-limited credentials using
// symmetric HMAC over a shared secret.
type Service struct {
	secret          []byte
	issuer          string
	accessTTLHours  int
	refreshTTLHours int
	clock           *time.Location
	now             func() time.Time
}

type Option func(*Service)

// WithNow overrides the clock source. Tests use it to pin issuance time.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService builds a credential signer/verifier. The location anchors expiry
// arithmetic to a fixed offset; the semantics are always "issued-at + N hours",
// never "N hours from midnight".
func NewService(secret, issuer string, accessTTLHours, refreshTTLHours int, clock *time.Location, opts ...Option) *Service {
	s := &Service{
		secret:          []byte(secret),
		issuer:          issuer,
		accessTTLHours:  accessTTLHours,
		refreshTTLHours: refreshTTLHours,
		clock:           clock,
		now:             time.Now,
	}
	if s.clock == nil {
		s.clock = time.UTC
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue mints a signed credential for the user bound to the given audience
// tag, expiring ttlHours after issuance.
func (s *Service) Issue(user *models.User, audience string, ttlHours int) (string, error) {
	now := s.now().In(s.clock)
	claims := Claims{
		Name: user.Name,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.Email,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlHours) * time.Hour)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign credential: %w", err)
	}
	return signed, nil
}

// IssueAccess mints a short-lived access credential.
func (s *Service) IssueAccess(user *models.User) (string, error) {
	return s.Issue(user, AudienceAccess, s.accessTTLHours)
}

// IssueRefresh mints a long-lived refresh credential.
func (s *Service) IssueRefresh(user *models.User) (string, error) {
	return s.Issue(user, AudienceRefresh, s.refreshTTLHours)
}

// Verify checks signature, issuer, and expiry. Every failure mode collapses
// into a single credential_invalid error: callers must not be able to tell
// tampering from expiry. The presented value rides on the wrapped error for
// audit logging and is never echoed to the client.
func (s *Service) Verify(raw string) (*Claims, error) {
	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now().In(s.clock) }))
	if err != nil {
		return nil, invalid(raw, err)
	}
	if !parsed.Valid {
		return nil, invalid(raw, errors.New("token not valid"))
	}
	if claims.Issuer != s.issuer {
		return nil, invalid(raw, errors.New("issuer mismatch"))
	}
	return claims, nil
}

// HasAudience reports whether the claims carry the given audience tag.
func HasAudience(claims *Claims, audience string) bool {
	for _, aud := range claims.Audience {
		if aud == audience {
			return true
		}
	}
	return false
}

func invalid(raw string, cause error) error {
	return dErrors.Wrap(
		fmt.Errorf("presented value %q: %w", raw, cause),
		dErrors.CodeCredentialInvalid,
		"invalid credential",
	)
}
