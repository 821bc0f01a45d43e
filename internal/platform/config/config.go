package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the auth core needs from the environment.
// All thresholds are tunable; the defaults reproduce the production policy:
// 4 failures lock an account, 3 failures block an IP, 3 signups per IP.
type Config struct {
	Addr  string
	Debug bool

	// DatabaseURL selects the Postgres-backed stores. Empty means the
	// in-memory stores are used (tests, local runs).
	DatabaseURL string

	// Credential signing.
	SigningSecret   string
	Issuer          string
	AccessTTLHours  int
	RefreshTTLHours int

	// ClockOffsetHours shifts credential expiry arithmetic into a fixed
	// timezone. Expiry is always "issued-at + N hours"; the offset only
	// anchors the wall clock the claims are computed against.
	ClockOffsetHours int

	// Account lockout.
	LockThreshold     int
	LockDurationHours int

	// IP abuse.
	IPBlockThreshold int
	// BlockExpiryHours of 0 keeps blocked IPs blocked until manual
	// remediation. A positive value lets blocks lapse after that many hours.
	BlockExpiryHours int

	// Account creation throttle.
	SignupMaxPerIP int

	// TrustProxyHeaders controls whether forwarded-for style headers are
	// consulted at all when resolving the client address.
	TrustProxyHeaders bool
}

const (
	defaultAddr            = ":8080"
	defaultIssuer          = "inkgate"
	defaultAccessTTLHours  = 1
	defaultRefreshTTLHours = 24
	defaultClockOffset     = -3 // UTC-3
	defaultLockThreshold   = 4
	defaultLockHours       = 1
	defaultIPThreshold     = 3
	defaultSignupMax       = 3
)

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:              envOr("INKGATE_ADDR", defaultAddr),
		Debug:             os.Getenv("INKGATE_DEBUG") == "true",
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SigningSecret:     os.Getenv("JWT_SIGNING_SECRET"),
		Issuer:            envOr("JWT_ISSUER", defaultIssuer),
		AccessTTLHours:    envInt("ACCESS_TOKEN_TTL_HOURS", defaultAccessTTLHours),
		RefreshTTLHours:   envInt("REFRESH_TOKEN_TTL_HOURS", defaultRefreshTTLHours),
		ClockOffsetHours:  envInt("CLOCK_OFFSET_HOURS", defaultClockOffset),
		LockThreshold:     envInt("LOCK_THRESHOLD", defaultLockThreshold),
		LockDurationHours: envInt("LOCK_DURATION_HOURS", defaultLockHours),
		IPBlockThreshold:  envInt("IP_BLOCK_THRESHOLD", defaultIPThreshold),
		BlockExpiryHours:  envInt("ABUSE_BLOCK_EXPIRY_HOURS", 0),
		SignupMaxPerIP:    envInt("SIGNUP_MAX_PER_IP", defaultSignupMax),
		TrustProxyHeaders: os.Getenv("TRUST_PROXY_HEADERS") != "false",
	}
	if cfg.SigningSecret == "" {
		// Development fallback - must be overridden in production.
		cfg.SigningSecret = "dev-secret-key-change-in-production"
	}
	return cfg
}

// AccessTTL returns the access credential lifetime.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLHours) * time.Hour
}

// RefreshTTL returns the refresh credential lifetime.
func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLHours) * time.Hour
}

// LockDuration returns how long an account stays locked after the
// failure threshold is reached.
func (c Config) LockDuration() time.Duration {
	return time.Duration(c.LockDurationHours) * time.Hour
}

// BlockExpiry returns the IP block lapse window; zero means permanent.
func (c Config) BlockExpiry() time.Duration {
	return time.Duration(c.BlockExpiryHours) * time.Hour
}

// ClockLocation returns the fixed-offset location used for expiry claims.
func (c Config) ClockLocation() *time.Location {
	return time.FixedZone("inkgate", c.ClockOffsetHours*3600)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
