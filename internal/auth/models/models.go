package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity record the auth core operates on. Ownership of the
// profile fields lives with the publishing backend; this core only mutates
// the lock state and failure counter.
type User struct {
	ID                  uuid.UUID
	Email               string
	Name                string
	PasswordHash        string
	Role                string
	Active              bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
}

// Locked reports whether the account lock window is still open at now.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// TokenKind distinguishes credential transport schemes.
type TokenKind string

const (
	TokenKindBearer TokenKind = "bearer"
	TokenKindBasic  TokenKind = "basic"
)

// Token is a persisted credential record. At most one access/refresh pair is
// live per user: issuing a new pair hard-deletes every prior record first.
type Token struct {
	ID      uuid.UUID
	Value   string
	Kind    TokenKind
	UserID  uuid.UUID
	Revoked bool
	Expired bool
}

// Live reports whether the record still counts as a valid credential.
func (t *Token) Live() bool {
	return !t.Revoked || !t.Expired
}

// InvalidatedToken records a credential value that must never validate again,
// independent of whether the originating Token record still exists. Records
// are created on logout and never deleted.
type InvalidatedToken struct {
	Value         string
	InvalidatedAt time.Time
}

// BlockedIP tracks failed attempts from one address. Concurrent inserts can
// leave duplicate rows for an IP; the most recently stamped row is canonical.
type BlockedIP struct {
	ID            uuid.UUID
	IP            string
	FailureCount  int
	UserAgent     string
	Device        string
	LastFailureAt time.Time
}
