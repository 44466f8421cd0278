package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// Reason is why a token was revoked.
type Reason string

const (
	ReasonLogout             Reason = "logout"
	ReasonSuspiciousActivity Reason = "suspicious_activity"
	ReasonManual             Reason = "manual"
	ReasonRotation           Reason = "rotation"
)

// Valid reports whether r is one of the known reasons.
func (r Reason) Valid() bool {
	switch r {
	case ReasonLogout, ReasonSuspiciousActivity, ReasonManual, ReasonRotation:
		return true
	}
	return false
}

var (
	// ErrAlreadyRevoked is returned by Insert when the token is already present.
	ErrAlreadyRevoked = errors.New("token already revoked")
	// ErrStoreUnavailable wraps backend failures.
	ErrStoreUnavailable = errors.New("revocation store unavailable")
)

// Record is one revoked token. RevokedBy is empty for self-service logout.
type Record struct {
	Token      string    `json:"-"`
	IdentityID string    `json:"identity_id"`
	ExpiresAt  time.Time `json:"expires_at"`
	Reason     Reason    `json:"reason"`
	RevokedBy  string    `json:"revoked_by,omitempty"`
	RevokedAt  time.Time `json:"revoked_at"`
}

// Store persists revoked tokens.
type Store interface {
	// Insert adds rec atomically, returning ErrAlreadyRevoked if the token
	// is already present.
	Insert(ctx context.Context, rec Record) error
	// Exists reports whether token has been revoked.
	Exists(ctx context.Context, token string) (bool, error)
	// DeleteExpired removes records whose expiry is strictly before now and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Fingerprint returns the hex SHA-256 of token.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
