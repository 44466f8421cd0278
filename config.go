package schoolGuard

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/schoolGuard/internal/limiters"
	"github.com/MrEthical07/schoolGuard/password"
)

// Config holds every tunable threshold of the engine. It is copied at build
// time and never mutated afterwards.
type Config struct {
	JWT        JWTConfig
	Lockout    LockoutConfig
	RateLimit  RateLimitConfig
	Password   PasswordConfig
	CSRF       CSRFConfig
	Audit      AuditConfig
	Revocation RevocationConfig
	Metrics    MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures access-token issuance and the bearer header.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	Secret        []byte // hs256 shared secret, at least 32 bytes
	PrivateKey    []byte // ed25519
	PublicKey     []byte // ed25519
	Issuer        string
	Audience      string
	Leeway        time.Duration
	Header        string
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig configures the per-identity escalation table.
type LockoutConfig struct {
	Escalation Escalation
	// ResetCountOnExpiry also zeroes the failure counter when a passed
	// lockout is cleared. By default only the window is cleared and the
	// count keeps growing, so later failures reach the higher steps.
	ResetCountOnExpiry bool
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig configures the three login throttles.
type RateLimitConfig struct {
	LoginIP             RateWindow
	FailedLoginIP       RateWindow
	FailedLoginIdentity RateWindow
	RedisPrefix         string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the password policy and the Argon2id parameters of
// the default verifier.
type PasswordConfig struct {
	Policy password.Policy
	Argon2 password.Argon2Config
}

/*
====================================
CSRF CONFIG
====================================
*/

// CSRFConfig names the double-submit cookie, header and form field.
type CSRFConfig struct {
	CookieName string
	HeaderName string
	FormField  string
	CookieTTL  time.Duration
	Secure     bool
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig configures the asynchronous audit dispatcher and retention.
type AuditConfig struct {
	Enabled       bool
	BufferSize    int
	// DropIfFull keeps audit writes off the request path: with a full
	// buffer the entry is dropped and counted. Disabling it trades request
	// latency for completeness; the security report warns about it.
	DropIfFull    bool
	Retention     time.Duration
	PurgeInterval time.Duration
	// ChainAnchor is the hash the first entry of this process links to.
	ChainAnchor string
}

/*
====================================
REVOCATION CONFIG
====================================
*/

// RevocationConfig configures the revoked-token store and sweep.
type RevocationConfig struct {
	RedisPrefix   string
	SweepInterval time.Duration
}

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the school defaults: lockout steps 3/5/10/15,
// login_ip 5 per 15m, failed_login_ip 10 per 60m, failed_login_identity 3
// per 5m. The JWT secret must still be supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     time.Hour,
			SigningMethod: "hs256",
			Issuer:        "schoolguard",
			Leeway:        30 * time.Second,
			Header:        "Authorization",
		},
		Lockout: LockoutConfig{
			Escalation: limiters.DefaultEscalation(),
		},
		RateLimit: RateLimitConfig{
			LoginIP:             RateWindow{Max: 5, Window: 15 * time.Minute},
			FailedLoginIP:       RateWindow{Max: 10, Window: 60 * time.Minute},
			FailedLoginIdentity: RateWindow{Max: 3, Window: 5 * time.Minute},
			RedisPrefix:         "sg:rl:",
		},
		Password: PasswordConfig{
			Policy: password.DefaultPolicy(),
			Argon2: password.DefaultArgon2Config(),
		},
		CSRF: CSRFConfig{
			CookieName: "csrf_token",
			HeaderName: "X-CSRF-Token",
			FormField:  "_csrf",
			CookieTTL:  12 * time.Hour,
			Secure:     true,
		},
		Audit: AuditConfig{
			Enabled:       true,
			BufferSize:    1024,
			DropIfFull:    true,
			Retention:     365 * 24 * time.Hour,
			PurgeInterval: 24 * time.Hour,
		},
		Revocation: RevocationConfig{
			RedisPrefix:   "{sg:rv}:",
			SweepInterval: 15 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

// Validate reports the first invalid field of c.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	switch c.JWT.SigningMethod {
	case "hs256":
		if len(c.JWT.Secret) < 32 {
			return errors.New("JWT Secret must be at least 32 bytes for hs256")
		}
	case "ed25519":
		if len(c.JWT.PublicKey) == 0 {
			return errors.New("ed25519 requires PublicKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}
	if strings.TrimSpace(c.JWT.Header) == "" {
		return errors.New("JWT Header must be set")
	}

	// Lockout
	if err := c.Lockout.Escalation.Sorted().Validate(); err != nil {
		return err
	}

	// Rate limits
	for name, w := range map[string]RateWindow{
		limiters.LoginIP:             c.RateLimit.LoginIP,
		limiters.FailedLoginIP:       c.RateLimit.FailedLoginIP,
		limiters.FailedLoginIdentity: c.RateLimit.FailedLoginIdentity,
	} {
		if w.Max > 0 && w.Window <= 0 {
			return fmt.Errorf("RateLimit %s Window must be > 0 when Max is set", name)
		}
	}

	// Password
	p := c.Password.Policy
	if p.MinLength < 0 || p.MaxSequential < 0 || p.MaxRepeated < 0 {
		return errors.New("Password policy thresholds must be >= 0")
	}

	// CSRF
	if c.CSRF.CookieName == "" || c.CSRF.HeaderName == "" {
		return errors.New("CSRF CookieName and HeaderName must be set")
	}
	if http.CanonicalHeaderKey(c.CSRF.HeaderName) == http.CanonicalHeaderKey(c.JWT.Header) {
		return errors.New("CSRF HeaderName must differ from JWT Header")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}
	if c.Audit.Retention < 0 || c.Audit.PurgeInterval < 0 {
		return errors.New("Audit Retention and PurgeInterval must be >= 0")
	}

	// Revocation
	if c.Revocation.SweepInterval < 0 {
		return errors.New("Revocation SweepInterval must be >= 0")
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	out.Lockout.Escalation = append(Escalation(nil), cfg.Lockout.Escalation...)
	out.Password.Policy.Blacklist = append([]string(nil), cfg.Password.Policy.Blacklist...)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
