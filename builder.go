package schoolGuard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/schoolGuard/internal/audit"
	"github.com/MrEthical07/schoolGuard/internal/limiters"
	"github.com/MrEthical07/schoolGuard/internal/rate"
	"github.com/MrEthical07/schoolGuard/jwt"
	"github.com/MrEthical07/schoolGuard/password"
	"github.com/MrEthical07/schoolGuard/permission"
	"github.com/MrEthical07/schoolGuard/revocation"
	"github.com/redis/go-redis/v9"
)

// AuditChainHead is implemented by audit sinks that can report the hash of
// their newest entry, so a restarted process continues the chain.
type AuditChainHead interface {
	LastHash(ctx context.Context) (string, error)
}

// Builder assembles an [Engine]. Configure it during initialization and
// call Build once.
type Builder struct {
	config Config
	logger *slog.Logger
	clock  func() time.Time
	redis  redis.UniversalClient

	identities  IdentityStore
	verifier    CredentialVerifier
	revocations revocation.Store
	auditSink   AuditSink
	roles       map[string][]string

	built bool
}

// New describes the new operation and its observable behavior.
//
// New returns a builder seeded with [DefaultConfig]. The JWT secret and an
// identity store must still be supplied before Build.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithLogger sets the fallback logger. Defaults to slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock injects the time source used by every window and lockout.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithRedis backs the rate-limit counters and, unless a revocation store
// is set, the revocation store with client.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithIdentityStore sets the identity persistence. Required.
func (b *Builder) WithIdentityStore(store IdentityStore) *Builder {
	b.identities = store
	return b
}

// WithVerifier replaces the default Argon2id credential verifier.
func (b *Builder) WithVerifier(v CredentialVerifier) *Builder {
	b.verifier = v
	return b
}

// WithRevocationStore sets the revoked-token store.
func (b *Builder) WithRevocationStore(store revocation.Store) *Builder {
	b.revocations = store
	return b
}

// WithAuditSink sets where audit entries are written.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithCatalog sets the role → permissions table. Defaults to
// [SchoolCatalog].
func (b *Builder) WithCatalog(roles map[string][]string) *Builder {
	b.roles = roles
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when the configuration is invalid, a required
// dependency is missing, or the catalog cannot be compiled. A builder can
// be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.identities == nil {
		return nil, errors.New("identity store required")
	}

	roles := b.roles
	if roles == nil {
		roles = SchoolCatalog()
	}
	for role := range roles {
		if !Role(role).Valid() {
			return nil, fmt.Errorf("catalog role %q is not a known role", role)
		}
	}
	catalog, err := permission.NewCatalog(roles)
	if err != nil {
		return nil, err
	}

	now := b.clock
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := &Engine{
		config:     cfg,
		now:        now,
		logger:     logger,
		identities: b.identities,
		catalog:    catalog,
		escalation: cfg.Lockout.Escalation.Sorted(),
		metrics:    NewMetrics(cfg.Metrics),
		auditIDs:   internalaudit.NewIDSource(),
	}

	// -------- CREDENTIALS --------
	engine.verifier = b.verifier
	if engine.verifier == nil {
		ph, err := password.NewArgon2(cfg.Password.Argon2)
		if err != nil {
			return nil, err
		}
		engine.verifier = ph
	}

	// -------- TOKENS --------
	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    jwtSignKey(cfg.JWT),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	// -------- COUNTERS + REVOCATION --------
	var counter rate.Counter
	if b.redis != nil {
		counter = rate.NewRedisCounter(b.redis)
	} else {
		engine.memCounter = rate.NewMemoryCounter(now)
		counter = engine.memCounter
	}
	engine.loginLimiter = limiters.NewLoginLimiterWithPrefix(counter, cfg.RateLimit.RedisPrefix, limiters.LoginConfig{
		LoginIP:             cfg.RateLimit.LoginIP,
		FailedLoginIP:       cfg.RateLimit.FailedLoginIP,
		FailedLoginIdentity: cfg.RateLimit.FailedLoginIdentity,
	})

	engine.revocations = b.revocations
	if engine.revocations == nil {
		if b.redis != nil {
			engine.revocations = revocation.NewRedisStore(b.redis, cfg.Revocation.RedisPrefix, now)
		} else {
			engine.revocations = revocation.NewMemoryStore()
		}
	}

	// -------- AUDIT --------
	anchor := cfg.Audit.ChainAnchor
	if head, ok := b.auditSink.(AuditChainHead); ok && anchor == "" && cfg.Audit.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		last, err := head.LastHash(ctx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("audit chain head: %w", err)
		}
		anchor = last
	}
	engine.auditSink = b.auditSink
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Anchor:     anchor,
	}, b.auditSink, newAuditFallback(logger))

	b.built = true

	return engine, nil
}

func jwtSignKey(cfg JWTConfig) []byte {
	if cfg.SigningMethod == "hs256" {
		return cloneBytes(cfg.Secret)
	}
	return cloneBytes(cfg.PrivateKey)
}
