// Package config loads the server's configuration. Values come from an
// optional YAML file merged through koanf, then SCHOOLGUARD_* environment
// variables, which take precedence over the file. Anything left unset keeps
// the value of [schoolGuard.DefaultConfig].
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	schoolGuard "github.com/MrEthical07/schoolGuard"
)

// Config is the full server configuration.
type Config struct {
	Env        string
	Addr       string
	TrustProxy bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DatabaseURL string

	// Guard is passed to [schoolGuard.Builder.WithConfig] unchanged.
	Guard schoolGuard.Config
}

// Production reports whether Env names a production deployment.
func (c *Config) Production() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Configuration validation errors.
var (
	ErrMissingJWTSecret = errors.New("SCHOOLGUARD_JWT_SECRET is required")
	ErrInvalidEnv       = errors.New("SCHOOLGUARD_ENV must be development or production")
)

// Default values for non-engine settings.
const (
	DefaultEnv  = "development"
	DefaultAddr = ":8080"
)

const envPrefix = "SCHOOLGUARD_"

// Load reads configuration from an optional YAML file and the environment.
// It returns the loaded config and every validation error found; a file
// that cannot be read is reported alone with a nil config.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	l := &loader{k: k}
	cfg := &Config{
		Env:           l.str("env", DefaultEnv),
		Addr:          l.str("addr", DefaultAddr),
		TrustProxy:    l.boolean("trust_proxy", false),
		RedisAddr:     l.str("redis.addr", ""),
		RedisPassword: l.str("redis.password", ""),
		RedisDB:       l.integer("redis.db", 0),
		DatabaseURL:   l.str("database_url", ""),
		Guard:         l.guard(),
	}

	errs := append(l.errs, cfg.Validate()...)
	return cfg, errs
}

// Validate returns every invalid setting of c.
func (c *Config) Validate() []error {
	var errs []error
	switch c.Env {
	case "development", "dev", "production", "prod", "test":
	default:
		errs = append(errs, ErrInvalidEnv)
	}
	if c.Guard.JWT.SigningMethod == "hs256" && len(c.Guard.JWT.Secret) == 0 {
		errs = append(errs, ErrMissingJWTSecret)
		return errs
	}
	if err := c.Guard.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errs
}

type loader struct {
	k    *koanf.Koanf
	errs []error
}

func (l *loader) guard() schoolGuard.Config {
	cfg := schoolGuard.DefaultConfig()

	cfg.JWT.Secret = []byte(l.str("jwt.secret", ""))
	cfg.JWT.AccessTTL = l.duration("jwt.access_ttl", cfg.JWT.AccessTTL)
	cfg.JWT.Issuer = l.str("jwt.issuer", cfg.JWT.Issuer)
	cfg.JWT.Audience = l.str("jwt.audience", cfg.JWT.Audience)
	cfg.JWT.Header = l.str("jwt.header", cfg.JWT.Header)
	cfg.JWT.Leeway = l.duration("jwt.leeway", cfg.JWT.Leeway)

	cfg.Lockout.ResetCountOnExpiry = l.boolean("lockout.reset_count_on_expiry", cfg.Lockout.ResetCountOnExpiry)
	if steps := l.escalation("lockout.escalation"); steps != nil {
		cfg.Lockout.Escalation = steps
	}

	cfg.RateLimit.LoginIP = l.window("rate_limit.login_ip", cfg.RateLimit.LoginIP)
	cfg.RateLimit.FailedLoginIP = l.window("rate_limit.failed_login_ip", cfg.RateLimit.FailedLoginIP)
	cfg.RateLimit.FailedLoginIdentity = l.window("rate_limit.failed_login_identity", cfg.RateLimit.FailedLoginIdentity)
	cfg.RateLimit.RedisPrefix = l.str("rate_limit.redis_prefix", cfg.RateLimit.RedisPrefix)

	p := &cfg.Password.Policy
	p.MinLength = l.integer("password.min_length", p.MinLength)
	p.RequireUppercase = l.boolean("password.require_uppercase", p.RequireUppercase)
	p.RequireLowercase = l.boolean("password.require_lowercase", p.RequireLowercase)
	p.RequireDigit = l.boolean("password.require_digit", p.RequireDigit)
	p.RequireSymbol = l.boolean("password.require_symbol", p.RequireSymbol)
	p.CheckCommon = l.boolean("password.check_common", p.CheckCommon)
	p.MaxSequential = l.integer("password.max_sequential", p.MaxSequential)
	p.MaxRepeated = l.integer("password.max_repeated", p.MaxRepeated)
	if l.k.Exists("password.blacklist") {
		p.Blacklist = l.k.Strings("password.blacklist")
	}

	cfg.CSRF.CookieName = l.str("csrf.cookie_name", cfg.CSRF.CookieName)
	cfg.CSRF.HeaderName = l.str("csrf.header_name", cfg.CSRF.HeaderName)
	cfg.CSRF.FormField = l.str("csrf.form_field", cfg.CSRF.FormField)
	cfg.CSRF.CookieTTL = l.duration("csrf.cookie_ttl", cfg.CSRF.CookieTTL)
	cfg.CSRF.Secure = l.boolean("csrf.secure", cfg.CSRF.Secure)

	cfg.Audit.Enabled = l.boolean("audit.enabled", cfg.Audit.Enabled)
	cfg.Audit.BufferSize = l.integer("audit.buffer_size", cfg.Audit.BufferSize)
	cfg.Audit.DropIfFull = l.boolean("audit.drop_if_full", cfg.Audit.DropIfFull)
	cfg.Audit.Retention = l.duration("audit.retention", cfg.Audit.Retention)
	cfg.Audit.PurgeInterval = l.duration("audit.purge_interval", cfg.Audit.PurgeInterval)

	cfg.Revocation.RedisPrefix = l.str("revocation.redis_prefix", cfg.Revocation.RedisPrefix)
	cfg.Revocation.SweepInterval = l.duration("revocation.sweep_interval", cfg.Revocation.SweepInterval)

	cfg.Metrics.Enabled = l.boolean("metrics.enabled", cfg.Metrics.Enabled)
	cfg.Metrics.EnableLatencyHistograms = l.boolean("metrics.latency_histograms", cfg.Metrics.EnableLatencyHistograms)

	return cfg
}

// envKey maps "rate_limit.login_ip.max" to SCHOOLGUARD_RATE_LIMIT_LOGIN_IP_MAX.
func envKey(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// raw returns the environment value for key when set, otherwise the file
// value. ok is false when neither is present.
func (l *loader) raw(key string) (string, bool) {
	if val := os.Getenv(envKey(key)); val != "" {
		return val, true
	}
	if l.k.Exists(key) {
		return l.k.String(key), true
	}
	return "", false
}

func (l *loader) str(key, def string) string {
	if val, ok := l.raw(key); ok {
		return val
	}
	return def
}

func (l *loader) integer(key string, def int) int {
	val, ok := l.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s must be an integer: %q", envKey(key), val))
		return def
	}
	return n
}

func (l *loader) boolean(key string, def bool) bool {
	val, ok := l.raw(key)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	l.errs = append(l.errs, fmt.Errorf("%s must be a boolean: %q", envKey(key), val))
	return def
}

func (l *loader) duration(key string, def time.Duration) time.Duration {
	val, ok := l.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s must be a duration: %q", envKey(key), val))
		return def
	}
	return d
}

func (l *loader) window(key string, def schoolGuard.RateWindow) schoolGuard.RateWindow {
	return schoolGuard.RateWindow{
		Max:    l.integer(key+".max", def.Max),
		Window: l.duration(key+".window", def.Window),
	}
}

// escalation reads a list of {attempts, duration} rows. It is file-only;
// there is no environment form of the table.
func (l *loader) escalation(key string) schoolGuard.Escalation {
	if !l.k.Exists(key) {
		return nil
	}
	rows := l.k.Slices(key)
	out := make(schoolGuard.Escalation, 0, len(rows))
	for i, row := range rows {
		d, err := time.ParseDuration(row.String("duration"))
		if err != nil {
			l.errs = append(l.errs, fmt.Errorf("%s[%d].duration must be a duration: %q", key, i, row.String("duration")))
			continue
		}
		out = append(out, schoolGuard.EscalationStep{Attempts: row.Int("attempts"), Duration: d})
	}
	return out
}
