package schoolGuard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/schoolGuard/jwt"
)

// IssuedToken is a freshly signed access token.
type IssuedToken struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// IssueToken signs an access token for identity with claims sub, role,
// jti, iat and exp.
func (e *Engine) IssueToken(identity *Identity) (*IssuedToken, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if identity == nil || identity.ID == "" {
		return nil, ErrUnauthenticated
	}
	token, claims, err := e.jwtManager.CreateAccess(identity.ID, string(identity.Role))
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: token, TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively; anything else is ErrTokenMissing.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrTokenMissing
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrTokenMissing
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrTokenMissing
	}
	return token, nil
}

// Authenticate describes the authenticate operation and its observable behavior.
//
// Authenticate verifies the bearer token in header and resolves its
// subject to a live identity. Every verification failure is reported as
// ErrTokenInvalid; a deleted identity is ErrIdentityGone. Revocation is
// not consulted here, see [Engine.CheckRevoked].
func (e *Engine) Authenticate(ctx context.Context, header string) (*Identity, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	token, err := BearerToken(header)
	if err != nil {
		e.metricInc(MetricTokenInvalid)
		return nil, err
	}
	return e.AuthenticateToken(ctx, token)
}

// AuthenticateToken is [Engine.Authenticate] for an already extracted token.
func (e *Engine) AuthenticateToken(ctx context.Context, token string) (*Identity, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	defer func() {
		e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	}()

	claims, err := e.jwtManager.ParseAccess(token)
	if err != nil {
		e.metricInc(MetricTokenInvalid)
		e.emitAudit(ctx, AuditAuthenticationFailure, "", "", "bearer token rejected", func() map[string]string {
			return map[string]string{"reason": "invalid_token"}
		})
		return nil, ErrTokenInvalid
	}

	identity, err := e.identities.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			e.metricInc(MetricTokenInvalid)
			e.emitAudit(ctx, AuditAuthenticationFailure, "", claims.Subject, "token subject no longer exists", func() map[string]string {
				return map[string]string{"reason": "identity_gone", "jti": claims.ID}
			})
			return nil, ErrIdentityGone
		}
		return nil, storeUnavailable("find identity", err)
	}

	e.metricInc(MetricAuthSuccess)
	return identity, nil
}

// TokenClaims verifies token and returns its claims without resolving the
// identity.
func (e *Engine) TokenClaims(token string) (*jwt.AccessClaims, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	claims, err := e.jwtManager.ParseAccess(token)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
