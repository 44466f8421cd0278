package schoolGuard

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/MrEthical07/schoolGuard/internal"
)

// CSRFCheck is the input of [Engine.CheckCSRF]. SubmittedToken is the
// header value, or the form field when the header is absent.
type CSRFCheck struct {
	Method         string
	Path           string
	CookieToken    string
	SubmittedToken string
	IdentityID     string
}

// IssueCSRFToken returns a fresh double-submit token. The caller sets it
// as the cookie named by CSRFConfig.CookieName.
func (e *Engine) IssueCSRFToken() (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	return internal.NewCSRFToken()
}

// SafeMethod reports whether method never needs a CSRF check.
func SafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// CheckCSRF describes the checkcsrf operation and its observable behavior.
//
// CheckCSRF passes safe methods untouched. Otherwise both the cookie and
// the submitted token must be present and equal; the comparison is
// constant time. Failures return ErrCSRFMismatch.
func (e *Engine) CheckCSRF(ctx context.Context, check CSRFCheck) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if SafeMethod(check.Method) {
		return nil
	}

	reason := ""
	switch {
	case check.CookieToken == "":
		reason = "missing_cookie"
	case check.SubmittedToken == "":
		reason = "missing_token"
	case subtle.ConstantTimeCompare([]byte(check.CookieToken), []byte(check.SubmittedToken)) != 1:
		reason = "mismatch"
	}
	if reason == "" {
		return nil
	}

	e.metricInc(MetricCSRFFailure)
	e.emitAudit(ctx, AuditCSRFFailure, check.IdentityID, "", "csrf validation failed", func() map[string]string {
		return map[string]string{
			"reason": reason,
			"method": check.Method,
			"path":   check.Path,
		}
	})
	return ErrCSRFMismatch
}
