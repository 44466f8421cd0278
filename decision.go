package schoolGuard

import (
	"errors"
	"net/http"
	"time"
)

// Rejection is the JSON body written for a rejected request.
type Rejection struct {
	Message            string     `json:"message"`
	LockoutUntil       *time.Time `json:"lockoutUntil,omitempty"`
	RemainingMinutes   int        `json:"remainingMinutes,omitempty"`
	MissingPermissions []string   `json:"missingPermissions,omitempty"`
	Limiter            string     `json:"limiter,omitempty"`
}

// Decision is the outcome of one pipeline check: either Allow, or a
// rejection with its HTTP status and body.
type Decision struct {
	Allowed bool
	Status  int
	Body    Rejection
	Err     error
}

// Allow is the passing decision.
func Allow() Decision {
	return Decision{Allowed: true, Status: http.StatusOK}
}

// Rejected reports whether d stops the pipeline.
func (d Decision) Rejected() bool {
	return !d.Allowed
}

const rateLimitMessage = "too many attempts, please wait before trying again"

// RejectionFor maps an engine error to its decision. A nil error allows.
func RejectionFor(err error) Decision {
	if err == nil {
		return Allow()
	}
	d := Decision{Err: err}

	var lockErr *LockoutError
	var rateErr *RateLimitError
	var permErr *PermissionError

	switch {
	case errors.As(err, &lockErr):
		until := lockErr.Until.UTC()
		d.Status = http.StatusLocked
		d.Body = Rejection{
			Message:          "account is temporarily locked",
			LockoutUntil:     &until,
			RemainingMinutes: lockErr.RemainingMinutes,
		}
	case errors.As(err, &rateErr):
		d.Status = http.StatusTooManyRequests
		d.Body = Rejection{Message: rateLimitMessage, Limiter: rateErr.Limiter}
	case errors.As(err, &permErr):
		d.Status = http.StatusForbidden
		d.Body = Rejection{Message: "insufficient permissions", MissingPermissions: append([]string(nil), permErr.Missing...)}
	case errors.Is(err, ErrAccountLocked):
		d.Status = http.StatusLocked
		d.Body = Rejection{Message: "account is temporarily locked"}
	case errors.Is(err, ErrRateLimited):
		d.Status = http.StatusTooManyRequests
		d.Body = Rejection{Message: rateLimitMessage}
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrEngineNotReady):
		d.Status = http.StatusInternalServerError
		d.Body = Rejection{Message: "internal server error"}
	case errors.Is(err, ErrMalformedCredentials):
		d.Status = http.StatusBadRequest
		d.Body = Rejection{Message: "identifier and password are required"}
	case errors.Is(err, ErrInvalidCredentials):
		d.Status = http.StatusUnauthorized
		d.Body = Rejection{Message: "invalid credentials"}
	case errors.Is(err, ErrTokenMissing), errors.Is(err, ErrUnauthenticated):
		d.Status = http.StatusUnauthorized
		d.Body = Rejection{Message: "authentication required"}
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrTokenRevoked), errors.Is(err, ErrIdentityGone):
		d.Status = http.StatusUnauthorized
		d.Body = Rejection{Message: ErrTokenInvalid.Error()}
	case errors.Is(err, ErrCSRFMismatch):
		d.Status = http.StatusForbidden
		d.Body = Rejection{Message: "invalid csrf token"}
	case errors.Is(err, ErrPermissionDenied):
		d.Status = http.StatusForbidden
		d.Body = Rejection{Message: "insufficient permissions"}
	case errors.Is(err, ErrIdentityNotFound):
		d.Status = http.StatusNotFound
		d.Body = Rejection{Message: ErrIdentityNotFound.Error()}
	case errors.Is(err, ErrTokenAlreadyRevoked):
		d.Status = http.StatusConflict
		d.Body = Rejection{Message: ErrTokenAlreadyRevoked.Error()}
	case errors.Is(err, ErrTokenExpiryUnreadable), errors.Is(err, ErrInvalidRevocationReason):
		d.Status = http.StatusBadRequest
		d.Body = Rejection{Message: err.Error()}
	default:
		d.Status = http.StatusInternalServerError
		d.Body = Rejection{Message: "internal server error"}
	}
	return d
}

// Check is one ordered step of a request pipeline.
type Check func(*http.Request) (*http.Request, Decision)

// Evaluate runs checks in order and stops at the first rejection. It
// returns the request as enriched by the passing checks.
func Evaluate(r *http.Request, checks ...Check) (*http.Request, Decision) {
	for _, check := range checks {
		next, d := check(r)
		if d.Rejected() {
			return r, d
		}
		if next != nil {
			r = next
		}
	}
	return r, Allow()
}
