package middleware

import (
	"net/http"

	schoolGuard "github.com/MrEthical07/schoolGuard"
)

const maxCSRFFormBytes = 1 << 20

// CSRFCheckFor runs the double-submit check. The submitted token comes
// from the configured header, falling back to the form field.
func CSRFCheckFor(engine *schoolGuard.Engine) schoolGuard.Check {
	return func(r *http.Request) (*http.Request, schoolGuard.Decision) {
		if engine == nil {
			return nil, schoolGuard.RejectionFor(schoolGuard.ErrEngineNotReady)
		}
		if schoolGuard.SafeMethod(r.Method) {
			return nil, schoolGuard.Allow()
		}
		cfg := engine.CSRFConfig()

		check := schoolGuard.CSRFCheck{Method: r.Method, Path: r.URL.Path}
		if c, err := r.Cookie(cfg.CookieName); err == nil {
			check.CookieToken = c.Value
		}
		check.SubmittedToken = r.Header.Get(cfg.HeaderName)
		if check.SubmittedToken == "" && cfg.FormField != "" {
			r.Body = http.MaxBytesReader(nil, r.Body, maxCSRFFormBytes)
			check.SubmittedToken = r.PostFormValue(cfg.FormField)
		}
		if identity, ok := schoolGuard.IdentityFromContext(r.Context()); ok {
			check.IdentityID = identity.ID
		}
		return nil, schoolGuard.RejectionFor(engine.CheckCSRF(r.Context(), check))
	}
}

// CSRF rejects unsafe requests without a matching token.
func CSRF(engine *schoolGuard.Engine) func(http.Handler) http.Handler {
	return Pipeline(CSRFCheckFor(engine))
}

// SetCSRFCookie issues a fresh token, sets it as the CSRF cookie and
// returns it so the caller can embed it in a page or JSON body. The
// cookie is readable by scripts so they can echo it in the header.
func SetCSRFCookie(w http.ResponseWriter, engine *schoolGuard.Engine) (string, error) {
	token, err := engine.IssueCSRFToken()
	if err != nil {
		return "", err
	}
	cfg := engine.CSRFConfig()
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.CookieTTL.Seconds()),
		Secure:   cfg.Secure,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}
