package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	schoolGuard "github.com/MrEthical07/schoolGuard"
)

const maxLoginBodyBytes = 16 << 10

type loginResponse struct {
	AccessToken string                `json:"accessToken"`
	TokenType   string                `json:"tokenType"`
	ExpiresAt   time.Time             `json:"expiresAt"`
	User        loginResponseIdentity `json:"user"`
}

type loginResponseIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginHandler decodes {"email","password"} and returns a bearer token.
// Rejections use the status mapping of [schoolGuard.RejectionFor].
func LoginHandler(engine *schoolGuard.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, schoolGuard.Rejection{Message: "method not allowed"})
			return
		}

		var req schoolGuard.LoginRequest
		body := http.MaxBytesReader(w, r.Body, maxLoginBodyBytes)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			WriteError(w, schoolGuard.ErrMalformedCredentials)
			return
		}

		res, err := engine.Login(r.Context(), req)
		if err != nil {
			WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{
			AccessToken: res.AccessToken,
			TokenType:   "Bearer",
			ExpiresAt:   res.ExpiresAt.UTC(),
			User: loginResponseIdentity{
				ID:    res.Identity.ID,
				Email: res.Identity.Email,
				Role:  string(res.Identity.Role),
			},
		})
	})
}

// LogoutHandler revokes the caller's bearer token. It must run behind
// [RequireStrict] or [RequireJWTOnly].
func LogoutHandler(engine *schoolGuard.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := schoolGuard.BearerTokenFromContext(r.Context())
		if token == "" {
			WriteError(w, schoolGuard.ErrUnauthenticated)
			return
		}
		if err := engine.Logout(r.Context(), token); err != nil {
			WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// CSRFTokenHandler sets a fresh CSRF cookie and returns the token.
func CSRFTokenHandler(engine *schoolGuard.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := SetCSRFCookie(w, engine)
		if err != nil {
			WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
	})
}
