package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	schoolGuard "github.com/MrEthical07/schoolGuard"
)

// WriteRejection writes d as a JSON error body. Rate-limit rejections get
// a Retry-After header with the limiter window.
func WriteRejection(w http.ResponseWriter, d schoolGuard.Decision) {
	var rl *schoolGuard.RateLimitError
	if errors.As(d.Err, &rl) && rl.Window > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(rl.Window.Seconds())))
	}
	if d.Status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="schoolguard"`)
	}
	writeJSON(w, d.Status, d.Body)
}

// WriteError maps err through [schoolGuard.RejectionFor] and writes it.
func WriteError(w http.ResponseWriter, err error) {
	WriteRejection(w, schoolGuard.RejectionFor(err))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
