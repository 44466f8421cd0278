package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	schoolGuard "github.com/MrEthical07/schoolGuard"
	"github.com/MrEthical07/schoolGuard/middleware"
	"github.com/MrEthical07/schoolGuard/permission"
	"github.com/MrEthical07/schoolGuard/revocation"
)

const maxBodyBytes = 16 << 10

// newMux registers every route. Each protected route runs one pipeline:
// CSRF (unsafe methods), authentication, revocation, authorization. Every
// POST, login and logout included, needs the double-submit pair.
func newMux(engine *schoolGuard.Engine, trustProxy bool) *http.ServeMux {
	mux := http.NewServeMux()
	info := middleware.ClientInfo(trustProxy)

	read := func(perms ...string) func(http.Handler) http.Handler {
		return middleware.Chain(info, middleware.Pipeline(
			middleware.AuthenticateCheck(engine),
			middleware.RevocationCheck(engine),
			middleware.PermissionCheck(engine, permission.MatchAll, perms...),
		))
	}
	write := func(perms ...string) func(http.Handler) http.Handler {
		return middleware.Chain(info, middleware.Pipeline(
			middleware.CSRFCheckFor(engine),
			middleware.AuthenticateCheck(engine),
			middleware.RevocationCheck(engine),
			middleware.PermissionCheck(engine, permission.MatchAll, perms...),
		))
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	mux.Handle("POST /auth/login", middleware.Chain(info, middleware.Pipeline(
		middleware.CSRFCheckFor(engine),
	))(middleware.LoginHandler(engine)))
	mux.Handle("POST /auth/logout", middleware.Chain(info, middleware.Pipeline(
		middleware.CSRFCheckFor(engine),
		middleware.AuthenticateCheck(engine),
		middleware.RevocationCheck(engine),
	))(middleware.LogoutHandler(engine)))
	mux.Handle("GET /auth/csrf", middleware.CSRFTokenHandler(engine))

	mux.Handle("GET /api/students", read("students.read")(http.HandlerFunc(listStudents)))
	mux.Handle("POST /api/grades", write("grades.write")(http.HandlerFunc(recordGrade)))
	mux.Handle("POST /api/users/{id}/unlock", write("users.unlock")(unlockHandler(engine)))
	mux.Handle("POST /api/tokens/revoke", write("tokens.revoke")(revokeHandler(engine)))
	mux.Handle("GET /api/security/report", middleware.Chain(info, middleware.RequireStrict(engine), middleware.RequireRole(engine, schoolGuard.RoleAdmin))(reportHandler(engine)))

	return mux
}

func listStudents(w http.ResponseWriter, r *http.Request) {
	identity, _ := schoolGuard.IdentityFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"viewer":   identity.ID,
		"students": []string{},
	})
}

func recordGrade(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusAccepted)
}

func unlockHandler(engine *schoolGuard.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := schoolGuard.IdentityFromContext(r.Context())
		if err := engine.UnlockAccount(r.Context(), r.PathValue("id"), actor.ID); err != nil {
			middleware.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

type revokeRequest struct {
	Token      string `json:"token"`
	IdentityID string `json:"identityId"`
	Reason     string `json:"reason"`
}

func revokeHandler(engine *schoolGuard.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req revokeRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Token == "" {
			writeJSON(w, http.StatusBadRequest, schoolGuard.Rejection{Message: "token is required"})
			return
		}
		reason := revocation.Reason(req.Reason)
		if reason == "" {
			reason = revocation.ReasonManual
		}
		actor, _ := schoolGuard.IdentityFromContext(r.Context())
		if err := engine.Revoke(r.Context(), req.Token, req.IdentityID, reason, actor.ID); err != nil {
			middleware.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func reportHandler(engine *schoolGuard.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, engine.SecurityReport())
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
