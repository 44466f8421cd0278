package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	schoolGuard "github.com/MrEthical07/schoolGuard"
)

type plainVerifier struct{}

func (plainVerifier) Verify(secret, encoded string) (bool, error) {
	return encoded == "plain:"+secret, nil
}

func newTestServer(t *testing.T) (*schoolGuard.Engine, http.Handler) {
	t.Helper()
	cfg := schoolGuard.DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Audit.Enabled = false

	identities := schoolGuard.NewMemoryIdentityStore()
	for _, id := range []schoolGuard.Identity{
		{ID: "u-admin", Email: "admin@school.test", Role: schoolGuard.RoleAdmin, SecretHash: "plain:Admin#2026"},
		{ID: "u-teacher", Email: "teacher@school.test", Role: schoolGuard.RoleTeacher, SecretHash: "plain:Teach#2026"},
		{ID: "u-parent", Email: "parent@school.test", Role: schoolGuard.RoleParent, SecretHash: "plain:Parent#2026"},
	} {
		identities.Put(id)
	}

	engine, err := schoolGuard.New().
		WithConfig(cfg).
		WithIdentityStore(identities).
		WithVerifier(plainVerifier{}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, newMux(engine, false)
}

func loginRequest(email, secret string) *http.Request {
	body := `{"email":"` + email + `","password":"` + secret + `"}`
	return httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
}

func withCSRF(req *http.Request, token string, cookie *http.Cookie) *http.Request {
	req.AddCookie(cookie)
	req.Header.Set("X-CSRF-Token", token)
	return req
}

func login(t *testing.T, h http.Handler, email, secret string) string {
	t.Helper()
	token, cookie := csrfToken(t, h)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withCSRF(loginRequest(email, secret), token, cookie))
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return out.AccessToken
}

func csrfToken(t *testing.T, h http.Handler) (string, *http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/csrf", nil))
	cookies := rec.Result().Cookies()
	if rec.Code != http.StatusOK || len(cookies) != 1 {
		t.Fatalf("csrf issue: status %d cookies %d", rec.Code, len(cookies))
	}
	return cookies[0].Value, cookies[0]
}

func TestReadRouteRequiresPermission(t *testing.T) {
	_, h := newTestServer(t)
	teacher := login(t, h, "teacher@school.test", "Teach#2026")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "no token", header: "", want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-token", want: http.StatusUnauthorized},
		{name: "teacher", header: "Bearer " + teacher, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/students", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestWriteRouteChecksCSRFBeforeAuthorization(t *testing.T) {
	_, h := newTestServer(t)
	teacher := login(t, h, "teacher@school.test", "Teach#2026")
	parent := login(t, h, "parent@school.test", "Parent#2026")
	token, cookie := csrfToken(t, h)

	post := func(bearer string, withCSRF bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/grades", nil)
		req.Header.Set("Authorization", "Bearer "+bearer)
		if withCSRF {
			req.AddCookie(cookie)
			req.Header.Set("X-CSRF-Token", token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := post(teacher, false); rec.Code != http.StatusForbidden || !strings.Contains(rec.Body.String(), "csrf") {
		t.Fatalf("expected csrf rejection, got %d %s", rec.Code, rec.Body.String())
	}
	if rec := post(teacher, true); rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d %s", rec.Code, rec.Body.String())
	}
	rec := post(parent, true)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for parent, got %d", rec.Code)
	}
	var body schoolGuard.Rejection
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode rejection: %v", err)
	}
	if len(body.MissingPermissions) != 1 || body.MissingPermissions[0] != "grades.write" {
		t.Fatalf("unexpected missing permissions %v", body.MissingPermissions)
	}
}

func TestLoginRequiresCSRF(t *testing.T) {
	_, h := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, loginRequest("teacher@school.test", "Teach#2026"))
	if rec.Code != http.StatusForbidden || !strings.Contains(rec.Body.String(), "csrf") {
		t.Fatalf("expected csrf rejection, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	_, h := newTestServer(t)
	teacher := login(t, h, "teacher@school.test", "Teach#2026")
	token, cookie := csrfToken(t, h)

	logout := func(csrf bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer "+teacher)
		if csrf {
			withCSRF(req, token, cookie)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	students := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/students", nil)
		req.Header.Set("Authorization", "Bearer "+teacher)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if rec := logout(false); rec.Code != http.StatusForbidden || !strings.Contains(rec.Body.String(), "csrf") {
		t.Fatalf("expected csrf rejection, got %d %s", rec.Code, rec.Body.String())
	}
	if code := students(); code != http.StatusOK {
		t.Fatalf("token revoked by rejected logout: %d", code)
	}

	if rec := logout(true); rec.Code != http.StatusNoContent {
		t.Fatalf("logout status %d %s", rec.Code, rec.Body.String())
	}
	if code := students(); code != http.StatusUnauthorized {
		t.Fatalf("revoked token accepted: %d", code)
	}
	if rec := logout(true); rec.Code != http.StatusUnauthorized {
		t.Fatalf("second logout status %d", rec.Code)
	}
}

func TestSecurityReportAdminOnly(t *testing.T) {
	_, h := newTestServer(t)
	admin := login(t, h, "admin@school.test", "Admin#2026")
	teacher := login(t, h, "teacher@school.test", "Teach#2026")

	get := func(bearer string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/security/report", nil)
		req.Header.Set("Authorization", "Bearer "+bearer)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := get(teacher); rec.Code != http.StatusForbidden {
		t.Fatalf("teacher got %d", rec.Code)
	}
	rec := get(admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin got %d", rec.Code)
	}
	var report schoolGuard.SecurityReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Limiters) != 3 {
		t.Fatalf("expected three limiters, got %d", len(report.Limiters))
	}
}

func TestUnlockRoute(t *testing.T) {
	_, h := newTestServer(t)
	admin := login(t, h, "admin@school.test", "Admin#2026")
	token, cookie := csrfToken(t, h)

	req := httptest.NewRequest(http.MethodPost, "/api/users/u-parent/unlock", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	req.AddCookie(cookie)
	req.Header.Set("X-CSRF-Token", token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unlock status %d %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/users/u-missing/unlock", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	req.AddCookie(cookie)
	req.Header.Set("X-CSRF-Token", token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown identity unlock: status %d", rec.Code)
	}
}
