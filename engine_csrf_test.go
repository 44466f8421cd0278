package schoolGuard

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestCheckCSRF(t *testing.T) {
	env := newTestEnv(t, testConfig())
	tok, err := env.engine.IssueCSRFToken()
	if err != nil {
		t.Fatalf("IssueCSRFToken: %v", err)
	}
	other, _ := env.engine.IssueCSRFToken()

	tests := []struct {
		name   string
		check  CSRFCheck
		reason string
	}{
		{"get skipped", CSRFCheck{Method: http.MethodGet}, ""},
		{"head skipped", CSRFCheck{Method: http.MethodHead}, ""},
		{"options skipped", CSRFCheck{Method: http.MethodOptions}, ""},
		{"match", CSRFCheck{Method: http.MethodPost, CookieToken: tok, SubmittedToken: tok}, ""},
		{"no cookie", CSRFCheck{Method: http.MethodPost, SubmittedToken: tok}, "missing_cookie"},
		{"no token", CSRFCheck{Method: http.MethodDelete, CookieToken: tok}, "missing_token"},
		{"mismatch", CSRFCheck{Method: http.MethodPut, CookieToken: tok, SubmittedToken: other}, "mismatch"},
		{"length differs", CSRFCheck{Method: http.MethodPatch, CookieToken: tok, SubmittedToken: tok[:10]}, "mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.engine.CheckCSRF(context.Background(), tt.check)
			if tt.reason == "" {
				if err != nil {
					t.Fatalf("unexpected rejection: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrCSRFMismatch) {
				t.Fatalf("expected ErrCSRFMismatch, got %v", err)
			}
			if RejectionFor(err).Status != http.StatusForbidden {
				t.Fatal("expected 403")
			}
		})
	}

	entries := env.auditEntries(t, AuditCSRFFailure)
	if len(entries) != 4 {
		t.Fatalf("csrf_failure entries = %d", len(entries))
	}
	if entries[0].Metadata["reason"] != "missing_cookie" || entries[0].Metadata["method"] != http.MethodPost {
		t.Fatalf("first entry = %+v", entries[0])
	}
}
