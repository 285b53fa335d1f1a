package user

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIsStrongPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"meets all requirements", "Sup3rSecret", true},
		{"missing uppercase", "sup3rsecret", false},
		{"missing lowercase", "SUP3RSECRET", false},
		{"missing digit", "SuperSecret", false},
		{"empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStrongPassword(tt.password); got != tt.want {
				t.Errorf("isStrongPassword(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"falls back to RemoteAddr", "1.2.3.4:5678", "", "1.2.3.4:5678"},
		{"uses first X-Forwarded-For hop", "1.2.3.4:5678", "5.6.7.8, 9.10.11.12", "5.6.7.8"},
		{"single X-Forwarded-For value", "1.2.3.4:5678", "5.6.7.8", "5.6.7.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/register", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandleRegister_ValidationFailures(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, testLogger())

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"invalid email", `{"email":"not-an-email","password":"Sup3rSecret","companyName":"Acme"}`, http.StatusUnprocessableEntity},
		{"missing company name", `{"email":"a@example.com","password":"Sup3rSecret"}`, http.StatusUnprocessableEntity},
		{"password too short", `{"email":"a@example.com","password":"Ab1","companyName":"Acme"}`, http.StatusUnprocessableEntity},
		{"weak password fails complexity check", `{"email":"a@example.com","password":"lowercaseonly1","companyName":"Acme"}`, http.StatusUnprocessableEntity},
		{"malformed JSON", `{bad`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.handleRegister(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestHandleLogin_ValidationFailures(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, testLogger())

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"missing password", `{"email":"a@example.com"}`, http.StatusUnprocessableEntity},
		{"invalid email", `{"email":"nope","password":"anything"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.handleLogin(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestParseBearer_RejectsMissingOrMalformedHeader(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, testLogger())

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not a bearer scheme", "Basic abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			_, ok := h.parseBearer(req)
			if ok {
				t.Error("expected parseBearer to reject the request")
			}
		})
	}
}
