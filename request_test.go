package vesta

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestApplication_ContextPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/", ""},
		{"/app", "/app"},
		{"/app/", "/app"},
		{"app", "/app"},
		{" /shop/v1/ ", "/shop/v1"},
	}

	for _, tt := range tests {
		if got := NewApplication("test", tt.in).ContextPath(); got != tt.want {
			t.Errorf("ContextPath(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestApplication_IsVhostOf(t *testing.T) {
	app := NewApplication("test", "/app", "www.example.com", "Shop.Example.com.")

	tests := []struct {
		host string
		want bool
	}{
		{"www.example.com", true},
		{"WWW.EXAMPLE.COM", true},
		{"www.example.com.", true},
		{"shop.example.com", true},
		{"example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := app.IsVhostOf(tt.host); got != tt.want {
			t.Errorf("IsVhostOf(%q): expected %v, got %v", tt.host, tt.want, got)
		}
	}
}

func TestRequest_ServerName(t *testing.T) {
	tests := []struct {
		host, want string
	}{
		{"example.com", "example.com"},
		{"example.com:8080", "example.com"},
		{"[::1]:8080", "::1"},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = tt.host

		if got := NewRequest(r, NewApplication("test", "")).ServerName(); got != tt.want {
			t.Errorf("ServerName(%q): expected %q, got %q", tt.host, tt.want, got)
		}
	}
}

func TestRequest_Accessors(t *testing.T) {
	app := NewApplication("test", "/app")
	r := httptest.NewRequest(http.MethodGet, "/app/?q=1", nil)

	req := NewRequest(r, app)

	if req.HTTP() != r {
		t.Error("HTTP() must return the wrapped request")
	}
	if req.Application() != app {
		t.Error("Application() must return the request context")
	}
	if req.ContextPath() != "/app" {
		t.Errorf("expected /app, got %q", req.ContextPath())
	}
	if req.Param("q") != "1" {
		t.Errorf("expected q=1, got %q", req.Param("q"))
	}
}

func TestResponse_TracksStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	resp := NewResponse(rec)

	if resp.Written() || resp.Status() != http.StatusOK {
		t.Fatal("fresh response must be unwritten with status 200")
	}

	resp.WriteHeader(http.StatusTeapot)
	resp.WriteHeader(http.StatusInternalServerError)

	if !resp.Written() || resp.Status() != http.StatusTeapot {
		t.Errorf("expected first status to stick, got %d", resp.Status())
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("expected recorder code 418, got %d", rec.Code)
	}
	if resp.Unwrap() != rec {
		t.Error("Unwrap must return the underlying writer")
	}
}

func TestResponse_WriteImpliesOK(t *testing.T) {
	rec := httptest.NewRecorder()
	resp := NewResponse(rec)

	if _, err := resp.Write([]byte("hi")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if !resp.Written() || resp.Status() != http.StatusOK {
		t.Errorf("expected written 200, got %d", resp.Status())
	}
}
