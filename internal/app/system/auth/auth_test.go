package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gateaccess/gateaccess/internal/app/system/auth"
)

func TestCurrentUser_NoUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	user, ok := auth.CurrentUser(req)
	if ok || user != nil {
		t.Fatalf("expected no user, got %v", user)
	}
}

func TestCurrentUser_WithUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = auth.WithUser(req, &auth.SessionUser{ID: "u-1", Username: "amaro"})
	user, ok := auth.CurrentUser(req)
	if !ok {
		t.Fatal("expected user in context")
	}
	if user.ID != "u-1" || user.Username != "amaro" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestLoadGatewayUser(t *testing.T) {
	var got *auth.SessionUser
	h := auth.LoadGatewayUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(auth.HeaderUserID, "u-7")
	req.Header.Set(auth.HeaderEmail, "u7@example.org")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != "u-7" || got.Email != "u7@example.org" {
		t.Fatalf("unexpected identity: %+v", got)
	}
}

func TestRequireSignedIn_Unauthorized(t *testing.T) {
	h := auth.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireSignedIn_Authorized(t *testing.T) {
	ran := false
	h := auth.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ran = true
	}))
	req := auth.WithUser(httptest.NewRequest(http.MethodGet, "/", nil), &auth.SessionUser{ID: "u-1"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !ran {
		t.Fatal("expected handler to run")
	}
}
