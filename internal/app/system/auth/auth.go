// Package auth carries the authenticated caller through the request
// context. Authentication itself happens upstream (the deployment's
// gateway); this package trusts the identity headers that gateway sets and
// exposes the caller to handlers.
package auth

import (
	"context"
	"net/http"
)

// Identity headers set by the fronting gateway.
const (
	HeaderUserID   = "X-Auth-User-Id"
	HeaderUsername = "X-Auth-Username"
	HeaderEmail    = "X-Auth-Email"
	HeaderRegion   = "X-Auth-Region"
	HeaderRole     = "X-Auth-Role"
)

// SessionUser is what we inject into r.Context().
type SessionUser struct {
	ID       string
	Username string
	Email    string
	Region   string
	Role     string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithUser returns a request whose context carries the user. Test helpers
// and the middleware both go through here.
func WithUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// LoadGatewayUser injects the caller identity from the gateway headers, if
// present.
func LoadGatewayUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(HeaderUserID); id != "" {
			r = WithUser(r, &SessionUser{
				ID:       id,
				Username: r.Header.Get(HeaderUsername),
				Email:    r.Header.Get(HeaderEmail),
				Region:   r.Header.Get(HeaderRegion),
				Role:     r.Header.Get(HeaderRole),
			})
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by
// LoadGatewayUser) and answers 401 otherwise.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
