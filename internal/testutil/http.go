package testutil

import (
	"net/http"
	"net/http/httptest"

	"github.com/google/uuid"

	"github.com/gateaccess/gateaccess/internal/app/system/auth"
	"github.com/gateaccess/gateaccess/internal/domain/models"
)

// TestUser represents caller identity for testing HTTP handlers.
type TestUser struct {
	ID       string
	Username string
	Email    string
	Region   string
	Role     string
}

// AdminUser returns a TestUser with the gateway admin role.
func AdminUser() TestUser {
	return TestUser{
		ID:       uuid.NewString(),
		Username: "test-admin",
		Email:    "admin@test.com",
		Role:     "admin",
	}
}

// RegionUser returns a TestUser scoped to the given region.
func RegionUser(region string) TestUser {
	return TestUser{
		ID:       uuid.NewString(),
		Username: "test-regional",
		Email:    "regional@test.com",
		Region:   region,
		Role:     models.RoleRegion,
	}
}

// VolunteerUser returns a TestUser with the volunteer role.
func VolunteerUser() TestUser {
	return TestUser{
		ID:       uuid.NewString(),
		Username: "test-volunteer",
		Email:    "volunteer@test.com",
		Role:     models.RoleVolunteer,
	}
}

// WithUser adds a user to the request context for testing authenticated
// handlers. This bypasses the gateway middleware and injects the identity
// directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithUser(r, &auth.SessionUser{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Region:   user.Region,
		Role:     user.Role,
	})
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}
