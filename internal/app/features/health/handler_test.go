package health_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/gateaccess/gateaccess/internal/app/features/health"
)

// A client that was never connected fails the ping, which is the failure
// path the endpoint must report as 503.
func TestServe_DatabaseUnavailable(t *testing.T) {
	client, err := mongo.NewClient()
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	h := health.NewHandler(client, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}
}
