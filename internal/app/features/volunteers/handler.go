// internal/app/features/volunteers/handler.go
package volunteers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	volunteerstore "github.com/gateaccess/gateaccess/internal/app/store/volunteers"
	"github.com/gateaccess/gateaccess/internal/app/system/auth"
	"github.com/gateaccess/gateaccess/internal/app/system/limits"
)

// Handler is the feature-level handler for Volunteers. It holds the
// orchestrating service, direct store access for the thin read endpoints,
// and the logger provided by Startup.
type Handler struct {
	Svc   *Service
	Store *volunteerstore.Store
	Log   *zap.Logger

	// AllowHardDelete gates the physical delete endpoint; production
	// deployments leave it off.
	AllowHardDelete bool
}

func NewHandler(svc *Service, store *volunteerstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Store: store, Log: logger}
}

// actor reads the authenticated caller out of the request context.
func actorFrom(r *http.Request) (Actor, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return Actor{}, false
	}
	return Actor{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		Region:   u.Region,
	}, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Log.Warn("encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs ValidationErrors
	switch {
	case errors.As(err, &verrs):
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": verrs})
	case errors.Is(err, volunteerstore.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]any{"error": "volunteer not found"})
	case errors.Is(err, volunteerstore.ErrUnboundedQuery):
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "query must be filtered or paginated"})
	case errors.Is(err, ErrUnknownOperation):
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unknown facility access operation"})
	default:
		h.Log.Error("volunteer request failed", zap.String("path", r.URL.Path), zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, into any) error {
	defer r.Body.Close()
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	dec := json.NewDecoder(r.Body)
	return dec.Decode(into)
}
