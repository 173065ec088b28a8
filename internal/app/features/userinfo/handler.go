// internal/app/features/userinfo/handler.go
package userinfo

import (
	"context"
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/gateaccess/gateaccess/internal/app/system/auth"
	"github.com/gateaccess/gateaccess/internal/app/system/timeouts"
)

// SecuritySource resolves the caller's authorization projection.
type SecuritySource interface {
	SecurityMatrixByUserID(ctx context.Context, userID string) (bson.M, error)
}

// Handler serves identity and authorization info for the current request.
type Handler struct {
	Security SecuritySource
}

func NewHandler(security SecuritySource) *Handler {
	return &Handler{Security: security}
}

// ServeUserInfo returns the gateway identity on the request plus the
// caller's security matrix.
//
// Response format:
//
//	{ "isAuthenticated": bool, "userID": "...", "username": "...",
//	  "email": "...", "region": "...", "role": "...", "security": {...} }
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	user, ok := auth.CurrentUser(r)
	if !ok {
		_ = json.NewEncoder(w).Encode(map[string]any{"isAuthenticated": false})
		return
	}

	body := map[string]any{
		"isAuthenticated": true,
		"userID":          user.ID,
		"username":        user.Username,
		"email":           user.Email,
		"region":          user.Region,
		"role":            user.Role,
	}
	if h.Security != nil {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		if matrix, err := h.Security.SecurityMatrixByUserID(ctx, user.ID); err == nil && matrix != nil {
			body["security"] = matrix["security"]
		}
	}
	_ = json.NewEncoder(w).Encode(body)
}
