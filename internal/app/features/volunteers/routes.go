// internal/app/features/volunteers/routes.go
package volunteers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gateaccess/gateaccess/internal/app/system/auth"
	"github.com/gateaccess/gateaccess/internal/app/system/ratelimit"
)

// Routes mounts all volunteer routes under the path where the caller mounts
// it. Typically: r.Mount("/volunteers", volunteers.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Mutations fan out to the back-reference orchestrator, so they get a
	// per-caller throttle that the read paths do not.
	throttle := ratelimit.Middleware(ratelimit.New(60, time.Minute), callerKey)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		// Listing and lookups
		pr.Post("/query", h.HandleQuery)
		pr.Get("/username_exists", h.ServeUsernameExists)
		pr.Get("/with_security", h.ServeUsersWithSecurity)
		pr.Get("/congregations/{congregationID}/count", h.ServeCongregationCount)
		pr.Post("/documents/query", h.HandleDocumentQuery)

		// Entity reads
		pr.Get("/{id}", h.ServeVolunteer)
		pr.Get("/{id}/access", h.ServeAccess)
		pr.Get("/{id}/access/facilities/{facilityID}", h.ServeAccessFacility)
		pr.Get("/{id}/facilities", h.ServeFacilitiesInReach)
		pr.Get("/{id}/security", h.ServeSecurityMatrix)

		pr.Group(func(mr chi.Router) {
			mr.Use(throttle)

			// Entity writes
			mr.Post("/", h.HandleUpsert)
			mr.Delete("/{id}", h.HandleHardDelete)
			mr.Post("/{id}/delete", h.HandleDeactivate)
			mr.Post("/{id}/status/{status}", h.HandleStatus)
			mr.Post("/{id}/ui_language", h.HandleUILanguage)
			mr.Post("/{id}/access/facilities", h.HandleAccessFacility)
			mr.Post("/{id}/clear_iclw_approvals", h.HandleClearICLWApprovals)
			mr.Post("/documents", h.HandleSaveDocument)
			mr.Delete("/documents/{documentID}", h.HandleDeleteDocument)

			// Photo and credentials
			mr.Put("/{id}/photo", h.HandleSetPhoto)
			mr.Delete("/{id}/photo", h.HandleClearPhoto)
			mr.Post("/{id}/reset_password", h.HandleResetPassword)
			mr.Post("/{id}/welcome_email", h.HandleWelcomeEmail)
		})
	})

	return r
}

func callerKey(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.ID
	}
	return ratelimit.ClientIP(r)
}
