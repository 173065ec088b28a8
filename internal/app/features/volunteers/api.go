// internal/app/features/volunteers/api.go
package volunteers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/gateaccess/gateaccess/internal/app/query"
	volunteerstore "github.com/gateaccess/gateaccess/internal/app/store/volunteers"
	"github.com/gateaccess/gateaccess/internal/app/system/htmlsanitize"
	"github.com/gateaccess/gateaccess/internal/app/system/limits"
	"github.com/gateaccess/gateaccess/internal/app/system/timeouts"
)

// queryRequest is the wire form of a volunteer listing.
type queryRequest struct {
	Criterion   map[string]any `json:"criterion"`
	Columns     []string       `json:"columns"`
	DropColumns []string       `json:"dropColumns"`
	SortKey     string         `json:"sortKey"`
	Descending  bool           `json:"descending"`
	Page        query.Page     `json:"page"`
	Returned    query.Returned `json:"returned"`
}

// HandleQuery runs a criteria/columns listing.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req queryRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed request body"})
		return
	}
	c, err := query.Parse(req.Criterion)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	sanitizeSearchTerm(c)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	res, err := h.Svc.List(ctx, actor, volunteerstore.ListRequest{
		Criterion:   c,
		Columns:     req.Columns,
		DropColumns: req.DropColumns,
		SortKey:     req.SortKey,
		Descending:  req.Descending,
		Page:        req.Page,
		Returned:    req.Returned,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// ServeVolunteer returns one volunteer, defaults merged.
func (h *Handler) ServeVolunteer(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	v, err := h.Svc.Get(ctx, actor, chi.URLParam(r, "id"), columnsParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if v == nil {
		h.writeError(w, r, volunteerstore.ErrNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": v})
}

// HandleUpsert creates or updates a volunteer and synchronizes the
// role/contact back-references.
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var volunteer bson.M
	if err := decodeBody(w, r, &volunteer); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed request body"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	saved, err := h.Svc.Upsert(ctx, actor, volunteer)
	if err != nil && saved == nil {
		h.writeError(w, r, err)
		return
	}
	body := map[string]any{"data": saved}
	if err != nil {
		// The entity write landed; back-reference sync will converge on
		// the next write. Surface the partial failure to the caller.
		body["warning"] = err.Error()
	}
	h.writeJSON(w, http.StatusOK, body)
}

// ServeAccess returns the assembled access view for a volunteer.
func (h *Handler) ServeAccess(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	v, err := h.Svc.GetAccess(ctx, actor, chi.URLParam(r, "id"), columnsParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if v == nil {
		h.writeError(w, r, volunteerstore.ErrNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": v})
}

// ServeAccessFacility returns the access view scoped to one facility.
func (h *Handler) ServeAccessFacility(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	v, err := h.Svc.GetAccessFacility(ctx, actor,
		chi.URLParam(r, "id"), chi.URLParam(r, "facilityID"), columnsParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if v == nil {
		h.writeError(w, r, volunteerstore.ErrNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": v})
}

// facilityChangeRequest is the wire form of a facility-assignment change.
type facilityChangeRequest struct {
	Facility  bson.M `json:"facility"`
	Operation string `json:"operation"`
}

// HandleAccessFacility applies one facility-assignment change.
func (h *Handler) HandleAccessFacility(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req facilityChangeRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed request body"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	if err := h.Svc.ChangeAccessFacility(ctx, actor, chi.URLParam(r, "id"), req.Facility, req.Operation); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": "ok"})
}

// ServeFacilitiesInReach lists the facilities reachable through the
// volunteer's congregation zones.
func (h *Handler) ServeFacilitiesInReach(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Store.FacilitiesInReach(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": rows})
}

// ServeSecurityMatrix returns the volunteer's security assignments plus
// derived facility and zone scope.
func (h *Handler) ServeSecurityMatrix(w http.ResponseWriter, r *http.Request) {
	m, err := h.Store.SecurityMatrixByUserID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if m == nil {
		h.writeError(w, r, volunteerstore.ErrNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": m})
}

// ServeUsersWithSecurity lists userIDs holding a given security assignment.
func (h *Handler) ServeUsersWithSecurity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := query.Page{Offset: parseInt64(q.Get("offset")), Limit: parseInt64(q.Get("limit"))}
	ids, err := h.Store.UserIDsWithSecurity(r.Context(), q.Get("module"), q.Get("access"), q.Get("level"), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": ids})
}

// ServeUsernameExists reports whether a username is taken.
func (h *Handler) ServeUsernameExists(w http.ResponseWriter, r *http.Request) {
	taken, err := h.Store.UsernameExists(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"exists": taken})
}

// ServeCongregationCount counts non-deleted volunteers in a congregation.
func (h *Handler) ServeCongregationCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.Store.CountByCongregation(r.Context(), chi.URLParam(r, "congregationID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"total": n})
}

// documentQueryRequest is the wire form of a document listing.
type documentQueryRequest struct {
	Match      bson.M     `json:"match"`
	SearchTerm string     `json:"searchTerm"`
	SortKey    string     `json:"sortKey"`
	Descending bool       `json:"descending"`
	Page       query.Page `json:"page"`
}

// HandleDocumentQuery lists volunteer documents with uploader identity.
func (h *Handler) HandleDocumentQuery(w http.ResponseWriter, r *http.Request) {
	var req documentQueryRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed request body"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	res, err := h.Store.DocumentList(ctx, volunteerstore.DocumentListRequest{
		Match:      req.Match,
		SearchTerm: htmlsanitize.SanitizeText(req.SearchTerm),
		SortKey:    req.SortKey,
		Descending: req.Descending,
		Page:       req.Page,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// HandleSaveDocument inserts or updates a volunteer document record.
func (h *Handler) HandleSaveDocument(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var doc bson.M
	if err := decodeBody(w, r, &doc); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed request body"})
		return
	}
	saved, err := h.Store.SaveDocument(r.Context(), actor.UserID, doc)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": saved})
}

// HandleDeleteDocument soft-deletes a volunteer document record.
func (h *Handler) HandleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.Store.SoftDeleteDocument(r.Context(), actor.UserID, chi.URLParam(r, "documentID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": "ok"})
}

// HandleUILanguage records the volunteer's interface language.
func (h *Handler) HandleUILanguage(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var body struct {
		UILanguage string `json:"uiLanguage"`
	}
	if err := decodeBody(w, r, &body); err != nil || body.UILanguage == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "uiLanguage is required"})
		return
	}
	if err := h.Store.SetUILanguage(r.Context(), actor.UserID, chi.URLParam(r, "id"), body.UILanguage); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": "ok"})
}

// HandleStatus flips a volunteer's active status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if _, err := h.Store.Update(r.Context(), actor.UserID, bson.M{
		"userID": chi.URLParam(r, "id"),
		"status": chi.URLParam(r, "status"),
	}); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": "ok"})
}

// HandleDeactivate soft-deletes a volunteer and withdraws its access.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	if err := h.Svc.Deactivate(ctx, actor, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": "ok"})
}

// HandleHardDelete physically removes a volunteer document. Only mounted
// when the deployment allows it.
func (h *Handler) HandleHardDelete(w http.ResponseWriter, r *http.Request) {
	if !h.AllowHardDelete {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	c := query.New()
	if id := chi.URLParam(r, "id"); id != "" {
		c.Set("userID", query.Scalar(id))
	}
	n, err := h.Store.HardDelete(r.Context(), c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}

// HandleSetPhoto points the volunteer's photo at a stored object key; an
// empty key clears it.
func (h *Handler) HandleSetPhoto(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var body struct {
		ObjectKey string `json:"objectKey"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxPhotoKeySize)
	if err := decodeBody(w, r, &body); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed request body"})
		return
	}
	v, err := h.Store.SetPhoto(r.Context(), actor.UserID, chi.URLParam(r, "id"), body.ObjectKey)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": v})
}

// HandleClearPhoto removes the stored photo reference.
func (h *Handler) HandleClearPhoto(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if _, err := h.Store.SetPhoto(r.Context(), actor.UserID, chi.URLParam(r, "id"), ""); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": "ok"})
}

// HandleClearICLWApprovals flips off the ICLW flag on every facility
// assignment the volunteer holds.
func (h *Handler) HandleClearICLWApprovals(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.ClearICLWApprovals(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": "ok"})
}

// HandleResetPassword sends the password-reset email.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.Svc.ResetPassword(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": "ok"})
}

// HandleWelcomeEmail issues a fresh temporary credential and re-sends the
// registration email.
func (h *Handler) HandleWelcomeEmail(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	v, err := h.Svc.ResendWelcomeEmail(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": v})
}

// columnsParam reads a comma-separated column restriction.
func columnsParam(r *http.Request) []string {
	raw := r.URL.Query().Get("columns")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sanitizeSearchTerm strips markup from a free-text search before it is
// compiled into a regex match.
func sanitizeSearchTerm(c *query.Criterion) {
	v, ok := c.Field("searchTerm")
	if !ok || v.IsList() {
		return
	}
	if s, ok := v.Scalar().(string); ok {
		c.Set("searchTerm", query.Scalar(htmlsanitize.SanitizeText(s)))
	}
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
