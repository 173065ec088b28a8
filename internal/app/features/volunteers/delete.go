// internal/app/features/volunteers/delete.go
package volunteers

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	volunteerstore "github.com/gateaccess/gateaccess/internal/app/store/volunteers"
)

// Deactivate soft-deletes a volunteer and withdraws every back-reference
// the record holds: facility contact slots, inmate associations, upcoming
// meeting parts. Cleanup steps settle independently; the deletion flag is
// only written once they have all been attempted.
func (s *Service) Deactivate(ctx context.Context, actor Actor, userID string) error {
	v, err := s.store.Get(ctx, userID, []string{"userID", "email", "facilities"})
	if err != nil {
		return err
	}
	if v == nil {
		return volunteerstore.ErrNotFound
	}
	email, _ := v["email"].(string)

	var errs error
	for _, f := range facilityList(v) {
		facilityID, _ := f["facilityID"].(string)
		if facilityID == "" {
			continue
		}
		if assignmentFlag(f, "contact") {
			errs = multierr.Append(errs, s.facilities.RemoveContact(ctx, facilityID, email, userID))
		}
		if assignmentFlag(f, "correspondence") {
			errs = multierr.Append(errs, s.inmates.RemoveCorrespondent(ctx, userID, facilityID))
		}
		if assignmentFlag(f, "inPersonVisits") {
			errs = multierr.Append(errs, s.inmates.RemoveInPersonVisitor(ctx, userID, facilityID))
		}
	}
	errs = multierr.Append(errs, s.meetings.DeclineParts(ctx, userID, s.now()))
	if errs != nil {
		s.log.Error("volunteer access removal incomplete",
			zap.String("userID", userID), zap.Error(errs))
		return errs
	}
	return s.store.SoftDelete(ctx, actor.UserID, userID)
}
