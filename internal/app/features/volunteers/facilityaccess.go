// internal/app/features/volunteers/facilityaccess.go
package volunteers

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	volunteerstore "github.com/gateaccess/gateaccess/internal/app/store/volunteers"
)

// Facility-access operations.
const (
	OpChange = "C"
	OpDelete = "D"
)

var ErrUnknownOperation = errors.New("unknown facility access operation")

// ChangeAccessFacility applies one facility-assignment change for a
// volunteer: modify/add (OpChange) or remove (OpDelete) the assignment,
// followed by the compensating contact and association updates.
func (s *Service) ChangeAccessFacility(ctx context.Context, actor Actor, userID string, facility bson.M, operation string) error {
	v, err := s.store.Get(ctx, userID, []string{"userID", "username", "email", "facilities"})
	if err != nil {
		return err
	}
	if v == nil {
		return volunteerstore.ErrNotFound
	}
	switch operation {
	case OpDelete:
		facilityID, _ := facility["facilityID"].(string)
		return s.removeAccessFacility(ctx, actor, v, facilityID)
	case OpChange:
		return s.modifyAccessFacility(ctx, actor, v, facility)
	default:
		return ErrUnknownOperation
	}
}

// removeAccessFacility deletes the facility assignment from the volunteer
// and issues the dependent removals for every category that was active:
// contact back-references, correspondence associations, in-person
// associations. The removals run concurrently and all complete regardless
// of individual failures.
func (s *Service) removeAccessFacility(ctx context.Context, actor Actor, v bson.M, facilityID string) error {
	userID, _ := v["userID"].(string)
	email, _ := v["email"].(string)
	facilities := facilityList(v)

	var removed bson.M
	kept := make([]bson.M, 0, len(facilities))
	for _, f := range facilities {
		if id, _ := f["facilityID"].(string); id == facilityID {
			removed = f
			continue
		}
		kept = append(kept, f)
	}
	if removed == nil {
		return nil
	}
	if _, err := s.store.Update(ctx, actor.UserID, bson.M{"userID": userID, "facilities": kept}); err != nil {
		return err
	}

	type step struct {
		active bool
		run    func() error
	}
	steps := []step{
		{assignmentFlag(removed, "contact"), func() error {
			return s.facilities.RemoveContact(ctx, facilityID, email, userID)
		}},
		{assignmentFlag(removed, "correspondence"), func() error {
			return s.inmates.RemoveCorrespondent(ctx, userID, facilityID)
		}},
		{assignmentFlag(removed, "inPersonVisits"), func() error {
			return s.inmates.RemoveInPersonVisitor(ctx, userID, facilityID)
		}},
	}

	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)
	for _, st := range steps {
		if !st.active {
			continue
		}
		wg.Add(1)
		go func(run func() error) {
			defer wg.Done()
			if err := run(); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		}(st.run)
	}
	wg.Wait()
	if errs != nil {
		s.log.Error("facility access removal incomplete",
			zap.String("userID", userID), zap.String("facilityID", facilityID), zap.Error(errs))
	}
	return errs
}

// modifyAccessFacility replaces or adds one facility assignment and syncs
// the facility's contact back-references to the new flags.
func (s *Service) modifyAccessFacility(ctx context.Context, actor Actor, v bson.M, facility bson.M) error {
	userID, _ := v["userID"].(string)
	isPrimary, _ := facility["isPrimary"].(bool)
	delete(facility, "isPrimary")
	delete(facility, "isAssistant")

	facilityID, _ := facility["facilityID"].(string)
	facilities := facilityList(v)
	var original bson.M
	kept := make([]bson.M, 0, len(facilities)+1)
	for _, f := range facilities {
		if id, _ := f["facilityID"].(string); id == facilityID {
			original = f
			continue
		}
		kept = append(kept, f)
	}
	kept = append(kept, volunteerstore.MergeDefaults(facility, volunteerstore.FacilityAssignmentDefaults()))

	if _, err := s.store.Update(ctx, actor.UserID, bson.M{"userID": userID, "facilities": kept}); err != nil {
		return err
	}

	if original != nil {
		return s.changeFacilityContacts(ctx, actor, v, facility, original, isPrimary)
	}
	if assignmentFlag(facility, "contact") {
		return s.addFacilityContacts(ctx, v, facility, isPrimary)
	}
	return nil
}

// changeFacilityContacts diffs the new assignment flags against the
// original and issues the compensating facility/inmate updates.
func (s *Service) changeFacilityContacts(ctx context.Context, actor Actor, v, newFacility, originalFacility bson.M, isPrimary bool) error {
	userID, _ := v["userID"].(string)
	email, _ := v["email"].(string)
	facilityID, _ := newFacility["facilityID"].(string)

	state, err := s.facilities.ContactState(ctx, facilityID)
	if err != nil {
		return err
	}
	var errs error
	if assignmentFlag(newFacility, "contact") && state != nil {
		if isPrimary && state.PrimaryUserID != userID {
			// Demote the sitting primary before taking the slot.
			if state.PrimaryUserID != "" {
				errs = multierr.Append(errs, s.demotePrimaryContact(ctx, actor, state.PrimaryUserID, facilityID))
			}
			errs = multierr.Append(errs, s.facilities.SetPrimaryContact(ctx, facilityID, email, userID))
		} else if !isPrimary && !contains(state.AssistantContacts, userID) {
			errs = multierr.Append(errs, s.facilities.AddAssistantContact(ctx, facilityID, email, userID))
		}
	} else if !assignmentFlag(newFacility, "contact") && assignmentFlag(originalFacility, "contact") {
		errs = multierr.Append(errs, s.facilities.RemoveContact(ctx, facilityID, email, userID))
	}

	if !assignmentFlag(newFacility, "correspondence") && assignmentFlag(originalFacility, "correspondence") {
		errs = multierr.Append(errs, s.inmates.RemoveCorrespondent(ctx, userID, facilityID))
	}
	if !assignmentFlag(newFacility, "inPersonVisits") && assignmentFlag(originalFacility, "inPersonVisits") {
		errs = multierr.Append(errs, s.inmates.RemoveInPersonVisitor(ctx, userID, facilityID))
	}

	if errs != nil {
		s.log.Error("facility contact sync incomplete",
			zap.String("userID", userID), zap.String("facilityID", facilityID), zap.Error(errs))
	}
	return errs
}

// addFacilityContacts records a brand-new contact assignment on the
// facility. A sitting primary is demoted first when this volunteer takes
// the primary slot.
func (s *Service) addFacilityContacts(ctx context.Context, v, facility bson.M, isPrimary bool) error {
	userID, _ := v["userID"].(string)
	email, _ := v["email"].(string)
	facilityID, _ := facility["facilityID"].(string)

	state, err := s.facilities.ContactState(ctx, facilityID)
	if err != nil {
		return err
	}
	if isPrimary {
		if state != nil && state.PrimaryUserID != "" && state.PrimaryUserID != userID {
			if err := s.demotePrimaryContact(ctx, Actor{UserID: userID}, state.PrimaryUserID, facilityID); err != nil {
				return err
			}
		}
		return s.facilities.SetPrimaryContact(ctx, facilityID, email, userID)
	}
	return s.facilities.AddAssistantContact(ctx, facilityID, email, userID)
}

// demotePrimaryContact flips off the contact flag on the sitting primary's
// own facility assignment; the facility's back-reference is rewritten by
// the caller.
func (s *Service) demotePrimaryContact(ctx context.Context, actor Actor, userID, facilityID string) error {
	v, err := s.store.Get(ctx, userID, []string{"facilities"})
	if err != nil || v == nil {
		return err
	}
	facilities := facilityList(v)
	changed := false
	for _, f := range facilities {
		if id, _ := f["facilityID"].(string); id != facilityID {
			continue
		}
		if a := assignments(f); a != nil && assignmentFlag(f, "contact") {
			a["contact"] = false
			changed = true
		}
	}
	if !changed {
		return nil
	}
	_, err = s.store.Update(ctx, actor.UserID, bson.M{"userID": userID, "facilities": facilities})
	return err
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
