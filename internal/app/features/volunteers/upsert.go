// internal/app/features/volunteers/upsert.go
package volunteers

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	volunteerstore "github.com/gateaccess/gateaccess/internal/app/store/volunteers"
	"github.com/gateaccess/gateaccess/internal/domain/models"
)

// ValidationErrors is the business-rule failure list returned before any
// write is attempted.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return "validation failed: " + strings.Join(v, "; ")
}

// Upsert applies a volunteer create or update. When the change set carries
// role/contact fields it derives the previous contact state before the
// write and runs the compensating mutations after it. The primary write is
// never rolled back on a saga failure; replaying the same upsert converges
// the back-references.
func (s *Service) Upsert(ctx context.Context, actor Actor, volunteer bson.M) (bson.M, error) {
	var current *ContactState
	if hasAny(volunteer, "role", "primaryContact", "assistantContact") {
		current = &ContactState{}
		current.Role, _ = volunteer["role"].(string)
		current.PrimaryContact, _ = volunteer["primaryContact"].(bool)
		current.AssistantContact, _ = volunteer["assistantContact"].(bool)
		current.Region, _ = volunteer["regionName"].(string)
		current.Zone, _ = volunteer["zoneId"].(string)
		delete(volunteer, "regionName")
		delete(volunteer, "zoneId")
		delete(volunteer, "primaryContact")
		delete(volunteer, "assistantContact")
	}

	userID, _ := volunteer["userID"].(string)
	if userID == "" {
		return s.create(ctx, actor, volunteer, current)
	}
	return s.update(ctx, actor, userID, volunteer, current)
}

func (s *Service) create(ctx context.Context, actor Actor, volunteer bson.M, current *ContactState) (bson.M, error) {
	if errs := s.validateCreate(ctx, volunteer); len(errs) > 0 {
		return nil, errs
	}
	created, err := s.store.Create(ctx, actor.UserID, volunteer)
	if err != nil {
		return nil, err
	}
	if current != nil {
		email, _ := created["email"].(string)
		id, _ := created["userID"].(string)
		if err := s.changeRoleContact(ctx, actor, id, email, nil, *current); err != nil {
			return created, fmt.Errorf("volunteer created, contact sync incomplete: %w", err)
		}
	}
	return created, nil
}

func (s *Service) update(ctx context.Context, actor Actor, userID string, volunteer bson.M, current *ContactState) (bson.M, error) {
	var prior bson.M
	if current != nil {
		res, err := s.store.List(ctx, volunteerstore.ListRequest{
			Criterion: newUserCriterion(userID),
			Columns:   priorContactColumns,
		})
		if err != nil {
			return nil, err
		}
		if len(res.Data) > 0 {
			prior = res.Data[0]
		}
	}

	// A role change regenerates the default security matrix.
	if role, ok := volunteer["role"].(string); ok && prior != nil {
		if priorRole, _ := prior["role"].(string); priorRole != role {
			volunteer["security"] = securityDocs(models.DefaultSecurity(role))
		}
	}

	// Withdrawing inmate interest revokes every inmate-facing assignment
	// and releases upcoming meeting parts.
	if allowed, ok := volunteer["isAllowedInterest"].(bool); ok && !allowed {
		facilities, err := s.switchInmateAccessOff(ctx, userID)
		if err != nil {
			return nil, err
		}
		if facilities != nil {
			volunteer["facilities"] = facilities
		}
	}

	updated, err := s.store.Update(ctx, actor.UserID, volunteer)
	if err != nil {
		return nil, err
	}

	if current != nil && prior != nil {
		prev := deriveContactState(prior)
		email, _ := updated["email"].(string)
		if err := s.changeRoleContact(ctx, actor, userID, email, &prev, *current); err != nil {
			return updated, fmt.Errorf("volunteer updated, contact sync incomplete: %w", err)
		}
	}
	return updated, nil
}

// switchInmateAccessOff returns the volunteer's facility assignments with
// the inmate-facing flags cleared, keeping contact and ICLW. Upcoming
// meeting part assignments are declined as part of the same change.
func (s *Service) switchInmateAccessOff(ctx context.Context, userID string) ([]bson.M, error) {
	existing, err := s.store.Get(ctx, userID, []string{"facilities"})
	if err != nil || existing == nil {
		return nil, err
	}
	facilities := facilityList(existing)
	for _, f := range facilities {
		f["assignments"] = bson.M{
			"contact":        assignmentFlag(f, "contact"),
			"correspondence": false,
			"inPersonVisits": false,
			"iclw":           assignmentFlag(f, "iclw"),
			"meetings":       false,
		}
	}
	if err := s.meetings.DeclineParts(ctx, userID, s.now()); err != nil {
		return nil, err
	}
	return facilities, nil
}

func (s *Service) validateCreate(ctx context.Context, volunteer bson.M) ValidationErrors {
	var errs ValidationErrors
	username, _ := volunteer["username"].(string)
	if username == "" {
		errs = append(errs, "username is required")
	}
	if email, _ := volunteer["email"].(string); email == "" {
		errs = append(errs, "email is required")
	}
	if username != "" {
		taken, err := s.store.UsernameExists(ctx, username)
		if err != nil {
			errs = append(errs, "username uniqueness check failed")
		} else if taken {
			errs = append(errs, fmt.Sprintf("username %q is already in use", username))
		}
	}
	return errs
}

func hasAny(doc bson.M, keys ...string) bool {
	for _, k := range keys {
		if _, ok := doc[k]; ok {
			return true
		}
	}
	return false
}

func securityDocs(assignments []models.SecurityAssignment) bson.A {
	out := make(bson.A, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, bson.M{"module": a.Module, "access": a.Access, "level": a.Level})
	}
	return out
}
