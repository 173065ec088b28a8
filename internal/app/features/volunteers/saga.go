// internal/app/features/volunteers/saga.go
package volunteers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gateaccess/gateaccess/internal/domain/models"
)

// ContactState is the role/contact tuple the orchestrator diffs. Previous
// state is re-derived from stored back-references on every invocation, so a
// partially applied transition converges when replayed.
type ContactState struct {
	Role             string
	PrimaryContact   bool
	AssistantContact bool
	Region           string
	Zone             string
}

func (a ContactState) differs(b ContactState) bool {
	return a.Role != b.Role ||
		a.PrimaryContact != b.PrimaryContact ||
		a.AssistantContact != b.AssistantContact ||
		a.Zone != b.Zone ||
		a.Region != b.Region
}

// changeRoleContact issues the compensating back-reference mutations for a
// role/contact transition. Each step is independently idempotent; failures
// are collected, logged, and reported together rather than aborting the
// remaining steps (convergence contract, not atomicity).
func (s *Service) changeRoleContact(ctx context.Context, actor Actor, userID, email string, previous *ContactState, current ContactState) error {
	var errs error

	if previous != nil && previous.differs(current) {
		switch {
		case previous.Role == models.RoleRegion && previous.Region != "":
			errs = multierr.Append(errs, s.regions.RemoveContact(ctx, previous.Region, userID))
		case previous.Role == models.RoleZone && previous.Zone != "":
			errs = multierr.Append(errs, s.zones.RemoveContact(ctx, previous.Zone, userID))
		case previous.Role == models.RoleFacility && current.Role != models.RoleFacility:
			errs = multierr.Append(errs, s.facilities.RemoveContact(ctx, "", email, userID))
			errs = multierr.Append(errs, s.uncheckFacilityContacts(ctx, actor, userID))
		}
	}

	if current.Role == models.RoleRegion && current.Region != "" {
		errs = multierr.Append(errs, s.regions.AddContact(ctx, current.Region, userID, current.PrimaryContact))
	} else if current.Role == models.RoleZone && current.Zone != "" {
		errs = multierr.Append(errs, s.zones.AddContact(ctx, current.Zone, userID, current.PrimaryContact))
	}

	if errs != nil {
		s.log.Error("role contact transition incomplete",
			zap.String("userID", userID), zap.Error(errs))
	}
	return errs
}

// uncheckFacilityContacts flips off the contact assignment flag on every
// facility assignment the volunteer holds, forcing a second volunteer
// write.
func (s *Service) uncheckFacilityContacts(ctx context.Context, actor Actor, userID string) error {
	v, err := s.store.Get(ctx, userID, []string{"facilities"})
	if err != nil || v == nil {
		return err
	}
	facilities := facilityList(v)
	for _, f := range facilities {
		if a := assignments(f); a != nil {
			a["contact"] = false
		}
	}
	_, err = s.store.Update(ctx, actor.UserID, bson.M{
		"userID":     userID,
		"facilities": facilities,
	})
	return err
}

// priorContactColumns are the join columns the upsert reads to derive the
// previous role/contact state before applying the write.
var priorContactColumns = []string{
	"role",
	"username",
	"email",
	"facilities",
	"security",
	"primaryContactRegions.region",
	"primaryContactRegions.contactID",
	"assistantContactRegions.region",
	"assistantContactRegions.assistantContacts",
	"primaryContactZones.zoneID",
	"primaryContactZones.contactID",
	"assistantContactZones.zoneID",
	"assistantContactZones.assistantContacts",
}

// deriveContactState reads a prior volunteer row (with contact joins still
// attached) into the state tuple. The primary join wins over the assistant
// join when both are present.
func deriveContactState(prior bson.M) ContactState {
	st := ContactState{}
	st.Role, _ = prior["role"].(string)

	if r := subDoc(prior, "primaryContactRegions"); r != nil {
		st.Region, _ = r["region"].(string)
		if st.Region != "" {
			st.PrimaryContact = true
		}
	}
	if st.Region == "" {
		if rows := subDocs(prior, "assistantContactRegions"); len(rows) > 0 {
			st.Region, _ = rows[0]["region"].(string)
			if st.Region != "" {
				st.AssistantContact = true
			}
		}
	}
	if st.Region != "" {
		st.AssistantContact = !st.PrimaryContact
		return st
	}

	if z := subDoc(prior, "primaryContactZones"); z != nil {
		st.Zone, _ = z["zoneID"].(string)
		if st.Zone != "" {
			st.PrimaryContact = true
		}
	}
	if st.Zone == "" {
		if rows := subDocs(prior, "assistantContactZones"); len(rows) > 0 {
			st.Zone, _ = rows[0]["zoneID"].(string)
		}
	}
	if st.Zone != "" {
		st.AssistantContact = !st.PrimaryContact
	}
	return st
}

// subDoc reads a field that holds a single document (an unwound join).
func subDoc(doc bson.M, key string) bson.M {
	switch t := doc[key].(type) {
	case bson.M:
		return t
	case map[string]any:
		return bson.M(t)
	default:
		return nil
	}
}

// subDocs reads a field that holds a document list (an un-unwound join).
func subDocs(doc bson.M, key string) []bson.M {
	var raw []any
	switch t := doc[key].(type) {
	case bson.A:
		raw = t
	case []any:
		raw = t
	case []bson.M:
		out := make([]bson.M, len(t))
		copy(out, t)
		return out
	default:
		return nil
	}
	out := make([]bson.M, 0, len(raw))
	for _, el := range raw {
		if m := toDoc(el); m != nil {
			out = append(out, m)
		}
	}
	return out
}

func toDoc(v any) bson.M {
	switch t := v.(type) {
	case bson.M:
		return t
	case map[string]any:
		return bson.M(t)
	default:
		return nil
	}
}
