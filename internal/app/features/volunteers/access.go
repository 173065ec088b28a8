// internal/app/features/volunteers/access.go
package volunteers

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/gateaccess/gateaccess/internal/app/query"
	inmatestore "github.com/gateaccess/gateaccess/internal/app/store/inmates"
	volunteerstore "github.com/gateaccess/gateaccess/internal/app/store/volunteers"
)

// defaultAccessColumns back the access views when the caller supplies no
// column restriction. Joins only attach for columns that name them, so an
// unrestricted access read still needs an explicit set.
var defaultAccessColumns = []string{
	"userID", "username", "email", "firstName", "lastName", "name",
	"role", "phone", "photoLink", "facilities",
}

// accessJoinColumns are appended to every access read so the contact joins
// and the primary-contact resolution are always attached, regardless of
// what the caller asked to display.
var accessJoinColumns = []string{
	volunteerstore.StageFacilityPrimaryContact + ".userID",
	volunteerstore.StageFacilityPrimaryContact + ".email",
	volunteerstore.StagePrimaryContactRegions + ".region",
	volunteerstore.StageAssistantContactRegions + ".region",
	volunteerstore.StagePrimaryContactZones + ".zoneID",
	volunteerstore.StageAssistantContactZones + ".zoneID",
}

// accessJoinKeys are the join output fields stripped from the assembled
// view once their contents have been folded into plain fields.
var accessJoinKeys = []string{
	volunteerstore.StagePrimaryContactRegions,
	volunteerstore.StageAssistantContactRegions,
	volunteerstore.StagePrimaryContactZones,
	volunteerstore.StageAssistantContactZones,
	volunteerstore.StageContactZones,
	volunteerstore.StageFacilityPrimaryContact,
}

// GetAccess returns the volunteer's full access view: the base row plus
// derived region/zone contact flags and the assembled facility entries
// (contacts, inmate associations, upcoming meeting assignments). A miss is
// a nil row.
func (s *Service) GetAccess(ctx context.Context, actor Actor, userID string, columns []string) (bson.M, error) {
	v, err := s.store.Get(ctx, userID, withJoinColumns(columns))
	if err != nil || v == nil {
		return nil, err
	}

	region, zone := "", ""
	primaryRegion := subDoc(v, volunteerstore.StagePrimaryContactRegions)
	if primaryRegion != nil {
		region, _ = primaryRegion["region"].(string)
	}
	if region == "" {
		if rows := subDocs(v, volunteerstore.StageAssistantContactRegions); len(rows) > 0 {
			region, _ = rows[0]["region"].(string)
		}
	}
	primaryZone := subDoc(v, volunteerstore.StagePrimaryContactZones)
	if primaryZone != nil {
		zone, _ = primaryZone["zoneID"].(string)
	}
	if zone == "" {
		if rows := subDocs(v, volunteerstore.StageAssistantContactZones); len(rows) > 0 {
			zone, _ = rows[0]["zoneID"].(string)
		}
	}
	v["region"] = nilIfEmpty(region)
	v["zone"] = nilIfEmpty(zone)
	switch {
	case region != "":
		v["primaryContact"] = primaryRegion != nil
		v["assistantContact"] = primaryRegion == nil
	case zone != "":
		v["primaryContact"] = primaryZone != nil
		v["assistantContact"] = primaryZone == nil
	default:
		v["primaryContact"] = false
		v["assistantContact"] = false
	}

	if err := s.assembleFacilities(ctx, actor, v); err != nil {
		return nil, err
	}
	for _, k := range accessJoinKeys {
		delete(v, k)
	}
	return v, nil
}

// GetAccessFacility returns the access view for one facility: either the
// assignment the volunteer already holds, or a blank template built from
// the facility record when no assignment exists yet. Zone contacts for the
// facility's zone are attached either way.
func (s *Service) GetAccessFacility(ctx context.Context, actor Actor, userID, facilityID string, columns []string) (bson.M, error) {
	if len(columns) == 0 {
		columns = defaultAccessColumns
	}
	full, err := s.store.Get(ctx, userID, withJoinColumns(columns))
	if err != nil || full == nil {
		return nil, err
	}

	v := bson.M{}
	for _, col := range columns {
		if !strings.Contains(col, ".") {
			v[col] = full[col]
		}
	}
	v["userID"] = full["userID"]

	var held bson.M
	for _, f := range facilityList(full) {
		if id, _ := f["facilityID"].(string); id == facilityID {
			held = f
			break
		}
	}
	if held != nil {
		overseer, _ := held["overseer"].(string)
		primaries := make([]bson.M, 0, 1)
		for _, c := range subDocs(full, volunteerstore.StageFacilityPrimaryContact) {
			if email, _ := c["email"].(string); email == overseer {
				primaries = append(primaries, c)
			}
		}
		v[volunteerstore.StageFacilities] = []bson.M{held}
		v[volunteerstore.StageFacilityPrimaryContact] = primaries
	} else {
		summary, err := s.facilities.Summary(ctx, facilityID)
		if err != nil {
			return nil, err
		}
		if summary == nil {
			return nil, nil
		}
		entry := bson.M{}
		flags := bson.M{}
		for _, col := range columns {
			rest, ok := strings.CutPrefix(col, volunteerstore.StageFacilities+".")
			if !ok {
				continue
			}
			if flag, nested := strings.CutPrefix(rest, "assignments."); nested {
				flags[flag] = false
			} else {
				entry[rest] = summary[rest]
			}
		}
		entry["facilityID"] = facilityID
		entry["zoneID"] = summary["zoneID"]
		entry["assignments"] = flags
		v[volunteerstore.StageFacilities] = []bson.M{entry}
		v[volunteerstore.StageFacilityPrimaryContact] = []bson.M{}
	}

	if err := s.assembleFacilities(ctx, actor, v); err != nil {
		return nil, err
	}
	delete(v, volunteerstore.StageFacilityPrimaryContact)
	if err := s.augmentFacilitiesWithZoneContacts(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// assembleFacilities folds the raw join outputs on a volunteer row into
// per-facility access entries: contact lists, inmate associations from
// both categories (deduplicated), and upcoming meeting assignments. The
// aggregate flags land on the row itself.
func (s *Service) assembleFacilities(ctx context.Context, actor Actor, v bson.M) error {
	userID, _ := v["userID"].(string)
	facilities := facilityList(v)
	facilityIDs := facilityIDsOf(facilities)

	var primaryIDs []string
	for _, c := range subDocs(v, volunteerstore.StageFacilityPrimaryContact) {
		if id, _ := c["userID"].(string); id != "" {
			primaryIDs = append(primaryIDs, id)
		}
	}
	var assistantIDs []string
	for _, f := range facilities {
		assistantIDs = append(assistantIDs, stringsOf(f["assistantContacts"])...)
	}

	primaryByEmail, err := s.contactsByKey(ctx, primaryIDs, "email", true)
	if err != nil {
		return err
	}
	assistantsByID, err := s.contactsByKey(ctx, assistantIDs, "userID", false)
	if err != nil {
		return err
	}

	correspondence, err := s.inmates.AssignedCorrespondence(ctx, userID, facilityIDs)
	if err != nil {
		return err
	}
	inPerson, err := s.inmates.AssignedInPerson(ctx, userID, facilityIDs)
	if err != nil {
		return err
	}
	meetingFacilities, err := s.meetings.FutureAssignments(ctx, userID, facilityIDs, s.now())
	if err != nil {
		return err
	}

	correspondenceAt := groupAssignments(correspondence)
	inPersonAt := groupAssignments(inPerson)
	meetingsAt := make(map[string]bool, len(meetingFacilities))
	for _, id := range meetingFacilities {
		meetingsAt[id] = true
	}

	v["isCorrespondingWithInmate"] = len(correspondenceAt) > 0
	v["isInPersonWithInmate"] = len(inPersonAt) > 0
	v["isFutureMeetingAssignments"] = len(meetingsAt) > 0

	for _, f := range facilities {
		facilityID, _ := f["facilityID"].(string)
		contacts := make([]bson.M, 0, 2)
		f["isPrimary"] = false
		if overseer, _ := f["overseer"].(string); overseer != "" {
			if p, ok := primaryByEmail[overseer]; ok {
				contacts = append(contacts, p)
				f["isPrimary"] = p["userID"] == userID
			}
		}
		assistants := stringsOf(f["assistantContacts"])
		for _, id := range assistants {
			if a, ok := assistantsByID[id]; ok {
				contacts = append(contacts, a)
			}
		}
		f["isAssistant"] = contains(assistants, userID)
		delete(f, "overseer")
		delete(f, "assistantContacts")
		f["contacts"] = contacts
		f["inmates"] = dedupeInmates(correspondenceAt[facilityID], inPersonAt[facilityID])
		f["isCorrespondingWithInmate"] = len(correspondenceAt[facilityID]) > 0
		f["isInPersonWithInmate"] = len(inPersonAt[facilityID]) > 0
		f["isFutureMeetingAssignments"] = meetingsAt[facilityID]
	}
	return nil
}

// contactsByKey resolves a set of volunteer IDs to identity entries keyed
// by the given field.
func (s *Service) contactsByKey(ctx context.Context, userIDs []string, key string, primary bool) (map[string]bson.M, error) {
	out := map[string]bson.M{}
	if len(userIDs) == 0 {
		return out, nil
	}
	res, err := s.store.List(ctx, volunteerstore.ListRequest{
		Criterion: query.New().Set("userID", query.Strings(userIDs...)),
		Columns:   []string{"userID", "name", "email"},
		Page:      query.Page{Limit: int64(len(userIDs))},
	})
	if err != nil {
		return nil, err
	}
	for _, row := range res.Data {
		k, _ := row[key].(string)
		if k == "" {
			continue
		}
		out[k] = bson.M{
			"userID":    row["userID"],
			"name":      row["name"],
			"isPrimary": primary,
		}
	}
	return out, nil
}

// augmentFacilitiesWithZoneContacts attaches each facility's zone contacts
// as identity-only entries.
func (s *Service) augmentFacilitiesWithZoneContacts(ctx context.Context, v bson.M) error {
	facilities := facilityList(v)
	if len(facilities) == 0 {
		return nil
	}
	zoneIDs := make([]string, 0, len(facilities))
	for _, f := range facilities {
		if id, _ := f["zoneID"].(string); id != "" {
			zoneIDs = append(zoneIDs, id)
		}
	}
	contacts, err := s.zones.Contacts(ctx, zoneIDs)
	if err != nil {
		return err
	}
	for _, f := range facilities {
		zoneID, _ := f["zoneID"].(string)
		entries := make([]bson.M, 0, len(contacts))
		if zoneID != "" {
			for _, c := range contacts {
				if c.ZoneID != zoneID || c.UserID == "" {
					continue
				}
				entries = append(entries, bson.M{
					"isPrimary": c.IsPrimary,
					"userID":    c.UserID,
					"email":     c.Email,
					"firstName": c.FirstName,
					"lastName":  c.LastName,
				})
			}
		}
		f["zoneContacts"] = entries
	}
	return nil
}

func groupAssignments(list []inmatestore.Assignment) map[string][]bson.M {
	out := map[string][]bson.M{}
	for _, a := range list {
		out[a.FacilityID] = append(out[a.FacilityID], bson.M{
			"inmateID":     a.InmateID,
			"name":         a.Name,
			"photoLink":    a.PhotoLink,
			"inmateNumber": a.InmateNumber,
		})
	}
	return out
}

// dedupeInmates merges association lists, keeping first occurrence per
// inmate.
func dedupeInmates(lists ...[]bson.M) []bson.M {
	seen := map[string]bool{}
	out := make([]bson.M, 0)
	for _, list := range lists {
		for _, i := range list {
			id, _ := i["inmateID"].(string)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, i)
		}
	}
	return out
}

func withJoinColumns(columns []string) []string {
	if len(columns) == 0 {
		columns = defaultAccessColumns
	}
	out := make([]string, 0, len(columns)+len(accessJoinColumns))
	out = append(out, columns...)
	for _, c := range accessJoinColumns {
		if !query.ColumnsInclude(columns, c) {
			out = append(out, c)
		}
	}
	return out
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
