// internal/app/features/volunteers/access_test.go
package volunteers_test

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	inmatestore "github.com/gateaccess/gateaccess/internal/app/store/inmates"
	zonestore "github.com/gateaccess/gateaccess/internal/app/store/zones"
)

// entryList reads a field holding facility entries regardless of the
// slice type the store surfaced them as.
func entryList(v bson.M, key string) []bson.M {
	var raw []any
	switch t := v[key].(type) {
	case []bson.M:
		return t
	case bson.A:
		raw = t
	case []any:
		raw = t
	}
	out := make([]bson.M, 0, len(raw))
	for _, el := range raw {
		if m, ok := el.(bson.M); ok {
			out = append(out, m)
		}
	}
	return out
}

func seedAccessFixture(f *fixture) {
	f.docs.Seed("users",
		bson.M{
			"userID": "u1", "username": "ann", "email": "ann@example.org",
			"firstName": "Ann", "lastName": "Archer", "role": "region",
			"facilities": bson.A{bson.M{
				"facilityID":        "f1",
				"zoneID":            "z1",
				"overseer":          "prim@example.org",
				"assistantContacts": bson.A{"u3"},
				"assignments":       bson.M{"contact": false, "correspondence": true},
			}},
		},
		bson.M{"userID": "u2", "username": "primco", "email": "prim@example.org"},
		bson.M{"userID": "u3", "username": "helper", "email": "helper@example.org"},
	)
	f.docs.Seed("regions", bson.M{"region": "East", "contactID": "u1"})
}

func TestGetAccess_DerivesContactFlagsAndAssemblesFacilities(t *testing.T) {
	f := newFixture(t)
	seedAccessFixture(f)
	f.inmates.correspondence = []inmatestore.Assignment{
		{FacilityID: "f1", InmateID: "i1", Name: "Inmate One", InmateNumber: "100"},
	}
	f.inmates.inPerson = []inmatestore.Assignment{
		{FacilityID: "f1", InmateID: "i1", Name: "Inmate One", InmateNumber: "100"},
	}
	f.meetings.future = []string{"f1"}

	v, err := f.svc.GetAccess(context.Background(), actor, "u1", nil)
	if err != nil {
		t.Fatalf("GetAccess: %v", err)
	}
	if v == nil {
		t.Fatal("expected a row")
	}

	if v["region"] != "East" {
		t.Fatalf("region = %v, want East", v["region"])
	}
	if v["zone"] != nil {
		t.Fatalf("zone = %v, want nil", v["zone"])
	}
	if v["primaryContact"] != true || v["assistantContact"] != false {
		t.Fatalf("contact flags = %v/%v", v["primaryContact"], v["assistantContact"])
	}
	if v["isCorrespondingWithInmate"] != true || v["isFutureMeetingAssignments"] != true {
		t.Fatalf("aggregate flags wrong: %v / %v",
			v["isCorrespondingWithInmate"], v["isFutureMeetingAssignments"])
	}

	for _, key := range []string{"primaryContactRegions", "assistantContactRegions", "facilityPrimaryContact"} {
		if _, ok := v[key]; ok {
			t.Fatalf("join output %s should be stripped from the view", key)
		}
	}

	facilities := entryList(v, "facilities")
	if len(facilities) != 1 {
		t.Fatalf("expected 1 facility entry, got %d", len(facilities))
	}
	entry := facilities[0]
	if _, ok := entry["overseer"]; ok {
		t.Fatal("overseer should be folded into contacts")
	}
	contacts, _ := entry["contacts"].([]bson.M)
	if len(contacts) != 2 {
		t.Fatalf("expected primary + assistant contact, got %d", len(contacts))
	}
	if contacts[0]["userID"] != "u2" || contacts[0]["isPrimary"] != true {
		t.Fatalf("first contact should be the primary: %v", contacts[0])
	}
	if contacts[1]["userID"] != "u3" || contacts[1]["isPrimary"] != false {
		t.Fatalf("second contact should be the assistant: %v", contacts[1])
	}
	if entry["isPrimary"] != false || entry["isAssistant"] != false {
		t.Fatalf("u1 holds neither contact slot at f1: %v / %v",
			entry["isPrimary"], entry["isAssistant"])
	}

	inmates, _ := entry["inmates"].([]bson.M)
	if len(inmates) != 1 {
		t.Fatalf("duplicate inmate across categories should collapse to one, got %d", len(inmates))
	}
	if inmates[0]["inmateID"] != "i1" {
		t.Fatalf("unexpected inmate: %v", inmates[0])
	}
}

func TestGetAccess_Miss(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.GetAccess(context.Background(), actor, "missing", nil)
	if err != nil {
		t.Fatalf("GetAccess: %v", err)
	}
	if v != nil {
		t.Fatalf("expected nil row, got %v", v)
	}
}

func TestGetAccessFacility_HeldAssignment(t *testing.T) {
	f := newFixture(t)
	seedAccessFixture(f)
	f.zones.contacts = []zonestore.ZoneContact{
		{ZoneID: "z1", UserID: "u7", Email: "zc@example.org", FirstName: "Zed", LastName: "Contact", IsPrimary: true},
		{ZoneID: "z2", UserID: "u8", Email: "other@example.org"},
	}

	v, err := f.svc.GetAccessFacility(context.Background(), actor, "u1", "f1", nil)
	if err != nil {
		t.Fatalf("GetAccessFacility: %v", err)
	}
	if v == nil {
		t.Fatal("expected a row")
	}

	facilities, _ := v["facilities"].([]bson.M)
	if len(facilities) != 1 || facilities[0]["facilityID"] != "f1" {
		t.Fatalf("expected the held f1 assignment, got %v", facilities)
	}
	zoneContacts, _ := facilities[0]["zoneContacts"].([]bson.M)
	if len(zoneContacts) != 1 {
		t.Fatalf("only z1 contacts belong on f1, got %v", zoneContacts)
	}
	if zoneContacts[0]["userID"] != "u7" || zoneContacts[0]["isPrimary"] != true {
		t.Fatalf("unexpected zone contact: %v", zoneContacts[0])
	}
}

func TestGetAccessFacility_UnheldBuildsBlankTemplate(t *testing.T) {
	f := newFixture(t)
	f.docs.Seed("users", bson.M{
		"userID": "u1", "username": "ann", "email": "ann@example.org",
		"facilities": bson.A{},
	})
	f.facilities.summaries["f9"] = bson.M{
		"facilityID": "f9", "zoneID": "z1", "locationName": "North Unit", "state": "NY",
	}
	f.zones.contacts = []zonestore.ZoneContact{{ZoneID: "z1", UserID: "u7"}}

	columns := []string{
		"userID", "username",
		"facilities.locationName",
		"facilities.assignments.contact",
		"facilities.assignments.correspondence",
	}
	v, err := f.svc.GetAccessFacility(context.Background(), actor, "u1", "f9", columns)
	if err != nil {
		t.Fatalf("GetAccessFacility: %v", err)
	}
	if v["username"] != "ann" {
		t.Fatalf("username = %v", v["username"])
	}

	facilities, _ := v["facilities"].([]bson.M)
	if len(facilities) != 1 {
		t.Fatalf("expected 1 template entry, got %d", len(facilities))
	}
	entry := facilities[0]
	if entry["facilityID"] != "f9" || entry["zoneID"] != "z1" {
		t.Fatalf("template identity wrong: %v", entry)
	}
	if entry["locationName"] != "North Unit" {
		t.Fatalf("requested facility column missing: %v", entry)
	}
	if _, ok := entry["state"]; ok {
		t.Fatal("unrequested facility column should not appear")
	}
	flags, _ := entry["assignments"].(bson.M)
	if flags["contact"] != false || flags["correspondence"] != false {
		t.Fatalf("template flags must start false: %v", flags)
	}
	zoneContacts, _ := entry["zoneContacts"].([]bson.M)
	if len(zoneContacts) != 1 || zoneContacts[0]["userID"] != "u7" {
		t.Fatalf("zone contacts missing from template: %v", zoneContacts)
	}
}

func TestGetAccessFacility_UnknownFacility(t *testing.T) {
	f := newFixture(t)
	f.docs.Seed("users", bson.M{"userID": "u1", "username": "ann", "email": "ann@example.org"})

	v, err := f.svc.GetAccessFacility(context.Background(), actor, "u1", "nope", nil)
	if err != nil {
		t.Fatalf("GetAccessFacility: %v", err)
	}
	if v != nil {
		t.Fatalf("unknown facility should be a miss, got %v", v)
	}
}
