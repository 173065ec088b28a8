// internal/app/features/volunteers/service_test.go
package volunteers_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gateaccess/gateaccess/internal/app/features/volunteers"
	"github.com/gateaccess/gateaccess/internal/app/query"
	facilitystore "github.com/gateaccess/gateaccess/internal/app/store/facilities"
	inmatestore "github.com/gateaccess/gateaccess/internal/app/store/inmates"
	volunteerstore "github.com/gateaccess/gateaccess/internal/app/store/volunteers"
	zonestore "github.com/gateaccess/gateaccess/internal/app/store/zones"
	"github.com/gateaccess/gateaccess/internal/app/system/mailer"
	"github.com/gateaccess/gateaccess/internal/testutil"
)

type staticZones struct{}

func (staticZones) ResolveZoneIDs(context.Context, *query.Criterion) ([]string, error) {
	return nil, nil
}

type contactCall struct {
	Key     string // region name, zone ID, or facility ID
	UserID  string
	Email   string
	Primary bool
}

type fakeRegions struct {
	mu      sync.Mutex
	added   []contactCall
	removed []contactCall
	addErr  error
}

func (f *fakeRegions) AddContact(_ context.Context, regionName, userID string, primary bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, contactCall{Key: regionName, UserID: userID, Primary: primary})
	return nil
}

func (f *fakeRegions) RemoveContact(_ context.Context, regionName, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, contactCall{Key: regionName, UserID: userID})
	return nil
}

type fakeZones struct {
	mu       sync.Mutex
	added    []contactCall
	removed  []contactCall
	contacts []zonestore.ZoneContact
}

func (f *fakeZones) AddContact(_ context.Context, zoneID, userID string, primary bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, contactCall{Key: zoneID, UserID: userID, Primary: primary})
	return nil
}

func (f *fakeZones) RemoveContact(_ context.Context, zoneID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, contactCall{Key: zoneID, UserID: userID})
	return nil
}

func (f *fakeZones) Contacts(_ context.Context, zoneIDs []string) ([]zonestore.ZoneContact, error) {
	out := []zonestore.ZoneContact{}
	for _, c := range f.contacts {
		for _, id := range zoneIDs {
			if c.ZoneID == id {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

type fakeFacilities struct {
	mu         sync.Mutex
	state      map[string]*facilitystore.ContactState
	summaries  map[string]bson.M
	setPrimary []contactCall
	assistants []contactCall
	removed    []contactCall
	removeErr  error
}

func (f *fakeFacilities) ContactState(_ context.Context, facilityID string) (*facilitystore.ContactState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state[facilityID], nil
}

func (f *fakeFacilities) SetPrimaryContact(_ context.Context, facilityID, email, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setPrimary = append(f.setPrimary, contactCall{Key: facilityID, Email: email, UserID: userID})
	return nil
}

func (f *fakeFacilities) AddAssistantContact(_ context.Context, facilityID, email, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assistants = append(f.assistants, contactCall{Key: facilityID, Email: email, UserID: userID})
	return nil
}

func (f *fakeFacilities) RemoveContact(_ context.Context, facilityID, email, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, contactCall{Key: facilityID, Email: email, UserID: userID})
	return nil
}

func (f *fakeFacilities) Summary(_ context.Context, facilityID string) (bson.M, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summaries[facilityID], nil
}

type fakeInmates struct {
	mu             sync.Mutex
	correspondence []inmatestore.Assignment
	inPerson       []inmatestore.Assignment
	removedCorr    []contactCall
	removedVisits  []contactCall
	removeErr      error
}

func (f *fakeInmates) AssignedCorrespondence(_ context.Context, userID string, _ []string) ([]inmatestore.Assignment, error) {
	return f.correspondence, nil
}

func (f *fakeInmates) AssignedInPerson(_ context.Context, userID string, _ []string) ([]inmatestore.Assignment, error) {
	return f.inPerson, nil
}

func (f *fakeInmates) RemoveCorrespondent(_ context.Context, userID, facilityID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removedCorr = append(f.removedCorr, contactCall{Key: facilityID, UserID: userID})
	return nil
}

func (f *fakeInmates) RemoveInPersonVisitor(_ context.Context, userID, facilityID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removedVisits = append(f.removedVisits, contactCall{Key: facilityID, UserID: userID})
	return nil
}

type fakeMeetings struct {
	mu       sync.Mutex
	future   []string
	declined []string
}

func (f *fakeMeetings) FutureAssignments(_ context.Context, _ string, _ []string, _ time.Time) ([]string, error) {
	return f.future, nil
}

func (f *fakeMeetings) DeclineParts(_ context.Context, userID string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.declined = append(f.declined, userID)
	return nil
}

type fakePhotos struct {
	failKeys map[string]bool
}

func (f *fakePhotos) ResolveSignedURL(_ context.Context, _, objectKey string) (string, error) {
	if f.failKeys[objectKey] {
		return "", errors.New("signing unavailable")
	}
	return "https://signed.example.org/" + objectKey, nil
}

type fakeMail struct {
	sent []mailer.Email
	err  error
}

func (f *fakeMail) Send(_ context.Context, e mailer.Email) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, e)
	return nil
}

// fixture bundles a service wired to an in-memory document store and
// recording collaborators.
type fixture struct {
	docs       *testutil.FakeDocs
	store      *volunteerstore.Store
	regions    *fakeRegions
	zones      *fakeZones
	facilities *fakeFacilities
	inmates    *fakeInmates
	meetings   *fakeMeetings
	photos     *fakePhotos
	mail       *fakeMail
	svc        *volunteers.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		docs:       testutil.NewFakeDocs(),
		regions:    &fakeRegions{},
		zones:      &fakeZones{},
		facilities: &fakeFacilities{state: map[string]*facilitystore.ContactState{}, summaries: map[string]bson.M{}},
		inmates:    &fakeInmates{},
		meetings:   &fakeMeetings{},
		photos:     &fakePhotos{failKeys: map[string]bool{}},
		mail:       &fakeMail{},
	}
	f.store = volunteerstore.New(f.docs, staticZones{}, zap.NewNop())
	f.svc = volunteers.NewService(volunteers.Deps{
		Store:      f.store,
		Regions:    f.regions,
		Zones:      f.zones,
		Facilities: f.facilities,
		Inmates:    f.inmates,
		Meetings:   f.meetings,
		Photos:     f.photos,
		Mail:       f.mail,
		BaseURL:    "https://gate.example.org",
		Log:        zap.NewNop(),
	})
	return f
}

func (f *fixture) volunteerDoc(t *testing.T, userID string) bson.M {
	t.Helper()
	for _, d := range f.docs.Docs("users") {
		if d["userID"] == userID {
			return d
		}
	}
	t.Fatalf("volunteer %s not stored", userID)
	return nil
}

var actor = volunteers.Actor{UserID: "admin-1", Username: "admin", Email: "admin@example.org", Region: "East"}

func TestUpsert_CreateRequiresUsernameAndEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Upsert(context.Background(), actor, bson.M{"firstName": "Ann"})
	var verrs volunteers.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if len(verrs) != 2 {
		t.Fatalf("expected 2 validation errors, got %d: %v", len(verrs), verrs)
	}
}

func TestUpsert_CreateRejectsTakenUsername(t *testing.T) {
	f := newFixture(t)
	f.docs.Seed("users", bson.M{"userID": "u1", "username": "ann"})
	_, err := f.svc.Upsert(context.Background(), actor, bson.M{
		"username": "ann",
		"email":    "ann2@example.org",
	})
	var verrs volunteers.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if !strings.Contains(verrs.Error(), "already in use") {
		t.Fatalf("unexpected errors: %v", verrs)
	}
}

func TestUpsert_CreateAddsRegionContact(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.Upsert(context.Background(), actor, bson.M{
		"username":       "ann",
		"email":          "ann@example.org",
		"role":           "region",
		"regionName":     "East",
		"primaryContact": true,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	userID, _ := created["userID"].(string)
	if userID == "" {
		t.Fatal("created volunteer has no userID")
	}
	if len(f.regions.added) != 1 {
		t.Fatalf("expected 1 region contact add, got %d", len(f.regions.added))
	}
	got := f.regions.added[0]
	if got.Key != "East" || got.UserID != userID || !got.Primary {
		t.Fatalf("unexpected region contact call: %+v", got)
	}
}

func TestUpsert_RoleChangeMovesContactAndRegeneratesSecurity(t *testing.T) {
	f := newFixture(t)
	f.docs.Seed("users", bson.M{
		"userID": "u1", "username": "ann", "email": "ann@example.org",
		"role": "region",
		"security": bson.A{bson.M{"module": "volunteers", "access": "readWrite", "level": "regional"}},
	})
	f.docs.Seed("regions", bson.M{"region": "East", "contactID": "u1"})

	updated, err := f.svc.Upsert(context.Background(), actor, bson.M{
		"userID":         "u1",
		"role":           "zone",
		"zoneId":         "z1",
		"primaryContact": true,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if updated["role"] != "zone" {
		t.Fatalf("role = %v, want zone", updated["role"])
	}

	if len(f.regions.removed) != 1 || f.regions.removed[0].Key != "East" {
		t.Fatalf("expected removal from region East, got %+v", f.regions.removed)
	}
	if len(f.zones.added) != 1 || f.zones.added[0].Key != "z1" || !f.zones.added[0].Primary {
		t.Fatalf("expected primary contact add on zone z1, got %+v", f.zones.added)
	}

	stored := f.volunteerDoc(t, "u1")
	sec, _ := stored["security"].(bson.A)
	if len(sec) == 0 {
		t.Fatal("role change did not regenerate the security matrix")
	}
	for _, raw := range sec {
		m, _ := raw.(bson.M)
		if m["level"] == "regional" {
			t.Fatalf("stale regional security assignment survived: %v", sec)
		}
	}
}

func TestUpsert_ContactSyncFailureKeepsPrimaryWrite(t *testing.T) {
	f := newFixture(t)
	f.docs.Seed("users", bson.M{
		"userID": "u1", "username": "ann", "email": "ann@example.org", "role": "volunteer",
	})
	f.regions.addErr = errors.New("region store down")

	updated, err := f.svc.Upsert(context.Background(), actor, bson.M{
		"userID":         "u1",
		"role":           "region",
		"regionName":     "East",
		"primaryContact": true,
	})
	if err == nil {
		t.Fatal("expected contact sync error")
	}
	if updated == nil {
		t.Fatal("primary write should be returned despite the sync failure")
	}
	if f.volunteerDoc(t, "u1")["role"] != "region" {
		t.Fatal("primary write was not applied")
	}

	// Replaying the same change after the collaborator recovers converges
	// the back-references.
	f.regions.addErr = nil
	if _, err := f.svc.Upsert(context.Background(), actor, bson.M{
		"userID":         "u1",
		"role":           "region",
		"regionName":     "East",
		"primaryContact": true,
	}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(f.regions.added) != 1 || f.regions.added[0].Key != "East" {
		t.Fatalf("replay did not add the region contact: %+v", f.regions.added)
	}
}

func TestUpsert_WithdrawingInterestRevokesInmateAccess(t *testing.T) {
	f := newFixture(t)
	f.docs.Seed("users", bson.M{
		"userID": "u1", "username": "ann", "email": "ann@example.org",
		"facilities": bson.A{bson.M{
			"facilityID": "f1",
			"assignments": bson.M{
				"contact": true, "correspondence": true,
				"inPersonVisits": true, "iclw": true, "meetings": true,
			},
		}},
	})

	if _, err := f.svc.Upsert(context.Background(), actor, bson.M{
		"userID":            "u1",
		"isAllowedInterest": false,
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	stored := f.volunteerDoc(t, "u1")
	facilities, _ := stored["facilities"].([]any)
	if len(facilities) != 1 {
		t.Fatalf("expected 1 facility assignment, got %d", len(facilities))
	}
	a, _ := facilities[0].(bson.M)["assignments"].(bson.M)
	if a["contact"] != true || a["iclw"] != true {
		t.Fatalf("contact/iclw flags should survive: %v", a)
	}
	if a["correspondence"] != false || a["inPersonVisits"] != false || a["meetings"] != false {
		t.Fatalf("inmate-facing flags should be cleared: %v", a)
	}
	if len(f.meetings.declined) != 1 || f.meetings.declined[0] != "u1" {
		t.Fatalf("expected meeting parts declined for u1, got %v", f.meetings.declined)
	}
}

func TestDeactivate_RemovesAccessThenFlagsDeleted(t *testing.T) {
	f := newFixture(t)
	f.docs.Seed("users", bson.M{
		"userID": "u1", "email": "ann@example.org",
		"facilities": bson.A{bson.M{
			"facilityID":  "f1",
			"assignments": bson.M{"contact": true, "correspondence": true, "inPersonVisits": false},
		}},
	})

	if err := f.svc.Deactivate(context.Background(), actor, "u1"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	if len(f.facilities.removed) != 1 || f.facilities.removed[0].Key != "f1" {
		t.Fatalf("expected contact removal at f1, got %+v", f.facilities.removed)
	}
	if len(f.inmates.removedCorr) != 1 {
		t.Fatalf("expected 1 correspondence removal, got %d", len(f.inmates.removedCorr))
	}
	if len(f.inmates.removedVisits) != 0 {
		t.Fatalf("inactive in-person flag should not trigger a removal")
	}
	if len(f.meetings.declined) != 1 {
		t.Fatal("expected meeting parts declined")
	}

	stored := f.volunteerDoc(t, "u1")
	if stored["deleted"] != true || stored["status"] != "inactive" {
		t.Fatalf("record not soft-deleted: deleted=%v status=%v", stored["deleted"], stored["status"])
	}
	if facilities, _ := stored["facilities"].(bson.A); len(facilities) != 0 {
		t.Fatalf("facility assignments should be cleared, got %v", facilities)
	}
}

func TestDeactivate_CleanupFailureLeavesRecordActive(t *testing.T) {
	f := newFixture(t)
	f.docs.Seed("users", bson.M{
		"userID": "u1", "email": "ann@example.org",
		"facilities": bson.A{bson.M{
			"facilityID":  "f1",
			"assignments": bson.M{"correspondence": true},
		}},
	})
	f.inmates.removeErr = errors.New("inmate store down")

	if err := f.svc.Deactivate(context.Background(), actor, "u1"); err == nil {
		t.Fatal("expected cleanup failure")
	}
	if stored := f.volunteerDoc(t, "u1"); stored["deleted"] == true {
		t.Fatal("record must stay active when cleanup is incomplete")
	}
}

func TestDeactivate_NotFound(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.Deactivate(context.Background(), actor, "missing"); !errors.Is(err, volunteerstore.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestList_SignsPhotoLinksAndToleratesFailures(t *testing.T) {
	f := newFixture(t)
	f.docs.Seed("users",
		bson.M{"userID": "u1", "lastName": "Alpha", "photoLink": "k1"},
		bson.M{"userID": "u2", "lastName": "Beta", "photoLink": "k2"},
		bson.M{"userID": "u3", "lastName": "Gamma"},
	)
	f.photos.failKeys["k2"] = true

	res, err := f.svc.List(context.Background(), actor, volunteerstore.ListRequest{
		SortKey: "lastName",
		Page:    query.Page{Limit: 10},
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(res.Data) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(res.Data))
	}
	byID := map[any]bson.M{}
	for _, row := range res.Data {
		byID[row["userID"]] = row
	}
	if got := byID["u1"]["photoLink"]; got != "https://signed.example.org/k1" {
		t.Fatalf("u1 photoLink = %v", got)
	}
	if got := byID["u2"]["photoLink"]; got != nil {
		t.Fatalf("failed signing should null the link, got %v", got)
	}
}

func TestResetPassword_SendsResetLink(t *testing.T) {
	f := newFixture(t)
	f.docs.Seed("users", bson.M{"userID": "u1", "username": "ann", "email": "ann@example.org"})

	if err := f.svc.ResetPassword(context.Background(), actor, "u1"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if len(f.mail.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(f.mail.sent))
	}
	msg := f.mail.sent[0]
	if msg.To != "ann@example.org" {
		t.Fatalf("To = %q", msg.To)
	}
	if !strings.Contains(msg.TextBody, "https://gate.example.org/reset-password?user=u1") {
		t.Fatalf("reset link missing from body:\n%s", msg.TextBody)
	}
}

func TestResetPassword_NotFound(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.ResetPassword(context.Background(), actor, "missing"); !errors.Is(err, volunteerstore.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResendWelcomeEmail_StoresHashAndSendsCredential(t *testing.T) {
	f := newFixture(t)
	f.docs.Seed("users", bson.M{"userID": "u1", "username": "ann", "email": "ann@example.org"})

	updated, err := f.svc.ResendWelcomeEmail(context.Background(), actor, "u1")
	if err != nil {
		t.Fatalf("ResendWelcomeEmail: %v", err)
	}
	if updated["lastWelcomeEmailSentByUserID"] != actor.UserID {
		t.Fatalf("audit actor = %v", updated["lastWelcomeEmailSentByUserID"])
	}
	if _, ok := updated["lastWelcomeEmailSentDate"].(time.Time); !ok {
		t.Fatalf("audit date missing: %v", updated["lastWelcomeEmailSentDate"])
	}
	if len(f.mail.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(f.mail.sent))
	}
	msg := f.mail.sent[0]
	if msg.To != "ann@example.org" || !strings.Contains(msg.TextBody, "ann") {
		t.Fatalf("unexpected message: to=%q body=%q", msg.To, msg.TextBody)
	}

	// The emailed temporary password must verify against the stored hash.
	password := passwordFromBody(t, msg.TextBody)
	hash, _ := f.volunteerDoc(t, "u1")["password"].(string)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		t.Fatalf("stored hash does not match emailed password: %v", err)
	}
}

func passwordFromBody(t *testing.T, body string) string {
	t.Helper()
	for _, line := range strings.Split(body, "\n") {
		if rest, ok := strings.CutPrefix(line, "Temporary password: "); ok {
			return strings.TrimSpace(rest)
		}
	}
	t.Fatalf("no temporary password line in body:\n%s", body)
	return ""
}
