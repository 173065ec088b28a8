package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gateaccess/gateaccess/internal/app/store/docs"
	"github.com/gateaccess/gateaccess/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for seeding test data into a real
// database obtained from SetupTestDB. Fake-backed tests seed FakeDocs
// directly; these helpers are for the opt-in integration runs.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateRegion inserts a region document with no contact.
func (f *Fixtures) CreateRegion(ctx context.Context, name string) models.Region {
	f.t.Helper()

	now := time.Now().UTC()
	region := models.Region{
		RegionID: uuid.NewString(),
		Region:   name,
		Created:  &now,
	}
	if _, err := f.db.Collection(docs.CollRegions).InsertOne(ctx, region); err != nil {
		f.t.Fatalf("create region %q: %v", name, err)
	}
	return region
}

// CreateZone inserts a zone in the given region with no contacts.
func (f *Fixtures) CreateZone(ctx context.Context, name, region string) models.Zone {
	f.t.Helper()

	now := time.Now().UTC()
	zone := models.Zone{
		ZoneID:   uuid.NewString(),
		ZoneName: name,
		Region:   region,
		Created:  &now,
	}
	if _, err := f.db.Collection(docs.CollZones).InsertOne(ctx, zone); err != nil {
		f.t.Fatalf("create zone %q: %v", name, err)
	}
	return zone
}

// CreateFacility inserts a facility in the given zone with no contacts.
func (f *Fixtures) CreateFacility(ctx context.Context, name string, zone models.Zone) models.Facility {
	f.t.Helper()

	now := time.Now().UTC()
	fac := models.Facility{
		FacilityID:   uuid.NewString(),
		LocationName: name,
		Type:         "state",
		Gender:       "male",
		Region:       zone.Region,
		ZoneID:       zone.ZoneID,
		Created:      &now,
	}
	if _, err := f.db.Collection(docs.CollFacilities).InsertOne(ctx, fac); err != nil {
		f.t.Fatalf("create facility %q: %v", name, err)
	}
	return fac
}

// CreateVolunteer inserts an approved volunteer with the given role and no
// facility assignments. Username and email derive from the name.
func (f *Fixtures) CreateVolunteer(ctx context.Context, name, role, region string) models.Volunteer {
	f.t.Helper()

	now := time.Now().UTC()
	v := models.Volunteer{
		UserID:    uuid.NewString(),
		Username:  name,
		Email:     name + "@test.com",
		FirstName: name,
		LastName:  "Test",
		Region:    region,
		Role:      role,
		Status:    "approved",
		Security:  models.DefaultSecurity(role),
		Created:   &now,
	}
	if _, err := f.db.Collection(docs.CollVolunteers).InsertOne(ctx, v); err != nil {
		f.t.Fatalf("create volunteer %q: %v", name, err)
	}
	return v
}

// AssignFacility appends a facility assignment to the volunteer's embedded
// list and returns the updated value.
func (f *Fixtures) AssignFacility(ctx context.Context, v models.Volunteer, fac models.Facility, flags models.AssignmentFlags) models.Volunteer {
	f.t.Helper()

	entry := models.FacilityAssignment{
		FacilityID:  fac.FacilityID,
		Gender:      fac.Gender,
		Assignments: flags,
	}
	v.Facilities = append(v.Facilities, entry)
	_, err := f.db.Collection(docs.CollVolunteers).UpdateOne(ctx,
		bson.M{"userID": v.UserID},
		bson.M{"$push": bson.M{"facilities": entry}})
	if err != nil {
		f.t.Fatalf("assign facility %q to %q: %v", fac.FacilityID, v.UserID, err)
	}
	return v
}
