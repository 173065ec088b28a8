// internal/app/features/volunteers/service.go
package volunteers

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	facilitystore "github.com/gateaccess/gateaccess/internal/app/store/facilities"
	inmatestore "github.com/gateaccess/gateaccess/internal/app/store/inmates"
	volunteerstore "github.com/gateaccess/gateaccess/internal/app/store/volunteers"
	zonestore "github.com/gateaccess/gateaccess/internal/app/store/zones"
	"github.com/gateaccess/gateaccess/internal/app/system/mailer"
)

// Actor identifies who is performing an operation. Audit stamps and photo
// URL scoping come from here, not from ambient state.
type Actor struct {
	UserID   string
	Username string
	Email    string
	Region   string
}

// RegionContacts is the slice of the region store the orchestrator needs.
type RegionContacts interface {
	AddContact(ctx context.Context, regionName, userID string, primary bool) error
	RemoveContact(ctx context.Context, regionName, userID string) error
}

// ZoneContacts is the slice of the zone store the orchestrator and the
// access assembler need.
type ZoneContacts interface {
	AddContact(ctx context.Context, zoneID, userID string, primary bool) error
	RemoveContact(ctx context.Context, zoneID, userID string) error
	Contacts(ctx context.Context, zoneIDs []string) ([]zonestore.ZoneContact, error)
}

// FacilityContacts is the slice of the facility store used to keep the
// overseer/assistant back-references in step with facility assignments.
type FacilityContacts interface {
	ContactState(ctx context.Context, facilityID string) (*facilitystore.ContactState, error)
	SetPrimaryContact(ctx context.Context, facilityID, email, userID string) error
	AddAssistantContact(ctx context.Context, facilityID, email, userID string) error
	RemoveContact(ctx context.Context, facilityID, email, userID string) error
	Summary(ctx context.Context, facilityID string) (bson.M, error)
}

// InmateAssignments is the person-tracking collaborator: association reads
// for access views and compensating removals.
type InmateAssignments interface {
	AssignedCorrespondence(ctx context.Context, userID string, facilityIDs []string) ([]inmatestore.Assignment, error)
	AssignedInPerson(ctx context.Context, userID string, facilityIDs []string) ([]inmatestore.Assignment, error)
	RemoveCorrespondent(ctx context.Context, userID, facilityID string) error
	RemoveInPersonVisitor(ctx context.Context, userID, facilityID string) error
}

// MeetingSchedule is the event-scheduling collaborator.
type MeetingSchedule interface {
	FutureAssignments(ctx context.Context, userID string, facilityIDs []string, after time.Time) ([]string, error)
	DeclineParts(ctx context.Context, userID string, after time.Time) error
}

// PhotoResolver exchanges a stored object key for a time-limited URL.
type PhotoResolver interface {
	ResolveSignedURL(ctx context.Context, scope, objectKey string) (string, error)
}

// Service is the volunteer core: query compilation and execution through
// the store, and the cross-entity mutation orchestration on writes. All
// collaborators are injected as narrow interfaces.
type Service struct {
	store      *volunteerstore.Store
	regions    RegionContacts
	zones      ZoneContacts
	facilities FacilityContacts
	inmates    InmateAssignments
	meetings   MeetingSchedule
	photos     PhotoResolver
	mail       mailer.Sender
	baseURL    string
	log        *zap.Logger
	now        func() time.Time
}

// Deps carries the collaborators a Service needs.
type Deps struct {
	Store      *volunteerstore.Store
	Regions    RegionContacts
	Zones      ZoneContacts
	Facilities FacilityContacts
	Inmates    InmateAssignments
	Meetings   MeetingSchedule
	Photos     PhotoResolver
	Mail       mailer.Sender
	BaseURL    string
	Log        *zap.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		store:      d.Store,
		regions:    d.Regions,
		zones:      d.Zones,
		facilities: d.Facilities,
		inmates:    d.Inmates,
		meetings:   d.Meetings,
		photos:     d.Photos,
		mail:       d.Mail,
		baseURL:    d.BaseURL,
		log:        d.Log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}
