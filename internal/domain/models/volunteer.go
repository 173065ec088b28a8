// internal/domain/models/volunteer.go
package models

import "time"

// Volunteer is the primary entity of the service. It lives in the "users"
// collection and carries embedded facility assignments and per-module
// security assignments. Identity is the opaque UserID, not the Mongo _id.
//
// NOTE:
//   - Region/zone contact-ness is NOT stored here; it is derived from the
//     back-references on the Region and Zone documents (contactID,
//     assistantContacts). Keeping a single source of truth there is what the
//     mutation orchestrator exists to protect.
//   - Volunteers are soft-deleted in production (Deleted flag); hard deletes
//     are a non-production escape hatch.
type Volunteer struct {
	UserID   string `bson:"userID" json:"userID"`
	Username string `bson:"username" json:"username"`
	Password string `bson:"password,omitempty" json:"-"`
	Email    string `bson:"email" json:"email"`

	FirstName string `bson:"firstName" json:"firstName"`
	LastName  string `bson:"lastName" json:"lastName"`
	Address   string `bson:"address" json:"address"`
	City      string `bson:"city" json:"city"`
	State     string `bson:"state" json:"state"`
	ZipCode   string `bson:"zipCode" json:"zipCode"`
	Phone     string `bson:"phone" json:"phone"`
	HomePhone string `bson:"homePhone" json:"homePhone"`

	Region          string `bson:"region" json:"region"`
	CongregationID  string `bson:"congregationID" json:"congregationID"`
	Role            string `bson:"role" json:"role"`
	Status          string `bson:"status" json:"status"`
	VolunteerGender string `bson:"volunteerGender" json:"volunteerGender"`

	Language      []LanguageSkill `bson:"language" json:"language"`
	UILanguage    string          `bson:"uiLanguage" json:"uiLanguage"`
	MaritalStatus string          `bson:"maritalStatus" json:"maritalStatus"`
	BirthDate     *time.Time      `bson:"birthDate" json:"birthDate"`
	BaptismDate   *time.Time      `bson:"baptismDate" json:"baptismDate"`

	Facilities []FacilityAssignment `bson:"facilities" json:"facilities"`
	Security   []SecurityAssignment `bson:"security" json:"security"`

	PhotoLink string `bson:"photoLink" json:"photoLink"`

	IsICLWContact   bool `bson:"isICLWContact" json:"isICLWContact"`
	IsICLWVolunteer bool `bson:"isICLWVolunteer" json:"isICLWVolunteer"`
	IsAdmin         bool `bson:"isAdmin" json:"isAdmin"`
	IsBranchRep     bool `bson:"isBranchRep" json:"isBranchRep"`

	ApprovedDate     *time.Time `bson:"approvedDate" json:"approvedDate"`
	ApprovedByUserID string     `bson:"approvedByUserID" json:"approvedByUserID"`

	Created    *time.Time `bson:"created" json:"created"`
	CreatedBy  string     `bson:"createdBy" json:"createdBy"`
	Modified   *time.Time `bson:"modified" json:"modified"`
	ModifiedBy string     `bson:"modifiedBy" json:"modifiedBy"`

	Deleted     bool       `bson:"deleted" json:"deleted"`
	DeletedDate *time.Time `bson:"deletedDate" json:"deletedDate"`
	DeletedBy   string     `bson:"deletedBy" json:"deletedBy"`
}

// LanguageSkill records one spoken language and proficiency for a volunteer.
type LanguageSkill struct {
	LanguageID  string `bson:"languageID" json:"languageID"`
	Proficiency string `bson:"proficiency" json:"proficiency"`
}

// FacilityAssignment is one entry of a volunteer's embedded facility list:
// the volunteer is approved for this facility with the listed assignment
// flags. At most one volunteer may hold Assignments.Contact with a primary
// designation per facility; the facility's overseer back-reference enforces
// that exclusivity.
type FacilityAssignment struct {
	FacilityID      string          `bson:"facilityID" json:"facilityID"`
	Gender          string          `bson:"gender" json:"gender"`
	BadgeExpiration *time.Time      `bson:"badgeExpiration" json:"badgeExpiration"`
	Assignments     AssignmentFlags `bson:"assignments" json:"assignments"`
}

// AssignmentFlags are the per-facility approval switches.
type AssignmentFlags struct {
	Contact        bool `bson:"contact" json:"contact"`
	Correspondence bool `bson:"correspondence" json:"correspondence"`
	InPersonVisits bool `bson:"inPersonVisits" json:"inPersonVisits"`
	ICLW           bool `bson:"iclw" json:"iclw"`
	Meetings       bool `bson:"meetings" json:"meetings"`
}

// SecurityAssignment grants one access level for one application module.
type SecurityAssignment struct {
	Module string `bson:"module" json:"module"`
	Access string `bson:"access" json:"access"`
	Level  string `bson:"level" json:"level"`
}
