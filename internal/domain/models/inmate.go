// internal/domain/models/inmate.go
package models

// Inmate is the person-tracking entity. Only the fields this core reads are
// modeled; the inmates feature owns the full document.
type Inmate struct {
	InmateID     string `bson:"inmateID" json:"inmateID"`
	FirstName    string `bson:"firstName" json:"firstName"`
	MiddleName   string `bson:"middleName" json:"middleName"`
	LastName     string `bson:"lastName" json:"lastName"`
	InmateNumber string `bson:"inmateNumber" json:"inmateNumber"`
	FacilityID   string `bson:"facilityID" json:"facilityID"`
	PhotoLink    string `bson:"photoLink" json:"photoLink"`

	AssignedCorrespondence []VolunteerRef `bson:"assignedCorrespondence" json:"assignedCorrespondence"`
	AssignedInPerson       []VolunteerRef `bson:"assignedInPerson" json:"assignedInPerson"`

	Deleted bool `bson:"deleted" json:"deleted"`
}

// VolunteerRef points an association at a volunteer.
type VolunteerRef struct {
	UserID string `bson:"userID" json:"userID"`
}
