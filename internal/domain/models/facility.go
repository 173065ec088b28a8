// internal/domain/models/facility.go
package models

import "time"

// Facility is a correctional facility volunteers can be assigned to.
//
// Contact back-references:
//   - Overseer holds the EMAIL of the single primary contact (historical
//     artifact of the data set; lookups to the users collection join on
//     email).
//   - AssistantContacts holds the userIDs of assistant contacts.
//
// The mutation orchestrator is the only writer of these two fields.
type Facility struct {
	FacilityID   string `bson:"facilityID" json:"facilityID"`
	ExternalID   string `bson:"externalID" json:"externalID"`
	LocationName string `bson:"locationName" json:"locationName"`
	AgencyType   string `bson:"agencyType" json:"agencyType"`
	Type         string `bson:"type" json:"type"`
	Gender       string `bson:"gender" json:"gender"`

	Address string `bson:"address" json:"address"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state" json:"state"`
	ZipCode string `bson:"zipCode" json:"zipCode"`

	Region string `bson:"region" json:"region"`
	ZoneID string `bson:"zoneID" json:"zoneID"`

	Overseer          string   `bson:"overseer" json:"overseer"`
	AssistantContacts []string `bson:"assistantContacts" json:"assistantContacts"`

	Created    *time.Time `bson:"created" json:"created"`
	CreatedBy  string     `bson:"createdBy" json:"createdBy"`
	Modified   *time.Time `bson:"modified" json:"modified"`
	ModifiedBy string     `bson:"modifiedBy" json:"modifiedBy"`
	Deleted    bool       `bson:"deleted" json:"deleted"`
}
