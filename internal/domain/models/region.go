// internal/domain/models/region.go
package models

import "time"

// Region is the widest oversight scope. Regions are keyed by their name (the
// "region" field); volunteers reference it through their own region field.
// ContactID and AssistantContacts are volunteer-userID back-references
// maintained by the mutation orchestrator.
type Region struct {
	RegionID string `bson:"regionID" json:"regionID"`
	Region   string `bson:"region" json:"region"`

	ContactID         string   `bson:"contactID" json:"contactID"`
	AssistantContacts []string `bson:"assistantContacts" json:"assistantContacts"`

	Created    *time.Time `bson:"created" json:"created"`
	CreatedBy  string     `bson:"createdBy" json:"createdBy"`
	Modified   *time.Time `bson:"modified" json:"modified"`
	ModifiedBy string     `bson:"modifiedBy" json:"modifiedBy"`
	Deleted    bool       `bson:"deleted" json:"deleted"`
}
