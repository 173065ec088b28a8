// internal/domain/models/zone.go
package models

import "time"

// Zone groups congregations and facilities under shared oversight.
// ContactID and AssistantContacts are volunteer-userID back-references
// maintained by the mutation orchestrator.
type Zone struct {
	ZoneID   string `bson:"zoneID" json:"zoneID"`
	ZoneName string `bson:"zoneName" json:"zoneName"`
	Region   string `bson:"region" json:"region"`

	ContactID         string   `bson:"contactID" json:"contactID"`
	AssistantContacts []string `bson:"assistantContacts" json:"assistantContacts"`

	ZoneTerritories []ZoneTerritory `bson:"zoneTerritories" json:"zoneTerritories"`

	Created    *time.Time `bson:"created" json:"created"`
	CreatedBy  string     `bson:"createdBy" json:"createdBy"`
	Modified   *time.Time `bson:"modified" json:"modified"`
	ModifiedBy string     `bson:"modifiedBy" json:"modifiedBy"`
	Deleted    bool       `bson:"deleted" json:"deleted"`
}

// ZoneTerritory is one geographic territory inside a zone.
type ZoneTerritory struct {
	TerritoryID  string `bson:"territoryID" json:"territoryID"`
	Name         string `bson:"name" json:"name"`
	Abbreviation string `bson:"abbreviation" json:"abbreviation"`
}
