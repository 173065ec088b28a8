// internal/domain/models/congregation.go
package models

// Congregation links volunteers to zones: a volunteer belongs to one
// congregation, a congregation serves one or more zones.
type Congregation struct {
	CongregationID     string    `bson:"congregationID" json:"congregationID"`
	CongregationName   string    `bson:"congregationName" json:"congregationName"`
	CongregationNumber string    `bson:"congregationNumber" json:"congregationNumber"`
	CircuitID          string    `bson:"circuitID" json:"circuitID"`
	LanguageID         string    `bson:"languageID" json:"languageID"`
	Zones              []ZoneRef `bson:"zones" json:"zones"`

	CongregationAddress []Address `bson:"congregationAddress" json:"congregationAddress"`

	Deleted bool `bson:"deleted" json:"deleted"`
}

// ZoneRef is a congregation's membership in a zone.
type ZoneRef struct {
	ZoneID string `bson:"zoneID" json:"zoneID"`
}

// Address is a mailing address entry.
type Address struct {
	Address string `bson:"address" json:"address"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state" json:"state"`
	ZipCode string `bson:"zipCode" json:"zipCode"`
}
