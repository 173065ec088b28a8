// internal/domain/models/meeting.go
package models

import "time"

// Meeting is a scheduled event at a facility with assigned parts.
type Meeting struct {
	MeetingID   string        `bson:"meetingID" json:"meetingID"`
	FacilityID  string        `bson:"facilityID" json:"facilityID"`
	MeetingDate *time.Time    `bson:"meetingDate" json:"meetingDate"`
	Parts       []MeetingPart `bson:"parts" json:"parts"`

	Deleted bool `bson:"deleted" json:"deleted"`
}

// MeetingPart is one assignment inside a meeting.
type MeetingPart struct {
	PartID         string `bson:"partID" json:"partID"`
	AssignedUserID string `bson:"assignedUserID" json:"assignedUserID"`
}
