// internal/domain/models/document.go
package models

import "time"

// Document is an uploaded file associated with a volunteer (keyed by the
// volunteer's email in AssociationName). The binary lives in the object
// store; DocumentLink is the object key.
type Document struct {
	DocumentID          string `bson:"documentID" json:"documentID"`
	DocumentLink        string `bson:"documentLink" json:"documentLink"`
	DocumentType        string `bson:"documentType" json:"documentType"`
	DocumentAssociation string `bson:"documentAssociation" json:"documentAssociation"`
	AssociationName     string `bson:"associationName" json:"associationName"`
	DocumentDescription string `bson:"documentDescription" json:"documentDescription"`
	DocumentOwner       string `bson:"documentOwner" json:"documentOwner"`

	Created    *time.Time `bson:"created" json:"created"`
	CreatedBy  string     `bson:"createdBy" json:"createdBy"`
	Modified   *time.Time `bson:"modified" json:"modified"`
	ModifiedBy string     `bson:"modifiedBy" json:"modifiedBy"`

	Deleted     bool       `bson:"deleted" json:"deleted"`
	DeletedDate *time.Time `bson:"deletedDate" json:"deletedDate"`
	DeletedBy   string     `bson:"deletedBy" json:"deletedBy"`
}
