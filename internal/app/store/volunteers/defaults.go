// internal/app/store/volunteers/defaults.go
package volunteers

import "go.mongodb.org/mongo-driver/bson"

// volunteerDefaults is the full field template for a volunteer. Single-entity
// fetches and inserts merge against it so callers can rely on every field
// being present; the merge never overwrites a stored value.
var volunteerDefaults = bson.M{
	"userID":                       nil,
	"username":                     nil,
	"password":                     nil,
	"email":                        nil,
	"firstName":                    nil,
	"lastName":                     nil,
	"address":                      nil,
	"city":                         nil,
	"state":                        nil,
	"zipCode":                      nil,
	"phone":                        nil,
	"homePhone":                    nil,
	"region":                       nil,
	"lastAccess":                   nil,
	"tbTestingDate":                nil,
	"status":                       nil,
	"role":                         nil,
	"volunteerGender":              nil,
	"congregationID":               nil,
	"emergencyContact":             nil,
	"emergencyContactRelationship": nil,
	"emergencyContactNumber":       nil,
	"applicantVolunteer":           nil,
	"language":                     bson.A{},
	"uiLanguage":                   "en",
	"birthDate":                    nil,
	"baptismDate":                  nil,
	"maritalStatus":                nil,
	"appointment":                  bson.A{},
	"applicantID":                  nil,
	"facilities":                   bson.A{},
	"timeOff":                      bson.A{},
	"recurringAccess":              bson.A{},
	"textOptIn":                    false,
	"communicationInfo":            nil,
	"serviceProviderID":            nil,
	"photoLink":                    nil,
	"security":                     bson.A{},
	"isICLWContact":                false,
	"isICLWVolunteer":              false,
	"approvedDate":                 nil,
	"approvedByUserID":             nil,
	"created":                      nil,
	"createdBy":                    nil,
	"modified":                     nil,
	"modifiedBy":                   nil,
	"deleted":                      false,
	"deletedDate":                  nil,
	"deletedBy":                    nil,
	"isTester":                     false,
	"isAdmin":                      false,
	"isBranchRep":                  false,
}

// FacilityAssignmentDefaults fills a new facility assignment entry.
func FacilityAssignmentDefaults() bson.M {
	return bson.M{
		"gender":          nil,
		"badgeExpiration": nil,
		"assignments":     bson.M{},
	}
}

// MergeDefaults returns doc with every missing default populated. Present
// fields, including explicit nulls, are kept as stored.
func MergeDefaults(doc, defaults bson.M) bson.M {
	out := make(bson.M, len(defaults)+len(doc))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range doc {
		out[k] = v
	}
	return out
}
