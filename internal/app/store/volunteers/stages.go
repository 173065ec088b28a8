// internal/app/store/volunteers/stages.go
package volunteers

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/gateaccess/gateaccess/internal/app/query"
	"github.com/gateaccess/gateaccess/internal/domain/models"
)

// Relation stage names. They double as the nested-criterion keys and the
// output column prefixes that drive stage inclusion, so they are part of
// the request vocabulary, not an internal detail.
const (
	StageFacilities              = "facilities"
	StageFacilityPrimaryContact  = "facilityPrimaryContact"
	StageCongregation            = "congregation"
	StageZone                    = "zone"
	StageContactZones            = "contactZones"
	StagePrimaryContactZones     = "primaryContactZones"
	StageAssistantContactZones   = "assistantContactZones"
	StageRegion                  = "region"
	StageContactRegions          = "contactRegions"
	StagePrimaryContactRegions   = "primaryContactRegions"
	StageAssistantContactRegions = "assistantContactRegions"

	// Per-module security stages are named security<Module>.
	StageSecurityPrefix = "security"
)

// allSecurityModules fixes the order per-module security stages appear in.
var allSecurityModules = []string{
	models.ModuleFacilities,
	models.ModuleInmates,
	models.ModuleVolunteers,
	models.ModuleMeetings,
}

// SecurityStageName derives the stage name for a module's security view,
// e.g. "securityFacilities".
func SecurityStageName(module string) string {
	if module == "" {
		return StageSecurityPrefix
	}
	return StageSecurityPrefix + strings.ToUpper(module[:1]) + module[1:]
}

// fieldMatch is one row of a relation's criterion table: which criterion
// field maps onto which stored path, and whether it is matched as a
// case-insensitive substring.
type fieldMatch struct {
	field  string
	target string
	fuzzy  bool
}

// baseFields are matched directly on the volunteer document.
var baseFields = []fieldMatch{
	{"username", "username", false},
	{"email", "email", false},
	{"userID", "userID", false},
	{"firstName", "firstName", true},
	{"lastName", "lastName", true},
	{"city", "city", true},
	{"state", "state", false},
	{"status", "status", false},
	{"role", "role", false},
	{"volunteerGender", "volunteerGender", false},
	{"congregationID", "congregationID", false},
	{"languageID", "language.languageID", false},
	{"languageProficiency", "language.proficiency", false},
	{"maritalStatus", "maritalStatus", false},
	{"deleted", "deleted", false},
	{"isAllowedInterest", "isAllowedInterest", false},
	{"isICLWVolunteer", "isICLWVolunteer", false},
	{"isICLWContact", "isICLWContact", false},
	{"applicantID", "applicantID", false},
	{"appointmentResponsibility", "appointment.responsibility", false},
	{"facilityID", "facilities.facilityID", false},
	{"facilityGender", "facilities.gender", false},
	{"facilityAssignmentContact", "facilities.assignments.contact", false},
	{"facilityAssignmentCorrespondence", "facilities.assignments.correspondence", false},
	{"facilityAssignmentInPerson", "facilities.assignments.inPersonVisits", false},
	{"facilityAssignmentIclw", "facilities.assignments.iclw", false},
	{"facilityAssignmentMeetings", "facilities.assignments.meetings", false},
	{"isAdmin", "isAdmin", false},
	{"isBranchRep", "isBranchRep", false},
	{"gender", "gender", false},
}

// baseRanges are inclusive date-range criterion fields on the volunteer.
var baseRanges = []struct {
	field  string
	target string
	op     string
}{
	{"startBirthDate", "birthDate", "$gte"},
	{"endBirthDate", "birthDate", "$lte"},
	{"startBaptismDate", "baptismDate", "$gte"},
	{"endBaptismDate", "baptismDate", "$lte"},
	{"startBadgeExpirationDate", "facilities.badgeExpiration", "$gte"},
	{"endBadgeExpirationDate", "facilities.badgeExpiration", "$lte"},
}

var facilityFields = []fieldMatch{
	{"locationName", "locationName", true},
	{"state", "state", false},
	{"type", "type", false},
	{"gender", "facilityGender", false},
	{"agencyType", "agencyType", false},
	{"region", "region", false},
	{"externalID", "externalID", false},
	{"primaryContactId", "overseer", false},
	{"assistantContactId", "assistantContacts", false},
}

var congregationFields = []fieldMatch{
	{"circuitID", "circuitID", false},
	{"zoneID", "zoneID", false},
	{"congregationName", "congregationName", true},
	{"congregationNumber", "congregationNumber", false},
	{"languageID", "languageID", false},
}

var zoneFields = []fieldMatch{
	{"zoneID", "zoneID", false},
	{"zoneName", "zoneName", true},
}

var regionFields = []fieldMatch{
	{"regionID", "regionID", false},
	{"primaryContactId", "contactID", false},
	{"assistantContactId", "assistantContacts", false},
}

// computedColumn is a logical output column backed by a derived expression
// rather than a stored field.
type computedColumn struct {
	stage string // "" is the base volunteer stage
	expr  any
}

// columnMap translates logical columns into derived expressions. The
// planner emits the expression as a field-mapping stage when the column is
// requested, sorted on, or filtered on.
var columnMap = map[string]computedColumn{
	"name": {
		stage: "",
		expr: bson.M{"$concat": bson.A{
			bson.M{"$ifNull": bson.A{"$lastName", ""}},
			bson.M{"$cond": bson.M{
				"if":   bson.M{"$ifNull": bson.A{"$firstName", false}},
				"then": ", ",
				"else": "",
			}},
			bson.M{"$ifNull": bson.A{"$firstName", ""}},
		}},
	},
	"lastWelcomeEmailDate": {stage: "", expr: "$approvedDate"},
	"isAllowedInterest":    {stage: "", expr: bson.M{"$ifNull": bson.A{"$isAllowedInterest", false}}},
}

// computedFields collects the derived expressions a stage must materialize
// for the given request: any logical column owned by the stage that the
// caller returns, sorts on, or filters on.
func computedFields(stage string, c *query.Criterion, columns []string, sortKey string) bson.M {
	fields := bson.M{}
	for name, col := range columnMap {
		if col.stage != stage {
			continue
		}
		if query.ColumnsInclude(columns, name) || sortKey == name || c.Has(name) {
			fields[name] = col.expr
		}
	}
	return fields
}

// facilityGenderRemap merges the joined facility documents into the
// volunteer's facility-assignment entries. The facility's own gender field
// collides with the assignment's gender, so it is renamed facilityGender
// before the merge.
type facilityGenderRemap struct{}

func (facilityGenderRemap) Compile() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from":         "facilities",
			"localField":   "facilities.facilityID",
			"foreignField": "facilityID",
			"as":           "joinedFacilities",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"joinedFacilities": bson.M{"$map": bson.M{
				"input": "$joinedFacilities",
				"as":    "f",
				"in": bson.M{"$mergeObjects": bson.A{
					"$$f",
					bson.M{"facilityGender": "$$f.gender"},
				}},
			}},
		}}},
		{{Key: "$project", Value: bson.M{"joinedFacilities.gender": 0}}},
		{{Key: "$addFields", Value: bson.M{
			"facilities": bson.M{"$map": bson.M{
				"input": "$facilities",
				"as":    "f",
				"in": bson.M{"$mergeObjects": bson.A{
					"$$f",
					bson.M{"$arrayElemAt": bson.A{
						bson.M{"$filter": bson.M{
							"input": "$joinedFacilities",
							"as":    "fa",
							"cond":  bson.M{"$eq": bson.A{"$$fa.facilityID", "$$f.facilityID"}},
						}},
						0,
					}},
				}},
			}},
		}}},
		{{Key: "$project", Value: bson.M{"joinedFacilities": 0, "facilities._id": 0}}},
	}
}

// securityModuleStage materializes a per-module view of the security
// assignment list: filter to the module, then unwind so module/level/access
// triples can be matched as scalars.
type securityModuleStage struct {
	Module string
}

func (s securityModuleStage) Compile() []bson.D {
	key := SecurityStageName(s.Module)
	return []bson.D{
		{{Key: "$addFields", Value: bson.M{
			key: bson.M{"$filter": bson.M{
				"input": "$security",
				"as":    "sec",
				"cond":  bson.M{"$eq": bson.A{"$$sec.module", s.Module}},
			}},
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$" + key,
			"preserveNullAndEmptyArrays": true,
		}}},
	}
}
