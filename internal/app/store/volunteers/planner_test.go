// internal/app/store/volunteers/planner_test.go
package volunteers_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/gateaccess/gateaccess/internal/app/query"
	"github.com/gateaccess/gateaccess/internal/app/store/volunteers"
)

// lookupTargets lists the "as" names of every join in a compiled pipeline.
func lookupTargets(t *testing.T, p *query.Pipeline) map[string]bool {
	t.Helper()
	out := map[string]bool{}
	for _, stage := range p.Compile() {
		for _, el := range stage {
			if el.Key != "$lookup" {
				continue
			}
			spec, ok := el.Value.(bson.M)
			if !ok {
				t.Fatalf("lookup spec has type %T", el.Value)
			}
			out[spec["as"].(string)] = true
		}
	}
	return out
}

func TestPlanNoCriteriaNoColumnsJoinsNothing(t *testing.T) {
	c := query.New().Set("userID", query.Scalar("u1"))
	joins := lookupTargets(t, volunteers.Plan(c, nil, "name"))
	if len(joins) != 0 {
		t.Fatalf("expected no joins, got %v", joins)
	}
}

func TestPlanCriteriaForceJoin(t *testing.T) {
	c := query.New()
	c.SetNested(volunteers.StageRegion, query.New().Set("regionID", query.Scalar("r1")))
	joins := lookupTargets(t, volunteers.Plan(c, nil, "name"))
	if !joins[volunteers.StageRegion] {
		t.Fatalf("region criterion did not include region join: %v", joins)
	}
	if joins[volunteers.StageZone] || joins[volunteers.StageCongregation] {
		t.Fatalf("unrelated joins included: %v", joins)
	}
}

func TestPlanColumnsForceJoin(t *testing.T) {
	c := query.New().Set("userID", query.Scalar("u1"))
	joins := lookupTargets(t, volunteers.Plan(c, []string{"congregation.congregationName"}, "name"))
	if !joins[volunteers.StageCongregation] {
		t.Fatalf("congregation column did not include congregation join: %v", joins)
	}
}

func TestPlanZoneRequiresCongregation(t *testing.T) {
	c := query.New()
	c.SetNested(volunteers.StageZone, query.New().Set("zoneID", query.Scalar("z1")))
	joins := lookupTargets(t, volunteers.Plan(c, nil, "name"))
	if !joins[volunteers.StageCongregation] {
		t.Fatalf("zone criterion must pull in the congregation join: %v", joins)
	}
	if !joins[volunteers.StageZone] {
		t.Fatalf("zone join missing: %v", joins)
	}
}

func TestPlanFacilityPrimaryContactRequiresFacilities(t *testing.T) {
	c := query.New()
	c.SetNested(volunteers.StageFacilityPrimaryContact,
		query.New().Set("email", query.Scalar("a@b.c")))
	joins := lookupTargets(t, volunteers.Plan(c, nil, "name"))
	if !joins["joinedFacilities"] {
		t.Fatalf("primary-contact criterion must pull in the facility merge: %v", joins)
	}
	if !joins[volunteers.StageFacilityPrimaryContact] {
		t.Fatalf("primary-contact join missing: %v", joins)
	}
}

func TestPlanContactJoinsFromColumns(t *testing.T) {
	c := query.New().Set("userID", query.Scalar("u1"))
	columns := []string{
		volunteers.StagePrimaryContactZones + ".zoneID",
		volunteers.StageAssistantContactRegions + ".regionName",
	}
	joins := lookupTargets(t, volunteers.Plan(c, columns, "name"))
	for _, want := range []string{
		volunteers.StagePrimaryContactZones,
		volunteers.StageAssistantContactZones,
		volunteers.StagePrimaryContactRegions,
		volunteers.StageAssistantContactRegions,
	} {
		if !joins[want] {
			t.Fatalf("missing contact join %s: %v", want, joins)
		}
	}
}

func TestPlanEmptyNestedCriterionIsAbsent(t *testing.T) {
	c := query.New().Set("userID", query.Scalar("u1"))
	c.SetNested(volunteers.StageRegion, query.New())
	joins := lookupTargets(t, volunteers.Plan(c, nil, "name"))
	if joins[volunteers.StageRegion] {
		t.Fatalf("empty nested criterion must not force a join")
	}
}

func TestPlanSecurityStageFromCriterion(t *testing.T) {
	key := volunteers.SecurityStageName("facilities")
	c := query.New()
	c.SetNested(key, query.New().Set("access", query.Scalar("write")))
	compiled := volunteers.Plan(c, nil, "name").Compile()
	var found bool
	for _, stage := range compiled {
		for _, el := range stage {
			if el.Key != "$addFields" {
				continue
			}
			if fields, ok := el.Value.(bson.M); ok {
				if _, ok := fields[key]; ok {
					found = true
				}
			}
		}
	}
	if !found {
		t.Fatalf("security stage for %s not emitted", key)
	}
}

func TestPlanSoftDeleteGuard(t *testing.T) {
	c := query.New().Set("userID", query.Scalar("u1"))
	compiled := volunteers.Plan(c, nil, "name").Compile()
	var guarded bool
	for _, stage := range compiled {
		for _, el := range stage {
			if el.Key != "$match" {
				continue
			}
			m := el.Value.(bson.M)
			ands, _ := m["$and"].([]bson.M)
			for _, cond := range ands {
				if del, ok := cond["deleted"].(bson.M); ok {
					if del["$ne"] == true {
						guarded = true
					}
				}
			}
		}
	}
	if !guarded {
		t.Fatalf("default soft-delete exclusion missing")
	}

	// An explicit deleted criterion disables the guard.
	c2 := query.New().Set("deleted", query.Scalar(true))
	for _, stage := range volunteers.Plan(c2, nil, "name").Compile() {
		for _, el := range stage {
			if el.Key != "$match" {
				continue
			}
			ands, _ := el.Value.(bson.M)["$and"].([]bson.M)
			for _, cond := range ands {
				if del, ok := cond["deleted"].(bson.M); ok && del["$ne"] == true {
					t.Fatalf("guard emitted despite explicit deleted criterion")
				}
			}
		}
	}
}
