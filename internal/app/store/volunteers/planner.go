// internal/app/store/volunteers/planner.go
package volunteers

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/gateaccess/gateaccess/internal/app/query"
	"github.com/gateaccess/gateaccess/internal/app/store/docs"
)

// Plan compiles a criteria/columns/sort request into the filtered stage
// prefix shared by the data and count pipelines. A relation's stages are
// included iff the criteria reference the relation or a requested column is
// prefixed by its name; the relation order is fixed because later joins
// read fields produced by earlier ones (zone joins through the congregation
// join's zone references).
func Plan(c *query.Criterion, columns []string, sortKey string) *query.Pipeline {
	p := query.NewPipeline()

	baseStages(p, c, columns, sortKey)

	wantFacilities := c.HasNested(StageFacilities) ||
		c.HasNested(StageFacilityPrimaryContact) ||
		query.ColumnsReference(StageFacilities+".", columns) ||
		query.ColumnsReference(StageFacilityPrimaryContact+".", columns)
	if wantFacilities {
		facilityStages(p, c)
	}

	if c.HasNested(StageFacilityPrimaryContact) ||
		query.ColumnsReference(StageFacilityPrimaryContact+".", columns) {
		facilityPrimaryContactStages(p, c)
	}

	wantZone := c.HasNested(StageZone) || query.ColumnsReference(StageZone+".", columns)
	if c.HasNested(StageCongregation) || wantZone ||
		query.ColumnsReference(StageCongregation+".", columns) {
		congregationStages(p, c)
	}

	if c.HasNested(StageRegion) || query.ColumnsReference(StageRegion+".", columns) {
		regionStages(p, c)
	}

	if c.HasNested(StageContactRegions) ||
		query.ColumnsReference(StagePrimaryContactRegions+".", columns) ||
		query.ColumnsReference(StageAssistantContactRegions+".", columns) {
		contactRegionStages(p, c)
	}

	if wantZone {
		zoneStages(p, c)
	}

	if c.HasNested(StageContactZones) ||
		query.ColumnsReference(StagePrimaryContactZones+".", columns) ||
		query.ColumnsReference(StageAssistantContactZones+".", columns) {
		contactZoneStages(p, c)
	}

	for _, module := range securityModules(c, columns) {
		securityStages(p, c, module)
	}

	if term, ok := c.Field("searchTerm"); ok && !term.IsList() {
		p.Add(searchStage(term.Scalar()))
	}

	return p
}

func baseStages(p *query.Pipeline, c *query.Criterion, columns []string, sortKey string) {
	var matches []bson.M
	for _, f := range baseFields {
		matches = query.AppendMatch(matches, c, f.field, f.target, f.fuzzy)
	}
	// A nested region criterion filters through the region join instead of
	// the volunteer's own region field.
	if !c.HasNested(StageRegion) {
		matches = query.AppendMatch(matches, c, "region", "region", false)
	}
	for _, r := range baseRanges {
		if v, ok := c.Field(r.field); ok && !v.IsList() {
			matches = append(matches, bson.M{r.target: bson.M{r.op: v.Scalar()}})
		}
	}
	// Soft-deleted volunteers are excluded unless asked for explicitly.
	if !c.Has("deleted") {
		matches = append(matches, bson.M{"deleted": bson.M{"$ne": true}})
	}
	p.Add(query.MapFields{Fields: computedFields("", c, columns, sortKey)})
	p.Add(query.Filter{And: matches})
}

func facilityStages(p *query.Pipeline, c *query.Criterion) {
	p.Add(facilityGenderRemap{})
	var matches []bson.M
	if n := c.Nested(StageFacilities); n != nil {
		for _, f := range facilityFields {
			matches = query.AppendMatch(matches, n, f.field, StageFacilities+"."+f.target, f.fuzzy)
		}
	}
	p.Add(query.Filter{And: matches})
}

func facilityPrimaryContactStages(p *query.Pipeline, c *query.Criterion) {
	p.Add(query.Join{
		From:         docs.CollVolunteers,
		LocalField:   "facilities.overseer",
		ForeignField: "email",
		As:           StageFacilityPrimaryContact,
	})
	var matches []bson.M
	if n := c.Nested(StageFacilityPrimaryContact); n != nil {
		for _, field := range []string{"userID", "email"} {
			matches = query.AppendMatch(matches, n, field, StageFacilityPrimaryContact+"."+field, false)
		}
	}
	p.Add(query.Filter{And: matches})
}

func congregationStages(p *query.Pipeline, c *query.Criterion) {
	p.Add(
		query.Join{
			From:         docs.CollCongregations,
			LocalField:   "congregationID",
			ForeignField: "congregationID",
			As:           StageCongregation,
		},
		query.Unwind{Path: StageCongregation, KeepEmpty: true},
	)
	var matches []bson.M
	if n := c.Nested(StageCongregation); n != nil {
		for _, f := range congregationFields {
			matches = query.AppendMatch(matches, n, f.field, StageCongregation+"."+f.target, f.fuzzy)
		}
	}
	p.Add(query.Filter{And: matches})
}

func regionStages(p *query.Pipeline, c *query.Criterion) {
	p.Add(
		query.Join{
			From:         docs.CollRegions,
			LocalField:   "region",
			ForeignField: "region",
			As:           StageRegion,
		},
		query.Unwind{Path: StageRegion, KeepEmpty: true},
	)
	var matches []bson.M
	if n := c.Nested(StageRegion); n != nil {
		for _, f := range regionFields {
			matches = query.AppendMatch(matches, n, f.field, StageRegion+"."+f.target, f.fuzzy)
		}
	}
	p.Add(query.Filter{And: matches})
}

func contactRegionStages(p *query.Pipeline, c *query.Criterion) {
	p.Add(
		query.Join{
			From:         docs.CollRegions,
			LocalField:   "userID",
			ForeignField: "contactID",
			As:           StagePrimaryContactRegions,
		},
		query.Unwind{Path: StagePrimaryContactRegions, KeepEmpty: true},
		query.Join{
			From:         docs.CollRegions,
			LocalField:   "userID",
			ForeignField: "assistantContacts",
			As:           StageAssistantContactRegions,
		},
	)
	var matches []bson.M
	if n := c.Nested(StageContactRegions); n != nil {
		if m, ok := query.MatchAny(n, "regionID",
			StagePrimaryContactRegions+".regionID",
			StageAssistantContactRegions+".regionID"); ok {
			matches = append(matches, m)
		}
	}
	p.Add(query.Filter{And: matches})
}

func zoneStages(p *query.Pipeline, c *query.Criterion) {
	p.Add(query.Join{
		From:         docs.CollZones,
		LocalField:   "congregation.zones.zoneID",
		ForeignField: "zoneID",
		As:           StageZone,
	})
	var matches []bson.M
	if n := c.Nested(StageZone); n != nil {
		for _, f := range zoneFields {
			matches = query.AppendMatch(matches, n, f.field, StageZone+"."+f.target, f.fuzzy)
		}
	}
	p.Add(query.Filter{And: matches})
}

func contactZoneStages(p *query.Pipeline, c *query.Criterion) {
	p.Add(
		query.Join{
			From:         docs.CollZones,
			LocalField:   "userID",
			ForeignField: "contactID",
			As:           StagePrimaryContactZones,
		},
		query.Unwind{Path: StagePrimaryContactZones, KeepEmpty: true},
		query.Join{
			From:         docs.CollZones,
			LocalField:   "userID",
			ForeignField: "assistantContacts",
			As:           StageAssistantContactZones,
		},
	)
	var matches []bson.M
	if n := c.Nested(StageContactZones); n != nil {
		if m, ok := query.MatchAny(n, "zoneID",
			StagePrimaryContactZones+".zoneID",
			StageAssistantContactZones+".zoneID"); ok {
			matches = append(matches, m)
		}
	}
	p.Add(query.Filter{And: matches})
}

func securityStages(p *query.Pipeline, c *query.Criterion, module string) {
	key := SecurityStageName(module)
	p.Add(securityModuleStage{Module: module})
	var matches []bson.M
	if n := c.Nested(key); n != nil {
		for _, field := range []string{"module", "level", "access"} {
			matches = query.AppendMatch(matches, n, field, key+"."+field, false)
		}
	}
	p.Add(query.Filter{And: matches})
}

// securityModules lists the modules whose per-module security stage the
// request needs, in the registry's fixed order.
func securityModules(c *query.Criterion, columns []string) []string {
	var out []string
	for _, m := range allSecurityModules {
		key := SecurityStageName(m)
		if c.HasNested(key) || query.ColumnsReference(key+".", columns) {
			out = append(out, m)
		}
	}
	return out
}

// searchStage matches a free-text term across the human-identifying fields.
func searchStage(term any) query.Stage {
	return query.Filter{And: []bson.M{{
		"$or": []bson.M{
			{"firstName": bson.M{"$regex": term, "$options": "i"}},
			{"lastName": bson.M{"$regex": term, "$options": "i"}},
			{"email": bson.M{"$regex": term, "$options": "i"}},
		},
	}}}
}
