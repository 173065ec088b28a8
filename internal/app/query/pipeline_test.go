// internal/app/query/pipeline_test.go
package query_test

import (
	"testing"

	"github.com/gateaccess/gateaccess/internal/app/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func stageKeys(p mongo.Pipeline) []string {
	keys := make([]string, 0, len(p))
	for _, d := range p {
		keys = append(keys, d[0].Key)
	}
	return keys
}

func TestPipeline_CountAndDataVariantsShareFilteredPrefix(t *testing.T) {
	p := query.NewPipeline().Add(
		query.Filter{And: []bson.M{{"deleted": bson.M{"$ne": true}}}},
		query.Join{From: "facilities", LocalField: "facilities.facilityID", ForeignField: "facilityID", As: "facilitiess"},
	)

	count := p.CountVariant()
	wantCount := []string{"$match", "$lookup", "$count"}
	if got := stageKeys(count); len(got) != len(wantCount) {
		t.Fatalf("count variant stages = %v, want %v", got, wantCount)
	} else {
		for i := range wantCount {
			if got[i] != wantCount[i] {
				t.Fatalf("count variant stages = %v, want %v", got, wantCount)
			}
		}
	}

	data := p.DataVariant(query.Sort{Key: "name"}, []string{"userID"}, nil, query.Page{Offset: 10, Limit: 5})
	wantData := []string{"$match", "$lookup", "$sort", "$project", "$skip", "$limit"}
	got := stageKeys(data)
	if len(got) != len(wantData) {
		t.Fatalf("data variant stages = %v, want %v", got, wantData)
	}
	for i := range wantData {
		if got[i] != wantData[i] {
			t.Fatalf("data variant stages = %v, want %v", got, wantData)
		}
	}

	// Deriving variants must not mutate the shared prefix.
	if p.Len() != 2 {
		t.Errorf("filtered prefix grew to %d stages", p.Len())
	}
}

func TestPipeline_ZeroLimitSkipsPagination(t *testing.T) {
	p := query.NewPipeline()
	data := p.DataVariant(query.Sort{Key: "name"}, nil, nil, query.Page{})
	for _, k := range stageKeys(data) {
		if k == "$skip" || k == "$limit" {
			t.Errorf("unpaginated variant must not window rows, got stage %s", k)
		}
	}
}

func TestProject_DropListAppliesAfterInclusion(t *testing.T) {
	stages := query.Project{Include: []string{"userID", "photoLink"}, Exclude: []string{"photoLink"}}.Compile()
	if len(stages) != 2 {
		t.Fatalf("expected inclusion then exclusion projection, got %d stages", len(stages))
	}
	inc := stages[0][0].Value.(bson.M)
	if inc["_id"] != 0 || inc["userID"] != 1 {
		t.Errorf("inclusion projection = %v", inc)
	}
	exc := stages[1][0].Value.(bson.M)
	if exc["photoLink"] != 0 {
		t.Errorf("exclusion projection = %v", exc)
	}
}

func TestFilter_EmptyCompilesToNothing(t *testing.T) {
	if got := (query.Filter{}).Compile(); len(got) != 0 {
		t.Errorf("empty filter compiled to %v", got)
	}
	if got := (query.MapFields{}).Compile(); len(got) != 0 {
		t.Errorf("empty field map compiled to %v", got)
	}
}

func TestSort_Direction(t *testing.T) {
	asc := query.Sort{Key: "name"}.Compile()[0][0].Value.(bson.D)
	if asc[0].Key != "name" || asc[0].Value != 1 {
		t.Errorf("ascending sort = %v", asc)
	}
	desc := query.Sort{Key: "name", Descending: true}.Compile()[0][0].Value.(bson.D)
	if desc[0].Value != -1 {
		t.Errorf("descending sort = %v", desc)
	}
}
