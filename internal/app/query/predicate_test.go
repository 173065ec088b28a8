// internal/app/query/predicate_test.go
package query_test

import (
	"reflect"
	"testing"

	"github.com/gateaccess/gateaccess/internal/app/query"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMatch_AbsentFieldContributesNothing(t *testing.T) {
	c := query.New()
	if _, ok := query.Match(c, "state", "state", false); ok {
		t.Error("absent field must not produce a predicate")
	}
	ms := query.AppendMatch(nil, c, "state", "state", false)
	if len(ms) != 0 {
		t.Errorf("AppendMatch on absent field: got %v", ms)
	}
}

func TestMatch_ScalarIsEquality(t *testing.T) {
	c := query.New().Set("status", query.Scalar("approved"))
	m, ok := query.Match(c, "status", "status", false)
	if !ok {
		t.Fatal("expected predicate")
	}
	want := bson.M{"status": "approved"}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("got %v, want %v", m, want)
	}
}

func TestMatch_ListIsMembership(t *testing.T) {
	c := query.New().Set("state", query.Strings("NY", "CA"))
	m, ok := query.Match(c, "state", "state", false)
	if !ok {
		t.Fatal("expected predicate")
	}
	want := bson.M{"state": bson.M{"$in": []any{"NY", "CA"}}}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("got %v, want %v", m, want)
	}
}

func TestMatch_FuzzyIsCaseInsensitivePattern(t *testing.T) {
	c := query.New().Set("lastName", query.Scalar("smi"))
	m, ok := query.Match(c, "lastName", "lastName", true)
	if !ok {
		t.Fatal("expected predicate")
	}
	want := bson.M{"lastName": bson.M{"$regex": "smi", "$options": "i"}}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("got %v, want %v", m, want)
	}
}

func TestMatch_TargetPathRemaps(t *testing.T) {
	c := query.New().Set("languageID", query.Scalar("en"))
	m, _ := query.Match(c, "languageID", "language.languageID", false)
	if _, ok := m["language.languageID"]; !ok {
		t.Errorf("predicate should target remapped path, got %v", m)
	}
}

func TestMatchAny_OrsAcrossTargets(t *testing.T) {
	c := query.New().Set("zoneID", query.Scalar("z-1"))
	m, ok := query.MatchAny(c, "zoneID", "primaryContactZones.zoneID", "assistantContactZones.zoneID")
	if !ok {
		t.Fatal("expected predicate")
	}
	ors, ok := m["$or"].([]bson.M)
	if !ok || len(ors) != 2 {
		t.Fatalf("expected 2-branch $or, got %v", m)
	}
	if _, ok := query.MatchAny(query.New(), "zoneID", "a", "b"); ok {
		t.Error("absent field must not produce a predicate")
	}
}
