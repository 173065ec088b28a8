// internal/app/query/criterion_test.go
package query_test

import (
	"testing"

	"github.com/gateaccess/gateaccess/internal/app/query"
)

func TestParse_ScalarListNested(t *testing.T) {
	c, err := query.Parse(map[string]any{
		"state":  []any{"NY", "CA"},
		"status": "approved",
		"zone": map[string]any{
			"zoneID": "z-1",
		},
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	v, ok := c.Field("status")
	if !ok || v.IsList() || v.Scalar() != "approved" {
		t.Errorf("status: expected scalar \"approved\", got %+v (ok=%v)", v, ok)
	}

	v, ok = c.Field("state")
	if !ok || !v.IsList() || len(v.Values()) != 2 {
		t.Errorf("state: expected 2-element list, got %+v (ok=%v)", v, ok)
	}

	if !c.HasNested("zone") {
		t.Error("expected nested zone criterion")
	}
	zv, ok := c.Nested("zone").Field("zoneID")
	if !ok || zv.Scalar() != "z-1" {
		t.Errorf("zone.zoneID: got %+v (ok=%v)", zv, ok)
	}
}

func TestParse_RejectsObjectsInLists(t *testing.T) {
	_, err := query.Parse(map[string]any{
		"state": []any{map[string]any{"bad": true}},
	})
	if err == nil {
		t.Fatal("expected error for object inside value list")
	}
}

func TestHasNested_EmptyNestedIsAbsent(t *testing.T) {
	c := query.New().SetNested("zone", query.New())
	if c.HasNested("zone") {
		t.Error("empty nested criterion must not count as a reference")
	}
	if !c.Empty() {
		t.Error("criterion with only an empty nested criterion should be empty")
	}
}

func TestCriterion_DeleteAndFieldNames(t *testing.T) {
	c := query.New().
		Set("userID", query.Scalar("u1")).
		Set("role", query.Scalar("zone"))
	c.Delete("role")
	if c.Has("role") {
		t.Error("role should be deleted")
	}
	names := c.FieldNames()
	if len(names) != 1 || names[0] != "userID" {
		t.Errorf("FieldNames = %v, want [userID]", names)
	}
}

func TestStrings(t *testing.T) {
	v := query.Strings("a", "b")
	if !v.IsList() {
		t.Fatal("Strings should build a list value")
	}
	got := v.StringValues()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("StringValues = %v", got)
	}
	if sv := query.Scalar("x").StringValues(); len(sv) != 1 || sv[0] != "x" {
		t.Errorf("scalar StringValues = %v", sv)
	}
}
