// internal/app/features/volunteers/helpers.go
package volunteers

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/gateaccess/gateaccess/internal/app/query"
)

func newUserCriterion(userID string) *query.Criterion {
	return query.New().Set("userID", query.Scalar(userID))
}

// facilityList reads the facility assignment entries off a volunteer row.
func facilityList(v bson.M) []bson.M {
	return subDocs(v, "facilities")
}

// assignments reads a facility assignment's flag map.
func assignments(f bson.M) bson.M {
	return subDoc(f, "assignments")
}

func assignmentFlag(f bson.M, key string) bool {
	a := assignments(f)
	if a == nil {
		return false
	}
	b, _ := a[key].(bool)
	return b
}

func stringsOf(v any) []string {
	var raw []any
	switch t := v.(type) {
	case bson.A:
		raw = t
	case []any:
		raw = t
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, el := range raw {
		if s, ok := el.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func facilityIDsOf(facilities []bson.M) []string {
	out := make([]string, 0, len(facilities))
	for _, f := range facilities {
		if id, ok := f["facilityID"].(string); ok {
			out = append(out, id)
		}
	}
	return out
}
