// internal/app/store/volunteers/preprocess.go
package volunteers

import (
	"context"
	"fmt"

	"github.com/gateaccess/gateaccess/internal/app/query"
)

// ZoneResolver resolves a zone-scoped criterion to the matching zone
// identifiers. The zones store satisfies it; injecting the narrow interface
// keeps the stores free of cycles.
type ZoneResolver interface {
	ResolveZoneIDs(ctx context.Context, c *query.Criterion) ([]string, error)
}

// contactCriterionFields are the indirect zone filters the zone join cannot
// express: they are keyed by contact back-references stored on the zone.
var contactCriterionFields = []string{"primaryContactId", "assistantContactId", "contactId"}

// Preprocess rewrites indirect zone-contact criteria into a direct zoneID
// membership filter by delegating to the zone query compiler. An existing
// zoneID filter is intersected, never widened.
func Preprocess(ctx context.Context, c *query.Criterion, zones ZoneResolver) error {
	if !c.HasNested(StageZone) {
		return nil
	}
	zc := c.Nested(StageZone)
	extracted := query.New()
	for _, f := range contactCriterionFields {
		if v, ok := zc.Field(f); ok {
			extracted.Set(f, v)
			zc.Delete(f)
		}
	}
	if extracted.Empty() {
		return nil
	}
	ids, err := zones.ResolveZoneIDs(ctx, extracted)
	if err != nil {
		return fmt.Errorf("resolve zone contacts: %w", err)
	}
	if v, ok := zc.Field("zoneID"); ok {
		ids = intersect(v.StringValues(), ids)
	}
	zc.Set("zoneID", query.Strings(ids...))
	return nil
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(a))
	for _, s := range a {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return out
}
