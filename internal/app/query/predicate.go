// internal/app/query/predicate.go
package query

import "go.mongodb.org/mongo-driver/bson"

// Match translates a single criterion field into a store predicate against
// targetPath. Absence of the field is not an error; the stage simply
// contributes no filter (optional-filter semantics).
//
// A list value becomes a membership test, a scalar an equality test. When
// fuzzy is set the value is matched as a case-insensitive substring pattern
// instead; fuzzy is only ever requested for the whitelisted human-text
// fields declared by each stage.
func Match(c *Criterion, field, targetPath string, fuzzy bool) (bson.M, bool) {
	v, ok := c.Field(field)
	if !ok {
		return nil, false
	}
	return matchValue(v, targetPath, fuzzy), true
}

// AppendMatch appends the predicate for one criterion field to matches when
// the field is present.
func AppendMatch(matches []bson.M, c *Criterion, field, targetPath string, fuzzy bool) []bson.M {
	if m, ok := Match(c, field, targetPath, fuzzy); ok {
		matches = append(matches, m)
	}
	return matches
}

func matchValue(v Value, targetPath string, fuzzy bool) bson.M {
	if fuzzy && !v.IsList() {
		return bson.M{targetPath: bson.M{"$regex": v.Scalar(), "$options": "i"}}
	}
	if v.IsList() {
		return bson.M{targetPath: bson.M{"$in": v.Values()}}
	}
	return bson.M{targetPath: v.Scalar()}
}

// MatchAny builds an OR of the same criterion field matched against several
// target paths. Used for contact criteria that may live on either the
// primary or the assistant back-reference join.
func MatchAny(c *Criterion, field string, targetPaths ...string) (bson.M, bool) {
	v, ok := c.Field(field)
	if !ok {
		return nil, false
	}
	ors := make([]bson.M, 0, len(targetPaths))
	for _, tp := range targetPaths {
		ors = append(ors, matchValue(v, tp, false))
	}
	return bson.M{"$or": ors}, true
}
