// internal/app/query/stage.go
package query

import "go.mongodb.org/mongo-driver/bson"

// Stage is one unit of a compiled pipeline. A Stage may compile to more
// than one store-level stage (pagination is $skip + $limit, a join is
// usually $lookup + $unwind), so Compile returns a slice.
type Stage interface {
	Compile() []bson.D
}

// Join associates the base entity with a related collection.
type Join struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
}

func (j Join) Compile() []bson.D {
	return []bson.D{{{Key: "$lookup", Value: bson.M{
		"from":         j.From,
		"localField":   j.LocalField,
		"foreignField": j.ForeignField,
		"as":           j.As,
	}}}}
}

// Unwind flattens a joined array field. KeepEmpty preserves rows without a
// match (left-join semantics).
type Unwind struct {
	Path      string
	KeepEmpty bool
}

func (u Unwind) Compile() []bson.D {
	spec := bson.M{"path": "$" + u.Path}
	if u.KeepEmpty {
		spec["preserveNullAndEmptyArrays"] = true
	}
	return []bson.D{{{Key: "$unwind", Value: spec}}}
}

// Filter is an AND of predicates built by the predicate builder. An empty
// filter compiles to nothing, so stage builders can append unconditionally.
type Filter struct {
	And []bson.M
}

func (f Filter) Compile() []bson.D {
	if len(f.And) == 0 {
		return nil
	}
	return []bson.D{{{Key: "$match", Value: bson.M{"$and": f.And}}}}
}

// MapFields adds or rewrites fields with derived expressions (display-name
// composition, collision renames, per-module security views).
type MapFields struct {
	Fields bson.M
}

func (m MapFields) Compile() []bson.D {
	if len(m.Fields) == 0 {
		return nil
	}
	return []bson.D{{{Key: "$addFields", Value: m.Fields}}}
}

// Project controls the output field set. Include is an inclusion list (the
// identifier _id is always dropped); Exclude is the explicit drop-list
// applied on top.
type Project struct {
	Include []string
	Exclude []string
}

func (p Project) Compile() []bson.D {
	var out []bson.D
	if len(p.Include) > 0 {
		spec := bson.M{"_id": 0}
		for _, c := range p.Include {
			spec[c] = 1
		}
		out = append(out, bson.D{{Key: "$project", Value: spec}})
	} else {
		out = append(out, bson.D{{Key: "$project", Value: bson.M{"_id": 0}}})
	}
	if len(p.Exclude) > 0 {
		spec := bson.M{}
		for _, c := range p.Exclude {
			spec[c] = 0
		}
		out = append(out, bson.D{{Key: "$project", Value: spec}})
	}
	return out
}

// Sort orders rows by a single key.
type Sort struct {
	Key        string
	Descending bool
}

func (s Sort) Compile() []bson.D {
	dir := 1
	if s.Descending {
		dir = -1
	}
	return []bson.D{{{Key: "$sort", Value: bson.D{{Key: s.Key, Value: dir}}}}}
}

// Paginate applies an offset/limit window. A zero Limit means no window at
// all (export paths fetch the full filtered set).
type Paginate struct {
	Offset int64
	Limit  int64
}

func (p Paginate) Compile() []bson.D {
	if p.Limit <= 0 {
		return nil
	}
	return []bson.D{
		{{Key: "$skip", Value: p.Offset}},
		{{Key: "$limit", Value: p.Limit}},
	}
}

// CountStage terminates a count pipeline with a total aggregate.
type CountStage struct{}

func (CountStage) Compile() []bson.D {
	return []bson.D{{{Key: "$count", Value: "total"}}}
}
