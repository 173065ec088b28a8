// internal/testutil/fakedocs.go
package testutil

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// FakeDocs is an in-memory document store for tests. It evaluates the subset
// of pipeline stages the stores actually emit: $match (equality, $in, $ne,
// $regex, $gte, $lt, $exists, $and, $or), $lookup, $unwind, $sort, $skip,
// $limit, $count and plain $project include/exclude maps. Stages it does not understand cause a
// test failure rather than silently wrong results.
type FakeDocs struct {
	mu          sync.Mutex
	Collections map[string][]bson.M
}

func NewFakeDocs() *FakeDocs {
	return &FakeDocs{Collections: map[string][]bson.M{}}
}

// Seed replaces the named collection with copies of the given documents.
func (f *FakeDocs) Seed(collection string, docs ...bson.M) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make([]bson.M, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, cloneDoc(d))
	}
	f.Collections[collection] = rows
}

// Docs returns copies of the named collection's documents.
func (f *FakeDocs) Docs(collection string) []bson.M {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bson.M, 0, len(f.Collections[collection]))
	for _, d := range f.Collections[collection] {
		out = append(out, cloneDoc(d))
	}
	return out
}

func (f *FakeDocs) Aggregate(_ context.Context, collection string, pipeline mongo.Pipeline) ([]bson.M, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make([]bson.M, 0, len(f.Collections[collection]))
	for _, d := range f.Collections[collection] {
		rows = append(rows, cloneDoc(d))
	}
	return f.run(rows, pipeline)
}

func (f *FakeDocs) AggregateCount(ctx context.Context, collection string, pipeline mongo.Pipeline) (int64, error) {
	rows, err := f.Aggregate(ctx, collection, pipeline)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n, ok := rows[0]["total"].(int64)
	if !ok {
		return 0, fmt.Errorf("count pipeline produced no total")
	}
	return n, nil
}

func (f *FakeDocs) UpdateOne(_ context.Context, collection string, filter, patch bson.M) (bson.M, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.Collections[collection] {
		if matchesFilter(d, filter) {
			for k, v := range patch {
				setPath(d, k, v)
			}
			return cloneDoc(d), nil
		}
	}
	return nil, nil
}

func (f *FakeDocs) UpdateMany(_ context.Context, collection string, filter, update bson.M) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, d := range f.Collections[collection] {
		if !matchesFilter(d, filter) {
			continue
		}
		if err := applyUpdate(d, update); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (f *FakeDocs) InsertOne(_ context.Context, collection string, doc bson.M) (bson.M, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Collections[collection] = append(f.Collections[collection], cloneDoc(doc))
	return cloneDoc(doc), nil
}

func (f *FakeDocs) DeleteOne(_ context.Context, collection string, filter bson.M) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.Collections[collection]
	for i, d := range rows {
		if matchesFilter(d, filter) {
			f.Collections[collection] = append(rows[:i:i], rows[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *FakeDocs) run(rows []bson.M, pipeline mongo.Pipeline) ([]bson.M, error) {
	for _, stage := range pipeline {
		if len(stage) != 1 {
			return nil, fmt.Errorf("fake docs: stage with %d operators", len(stage))
		}
		op := stage[0]
		var err error
		switch op.Key {
		case "$match":
			rows = filterRows(rows, toM(op.Value))
		case "$lookup":
			rows, err = f.lookup(rows, toM(op.Value))
		case "$unwind":
			rows = unwindRows(rows, op.Value)
		case "$sort":
			rows = sortRows(rows, op.Value)
		case "$skip":
			n := asInt(op.Value)
			if n > len(rows) {
				n = len(rows)
			}
			rows = rows[n:]
		case "$limit":
			n := asInt(op.Value)
			if n < len(rows) {
				rows = rows[:n]
			}
		case "$count":
			if len(rows) == 0 {
				return nil, nil
			}
			return []bson.M{{fmt.Sprint(op.Value): int64(len(rows))}}, nil
		case "$project":
			rows = projectRows(rows, toM(op.Value))
		case "$addFields":
			// Computed fields are exercised against real pipelines, not the
			// fake; pass rows through unchanged.
		default:
			err = fmt.Errorf("fake docs: unsupported stage %s", op.Key)
		}
		if err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func (f *FakeDocs) lookup(rows []bson.M, spec bson.M) ([]bson.M, error) {
	from, _ := spec["from"].(string)
	local, _ := spec["localField"].(string)
	foreign, _ := spec["foreignField"].(string)
	as, _ := spec["as"].(string)
	if from == "" || as == "" {
		return nil, fmt.Errorf("fake docs: lookup needs from/as")
	}
	foreignRows := f.Collections[from]
	for _, row := range rows {
		lv, _ := getPath(row, local)
		matched := []bson.M{}
		for _, fr := range foreignRows {
			fv, _ := getPath(fr, foreign)
			if valuesJoin(lv, fv) {
				matched = append(matched, cloneDoc(fr))
			}
		}
		row[as] = matched
	}
	return rows, nil
}

func valuesJoin(local, foreign any) bool {
	if leafEqual(local, foreign) {
		return true
	}
	// Array on either side joins on membership.
	if la, ok := asSlice(local); ok {
		for _, v := range la {
			if leafEqual(v, foreign) {
				return true
			}
		}
	}
	if fa, ok := asSlice(foreign); ok {
		for _, v := range fa {
			if leafEqual(local, v) {
				return true
			}
		}
	}
	return false
}

func unwindRows(rows []bson.M, spec any) []bson.M {
	path := ""
	keepEmpty := false
	switch s := spec.(type) {
	case string:
		path = strings.TrimPrefix(s, "$")
	case bson.M:
		path = strings.TrimPrefix(fmt.Sprint(s["path"]), "$")
		keepEmpty, _ = s["preserveNullAndEmptyArrays"].(bool)
	case bson.D:
		m := toM(s)
		path = strings.TrimPrefix(fmt.Sprint(m["path"]), "$")
		keepEmpty, _ = m["preserveNullAndEmptyArrays"].(bool)
	}
	var out []bson.M
	for _, row := range rows {
		v, _ := getPath(row, path)
		arr, ok := asSlice(v)
		if !ok || len(arr) == 0 {
			if keepEmpty {
				r := cloneDoc(row)
				delete(r, path)
				out = append(out, r)
			}
			continue
		}
		for _, el := range arr {
			r := cloneDoc(row)
			setPath(r, path, el)
			out = append(out, r)
		}
	}
	return out
}

func sortRows(rows []bson.M, spec any) []bson.M {
	var key string
	dir := 1
	switch s := spec.(type) {
	case bson.D:
		if len(s) > 0 {
			key = s[0].Key
			dir = asInt(s[0].Value)
		}
	case bson.M:
		for k, v := range s {
			key, dir = k, asInt(v)
		}
	}
	sorted := make([]bson.M, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, _ := getPath(sorted[i], key)
		b, _ := getPath(sorted[j], key)
		less := fmt.Sprint(a) < fmt.Sprint(b)
		if dir < 0 {
			return !less && fmt.Sprint(a) != fmt.Sprint(b)
		}
		return less
	})
	return sorted
}

func projectRows(rows []bson.M, spec bson.M) []bson.M {
	include := map[string]bool{}
	exclude := map[string]bool{}
	rename := map[string]string{}
	for k, v := range spec {
		if s, ok := v.(string); ok && strings.HasPrefix(s, "$") {
			rename[k] = strings.TrimPrefix(s, "$")
			continue
		}
		switch asInt(v) {
		case 1:
			// Dotted includes keep the whole top-level field; the fake does
			// not narrow subdocuments.
			include[strings.SplitN(k, ".", 2)[0]] = true
		case 0:
			if k != "_id" && !strings.Contains(k, ".") {
				exclude[k] = true
			}
		}
	}
	inclusion := len(include) > 0 || len(rename) > 0
	out := make([]bson.M, 0, len(rows))
	for _, row := range rows {
		r := bson.M{}
		for k, v := range row {
			if inclusion && !include[k] {
				continue
			}
			if exclude[k] {
				continue
			}
			r[k] = v
		}
		for k, path := range rename {
			if v, ok := getPath(row, path); ok {
				r[k] = v
			}
		}
		out = append(out, r)
	}
	return out
}

func filterRows(rows []bson.M, cond bson.M) []bson.M {
	out := rows[:0]
	for _, row := range rows {
		if matchesFilter(row, cond) {
			out = append(out, row)
		}
	}
	return out
}

func matchesFilter(doc bson.M, cond bson.M) bool {
	for k, v := range cond {
		switch k {
		case "$and":
			for _, sub := range mustConds(v) {
				if !matchesFilter(doc, sub) {
					return false
				}
			}
		case "$or":
			any := false
			for _, sub := range mustConds(v) {
				if matchesFilter(doc, sub) {
					any = true
					break
				}
			}
			if !any {
				return false
			}
		default:
			got, _ := getPath(doc, k)
			if !matchValue(got, v) {
				return false
			}
		}
	}
	return true
}

func matchValue(got, want any) bool {
	if m, ok := toMaybeM(want); ok {
		if len(m) > 0 {
			opMatched := false
			for op, arg := range m {
				switch op {
				case "$in":
					arr, _ := asSlice(arg)
					ok := false
					for _, v := range arr {
						if equalOrContains(got, v) {
							ok = true
							break
						}
					}
					if !ok {
						return false
					}
					opMatched = true
				case "$ne":
					if leafEqual(got, arg) {
						return false
					}
					opMatched = true
				case "$regex":
					pat := fmt.Sprint(arg)
					flags := ""
					if fl, ok := m["$options"]; ok {
						flags = fmt.Sprint(fl)
					}
					if strings.Contains(flags, "i") {
						pat = "(?i)" + pat
					}
					re, err := regexp.Compile(pat)
					if err != nil || got == nil || !re.MatchString(fmt.Sprint(got)) {
						return false
					}
					opMatched = true
				case "$exists":
					want, _ := arg.(bool)
					if (got != nil) != want {
						return false
					}
					opMatched = true
				case "$gte":
					c, ok := compareLeaf(got, arg)
					if !ok || c < 0 {
						return false
					}
					opMatched = true
				case "$lt":
					c, ok := compareLeaf(got, arg)
					if !ok || c >= 0 {
						return false
					}
					opMatched = true
				case "$options":
					// consumed with $regex
				}
			}
			if opMatched {
				return true
			}
			// Plain subdocument equality.
			return leafEqual(got, want)
		}
	}
	return equalOrContains(got, want)
}

// compareLeaf orders two leaf values: times by instant, numbers by value,
// everything else by string form.
func compareLeaf(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if at, ok := asTimeValue(a); ok {
		bt, ok := asTimeValue(b)
		if !ok {
			return 0, false
		}
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		}
		return 0, true
	}
	if af, ok := asFloatValue(a); ok {
		bf, ok := asFloatValue(b)
		if !ok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1, true
	case as > bs:
		return 1, true
	}
	return 0, true
}

func asTimeValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case primitive.DateTime:
		return t.Time(), true
	}
	return time.Time{}, false
}

func asFloatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// equalOrContains matches scalars by equality and arrays by membership, the
// way $match treats array-valued fields.
func equalOrContains(got, want any) bool {
	if leafEqual(got, want) {
		return true
	}
	if arr, ok := asSlice(got); ok {
		for _, v := range arr {
			if leafEqual(v, want) {
				return true
			}
		}
	}
	return false
}

func applyUpdate(doc bson.M, update bson.M) error {
	for op, arg := range update {
		fields, ok := toMaybeM(arg)
		if !ok {
			return fmt.Errorf("fake docs: update %s wants a document", op)
		}
		switch op {
		case "$set":
			for k, v := range fields {
				setPath(doc, k, v)
			}
		case "$unset":
			for k := range fields {
				delete(doc, k)
			}
		case "$pull":
			for k, v := range fields {
				cur, _ := getPath(doc, k)
				arr, _ := asSlice(cur)
				kept := []any{}
				for _, el := range arr {
					if cond, ok := toMaybeM(v); ok {
						if em, ok := toMaybeM(el); ok && matchesFilter(em, cond) {
							continue
						}
					}
					if leafEqual(el, v) {
						continue
					}
					kept = append(kept, el)
				}
				setPath(doc, k, kept)
			}
		case "$addToSet":
			for k, v := range fields {
				cur, _ := getPath(doc, k)
				arr, _ := asSlice(cur)
				present := false
				for _, el := range arr {
					if leafEqual(el, v) {
						present = true
						break
					}
				}
				if !present {
					setPath(doc, k, append(arr, v))
				}
			}
		case "$push":
			for k, v := range fields {
				cur, _ := getPath(doc, k)
				arr, _ := asSlice(cur)
				setPath(doc, k, append(arr, v))
			}
		default:
			return fmt.Errorf("fake docs: unsupported update operator %s", op)
		}
	}
	return nil
}

func mustConds(v any) []bson.M {
	arr, _ := asSlice(v)
	out := make([]bson.M, 0, len(arr))
	for _, el := range arr {
		if m, ok := toMaybeM(el); ok {
			out = append(out, m)
		}
	}
	return out
}

func getPath(doc bson.M, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	parts := strings.Split(path, ".")
	var cur any = doc
	for i, p := range parts {
		m, ok := toMaybeM(cur)
		if !ok {
			// Dotted path through an array: collect leaf values.
			if arr, isArr := asSlice(cur); isArr {
				rest := strings.Join(parts[i:], ".")
				var vals []any
				for _, el := range arr {
					if em, ok := toMaybeM(el); ok {
						if v, found := getPath(em, rest); found {
							vals = append(vals, v)
						}
					}
				}
				if len(vals) == 0 {
					return nil, false
				}
				return vals, true
			}
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func setPath(doc bson.M, path string, v any) {
	parts := strings.Split(path, ".")
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := toMaybeM(cur[p])
		if !ok {
			next = bson.M{}
			cur[p] = next
		}
		cur[p] = next
		cur = next
	}
	cur[parts[len(parts)-1]] = v
}

func cloneDoc(d bson.M) bson.M {
	out := bson.M{}
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		return cloneDoc(t)
	case bson.D:
		return cloneDoc(toM(t))
	case []bson.M:
		arr := make([]any, 0, len(t))
		for _, el := range t {
			arr = append(arr, cloneDoc(el))
		}
		return arr
	case bson.A:
		arr := make(bson.A, 0, len(t))
		for _, el := range t {
			arr = append(arr, cloneValue(el))
		}
		return arr
	case []any:
		arr := make([]any, 0, len(t))
		for _, el := range t {
			arr = append(arr, cloneValue(el))
		}
		return arr
	case []string:
		arr := make([]any, 0, len(t))
		for _, el := range t {
			arr = append(arr, el)
		}
		return arr
	default:
		return v
	}
}

func toM(v any) bson.M {
	m, _ := toMaybeM(v)
	return m
}

func toMaybeM(v any) (bson.M, bool) {
	switch t := v.(type) {
	case bson.M:
		return t, true
	case bson.D:
		m := bson.M{}
		for _, e := range t {
			m[e.Key] = e.Value
		}
		return m, true
	case map[string]any:
		return bson.M(t), true
	default:
		return nil, false
	}
}

func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case bson.A:
		return t, true
	case []bson.M:
		out := make([]any, 0, len(t))
		for _, el := range t {
			out = append(out, el)
		}
		return out, true
	case []string:
		out := make([]any, 0, len(t))
		for _, el := range t {
			out = append(out, el)
		}
		return out, true
	default:
		return nil, false
	}
}

func asInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		return 0
	}
}

func leafEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	am, aok := toMaybeM(a)
	bm, bok := toMaybeM(b)
	if aok && bok {
		if len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, ok := bm[k]
			if !ok || !leafEqual(av, bv) {
				return false
			}
		}
		return true
	}
	if aok || bok {
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
