// internal/app/query/criterion.go
package query

import (
	"fmt"
	"sort"
)

// Value is one leaf of a criterion: either a single scalar (exact match) or
// a list of scalars (membership). The variant is fixed at construction.
type Value struct {
	scalar any
	list   []any
	isList bool
}

// Scalar wraps a single comparison value.
func Scalar(v any) Value { return Value{scalar: v} }

// List wraps a membership set.
func List(vs ...any) Value { return Value{list: vs, isList: true} }

// Strings wraps a membership set of strings.
func Strings(vs ...string) Value {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return List(out...)
}

// IsList reports whether the value is a membership set.
func (v Value) IsList() bool { return v.isList }

// Scalar returns the single comparison value; zero for list values.
func (v Value) Scalar() any { return v.scalar }

// Values returns the membership set; nil for scalar values.
func (v Value) Values() []any { return v.list }

// StringValues returns the value as a flat string slice: a scalar string
// becomes a one-element slice, a list keeps its string members.
func (v Value) StringValues() []string {
	if !v.isList {
		if s, ok := v.scalar.(string); ok {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(v.list))
	for _, e := range v.list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Criterion is a declarative filter over entity fields. Leaf fields hold
// Values; relation names hold nested criteria scoped to that relation.
// The variant split is validated at construction (Parse/Set/SetNested), so
// consumers never probe raw maps.
type Criterion struct {
	fields map[string]Value
	nested map[string]*Criterion
}

// New returns an empty criterion.
func New() *Criterion {
	return &Criterion{
		fields: map[string]Value{},
		nested: map[string]*Criterion{},
	}
}

// Parse validates a decoded JSON object into a Criterion. Object values
// become nested relation criteria, arrays become membership lists, and
// everything else is a scalar. Nested objects inside arrays are rejected.
func Parse(raw map[string]any) (*Criterion, error) {
	c := New()
	for k, v := range raw {
		switch t := v.(type) {
		case map[string]any:
			n, err := Parse(t)
			if err != nil {
				return nil, fmt.Errorf("criterion %q: %w", k, err)
			}
			c.SetNested(k, n)
		case []any:
			for _, e := range t {
				if _, ok := e.(map[string]any); ok {
					return nil, fmt.Errorf("criterion %q: objects are not allowed inside value lists", k)
				}
			}
			c.Set(k, List(t...))
		default:
			c.Set(k, Scalar(v))
		}
	}
	return c, nil
}

// Set stores a leaf value, replacing any previous value for the field.
func (c *Criterion) Set(field string, v Value) *Criterion {
	c.fields[field] = v
	return c
}

// SetNested stores a relation-scoped criterion.
func (c *Criterion) SetNested(relation string, n *Criterion) *Criterion {
	c.nested[relation] = n
	return c
}

// Field returns the leaf value for a field name.
func (c *Criterion) Field(name string) (Value, bool) {
	if c == nil {
		return Value{}, false
	}
	v, ok := c.fields[name]
	return v, ok
}

// Has reports whether a leaf field is present.
func (c *Criterion) Has(name string) bool {
	_, ok := c.Field(name)
	return ok
}

// Delete removes a leaf field. Used by the criteria preprocessor when it
// rewrites an indirect filter into a direct one.
func (c *Criterion) Delete(name string) {
	if c != nil {
		delete(c.fields, name)
	}
}

// Nested returns the relation-scoped criterion, or nil when absent.
func (c *Criterion) Nested(relation string) *Criterion {
	if c == nil {
		return nil
	}
	return c.nested[relation]
}

// HasNested reports whether a relation criterion is present and non-empty.
// An empty nested criterion constrains nothing and must not force a join.
func (c *Criterion) HasNested(relation string) bool {
	n := c.Nested(relation)
	return n != nil && !n.Empty()
}

// Empty reports whether the criterion constrains nothing at all.
func (c *Criterion) Empty() bool {
	if c == nil {
		return true
	}
	if len(c.fields) > 0 {
		return false
	}
	for _, n := range c.nested {
		if !n.Empty() {
			return false
		}
	}
	return true
}

// FieldNames returns the leaf field names in deterministic order.
func (c *Criterion) FieldNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.fields))
	for k := range c.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
