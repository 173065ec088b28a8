// internal/app/query/pipeline.go
package query

import "go.mongodb.org/mongo-driver/mongo"

// Pipeline accumulates an ordered list of stages. The stage planner appends
// only the relation stages whose inclusion predicate holds; the assembler
// then derives the two executable variants (data and count) from the same
// filtered prefix.
type Pipeline struct {
	stages []Stage
}

// NewPipeline returns an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{} }

// Add appends stages in order.
func (p *Pipeline) Add(stages ...Stage) *Pipeline {
	p.stages = append(p.stages, stages...)
	return p
}

// Len returns the number of logical stages accumulated.
func (p *Pipeline) Len() int { return len(p.stages) }

// Compile renders the accumulated stages into the store's pipeline form.
func (p *Pipeline) Compile() mongo.Pipeline {
	out := make(mongo.Pipeline, 0, len(p.stages))
	for _, s := range p.stages {
		out = append(out, s.Compile()...)
	}
	return out
}

// Clone returns an independent copy sharing no stage slice with p.
func (p *Pipeline) Clone() *Pipeline {
	c := &Pipeline{stages: make([]Stage, len(p.stages))}
	copy(c.stages, p.stages)
	return c
}

// Page is an offset/limit window request.
type Page struct {
	Offset int64 `json:"offset"`
	Limit  int64 `json:"limit"`
}

// CountVariant derives the total-count pipeline: the filtered prefix
// terminated by a count aggregate. Sort, projection, and pagination never
// appear here; they cannot change the total.
func (p *Pipeline) CountVariant() mongo.Pipeline {
	return p.Clone().Add(CountStage{}).Compile()
}

// DataVariant derives the row-retrieval pipeline: the filtered prefix, then
// sort, projection (inclusion columns plus the explicit drop-list), and
// pagination, in that fixed order. Projection after sort keeps computed sort
// keys available to the sort stage even when they are not returned.
func (p *Pipeline) DataVariant(sort Sort, columns, dropColumns []string, page Page) mongo.Pipeline {
	d := p.Clone()
	d.Add(sort)
	d.Add(Project{Include: columns, Exclude: dropColumns})
	d.Add(Paginate{Offset: page.Offset, Limit: page.Limit})
	return d.Compile()
}
