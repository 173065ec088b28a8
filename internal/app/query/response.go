// internal/app/query/response.go
package query

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// Executor runs compiled pipelines against one collection of the document
// store. The Mongo adapter satisfies it in production; tests substitute an
// in-memory fake.
type Executor interface {
	Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline) ([]bson.M, error)
	AggregateCount(ctx context.Context, collection string, pipeline mongo.Pipeline) (int64, error)
}

// Returned selects which halves of a listing response to compute. The zero
// value computes neither; DefaultReturned computes both.
type Returned struct {
	Data  bool `json:"data"`
	Total bool `json:"total"`
}

// DefaultReturned requests rows and total together.
var DefaultReturned = Returned{Data: true, Total: true}

// Result is a listing response: the page of rows and the unpaginated total.
type Result struct {
	Data  []bson.M `json:"data"`
	Total int64    `json:"total"`
}

// Run executes the requested pipeline variants concurrently and joins both
// branches before returning. Both branches always run to completion; a
// failure in one does not cancel the other, and the first error (if any) is
// reported after the join.
func Run(ctx context.Context, ex Executor, collection string, dataPipe, countPipe mongo.Pipeline, returned Returned) (Result, error) {
	var res Result
	var g errgroup.Group
	if returned.Data {
		g.Go(func() error {
			rows, err := ex.Aggregate(ctx, collection, dataPipe)
			if err != nil {
				return err
			}
			res.Data = rows
			return nil
		})
	}
	if returned.Total {
		g.Go(func() error {
			total, err := ex.AggregateCount(ctx, collection, countPipe)
			if err != nil {
				return err
			}
			res.Total = total
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if res.Data == nil {
		res.Data = []bson.M{}
	}
	return res, nil
}
