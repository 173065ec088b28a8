// internal/app/features/volunteers/list.go
package volunteers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gateaccess/gateaccess/internal/app/query"
	volunteerstore "github.com/gateaccess/gateaccess/internal/app/store/volunteers"
)

// photoSignWorkers bounds the parallel URL resolutions per batch.
const photoSignWorkers = 8

// List runs a volunteer listing and hydrates photo URLs when the column
// restriction admits them.
func (s *Service) List(ctx context.Context, actor Actor, req volunteerstore.ListRequest) (query.Result, error) {
	res, err := s.store.List(ctx, req)
	if err != nil {
		return query.Result{}, err
	}
	if query.ColumnsInclude(req.Columns, "photoLink") {
		s.hydratePhotos(ctx, actor, res.Data)
	}
	return res, nil
}

// Get fetches a single fully hydrated volunteer, defaults merged, photo
// URL resolved. A miss is a nil row.
func (s *Service) Get(ctx context.Context, actor Actor, userID string, columns []string) (bson.M, error) {
	v, err := s.store.Get(ctx, userID, columns)
	if err != nil || v == nil {
		return nil, err
	}
	if query.ColumnsInclude(columns, "photoLink") {
		s.hydratePhotos(ctx, actor, []bson.M{v})
	}
	return v, nil
}

// hydratePhotos swaps each row's stored photo key for a signed URL, in
// parallel. A failed resolution leaves that row's photoLink null; it never
// fails the batch.
func (s *Service) hydratePhotos(ctx context.Context, actor Actor, rows []bson.M) {
	var g errgroup.Group
	g.SetLimit(photoSignWorkers)
	for _, row := range rows {
		row := row
		key, ok := row["photoLink"].(string)
		if !ok || key == "" {
			continue
		}
		g.Go(func() error {
			url, err := s.photos.ResolveSignedURL(ctx, actor.Region, key)
			if err != nil {
				s.log.Warn("sign photo url", zap.String("key", key), zap.Error(err))
				row["photoLink"] = nil
				return nil
			}
			row["photoLink"] = url
			return nil
		})
	}
	_ = g.Wait()
}
