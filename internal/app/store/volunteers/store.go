// internal/app/store/volunteers/store.go
package volunteers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/gateaccess/gateaccess/internal/app/query"
	"github.com/gateaccess/gateaccess/internal/app/store/docs"
	"github.com/gateaccess/gateaccess/internal/domain/models"
)

var (
	// ErrNotFound is returned by single-entity updates with no match.
	ErrNotFound = errors.New("volunteer not found")
	// ErrUnboundedQuery is returned for listing requests that constrain
	// nothing and request no page window.
	ErrUnboundedQuery = errors.New("listing requires a criterion or a page limit")
)

// Store compiles and executes volunteer queries and performs the direct
// volunteer writes. Cross-entity consistency is the orchestrator's job, not
// the store's.
type Store struct {
	docs  docs.Store
	zones ZoneResolver
	log   *zap.Logger
}

// New wires the store to its document store, the zone resolver used by the
// criteria preprocessor, and a logger.
func New(d docs.Store, zones ZoneResolver, log *zap.Logger) *Store {
	return &Store{docs: d, zones: zones, log: log}
}

// ListRequest is a declarative volunteer listing: what to filter on, which
// columns to return, how to order, and which page to window.
type ListRequest struct {
	Criterion   *query.Criterion
	Columns     []string
	DropColumns []string
	SortKey     string
	Descending  bool
	Page        query.Page
	Returned    query.Returned
}

// List compiles the request into count and data pipelines and executes both
// concurrently. The default sort is ascending by the computed display name.
func (s *Store) List(ctx context.Context, req ListRequest) (query.Result, error) {
	c := req.Criterion
	if c == nil {
		c = query.New()
	}
	if c.Empty() && req.Page.Limit <= 0 {
		return query.Result{}, ErrUnboundedQuery
	}
	if err := Preprocess(ctx, c, s.zones); err != nil {
		return query.Result{}, err
	}
	sortKey := req.SortKey
	if sortKey == "" {
		sortKey = "name"
	}
	returned := req.Returned
	if returned == (query.Returned{}) {
		returned = query.DefaultReturned
	}

	plan := Plan(c, req.Columns, sortKey)
	dataPipe := plan.DataVariant(
		query.Sort{Key: sortKey, Descending: req.Descending},
		req.Columns, req.DropColumns, req.Page,
	)
	countPipe := plan.CountVariant()
	return query.Run(ctx, s.docs, docs.CollVolunteers, dataPipe, countPipe, returned)
}

// Get fetches one fully hydrated volunteer: the row merged with the default
// field template, pruned to the requested columns' top-level fields. A miss
// is a nil row, not an error.
func (s *Store) Get(ctx context.Context, userID string, columns []string) (bson.M, error) {
	c := query.New().Set("userID", query.Scalar(userID))
	res, err := s.List(ctx, ListRequest{Criterion: c, Columns: columns})
	if err != nil {
		return nil, err
	}
	if res.Total == 0 || len(res.Data) == 0 {
		return nil, nil
	}
	v := MergeDefaults(res.Data[0], volunteerDefaults)
	if columns != nil {
		pruned := bson.M{}
		for _, col := range columns {
			k := query.TopLevel(col)
			pruned[k] = v[k]
		}
		v = pruned
	}
	return v, nil
}

// Update patches an existing volunteer and stamps the audit fields. The
// updated document is returned.
func (s *Store) Update(ctx context.Context, actorID string, patch bson.M) (bson.M, error) {
	userID, _ := patch["userID"].(string)
	if userID == "" {
		return nil, ErrNotFound
	}
	patch["modified"] = time.Now().UTC()
	patch["modifiedBy"] = actorID
	updated, err := s.docs.UpdateOne(ctx, docs.CollVolunteers, bson.M{"userID": userID}, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	return updated, nil
}

// Create inserts a new volunteer with a generated identifier, the default
// field template, and creation audit stamps.
func (s *Store) Create(ctx context.Context, actorID string, volunteer bson.M) (bson.M, error) {
	doc := MergeDefaults(volunteer, volunteerDefaults)
	doc["userID"] = uuid.NewString()
	doc["created"] = time.Now().UTC()
	doc["createdBy"] = actorID
	if sec, ok := doc["security"].(bson.A); !ok || len(sec) == 0 {
		if role, _ := doc["role"].(string); role != "" {
			doc["security"] = securityDocs(models.DefaultSecurity(role))
		}
	}
	return s.docs.InsertOne(ctx, docs.CollVolunteers, doc)
}

// SecurityMatrixByUserID returns the authorization projection for a user.
func (s *Store) SecurityMatrixByUserID(ctx context.Context, userID string) (bson.M, error) {
	return s.securityMatrix(ctx, bson.M{"userID": userID})
}

// SecurityMatrixByEmail returns the authorization projection keyed by email.
func (s *Store) SecurityMatrixByEmail(ctx context.Context, email string) (bson.M, error) {
	return s.securityMatrix(ctx, bson.M{"email": email})
}

func (s *Store) securityMatrix(ctx context.Context, match bson.M) (bson.M, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$project", Value: bson.M{
			"_id":                 0,
			"userID":              1,
			"username":            1,
			"email":               1,
			"region":              1,
			"firstName":           1,
			"lastName":            1,
			"role":                1,
			"congregationID":      1,
			"assignedFacilities":  "$facilities.facilityID",
			"facilityAssignments": "$facilities.assignments",
			"security.module":     1,
			"security.access":     1,
			"security.level":      1,
			"isBranchRep":         1,
			"isICLWContact":       1,
			"isICLWVolunteer":     1,
			"isAllowedInterest":   1,
		}}},
	}
	rows, err := s.docs.Aggregate(ctx, docs.CollVolunteers, pipeline)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// UserIDsWithSecurity lists the identifiers of users holding a matching
// security assignment. Empty filter values are unconstrained.
func (s *Store) UserIDsWithSecurity(ctx context.Context, module, access, level string, page query.Page) ([]string, error) {
	match := bson.M{}
	if module != "" {
		match["security.module"] = module
	}
	if access != "" {
		match["security.access"] = access
	}
	if level != "" {
		match["security.level"] = level
	}
	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: bson.M{"path": "$security"}}},
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "userID": bson.M{"$addToSet": "$userID"}}}},
		{{Key: "$unwind", Value: bson.M{"path": "$userID"}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "userID": 1}}},
	}
	if page.Limit > 0 {
		pipeline = append(pipeline,
			bson.D{{Key: "$skip", Value: page.Offset}},
			bson.D{{Key: "$limit", Value: page.Limit}},
		)
	}
	rows, err := s.docs.Aggregate(ctx, docs.CollVolunteers, pipeline)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if id, ok := r["userID"].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// FacilitiesInReach lists the facilities reachable through the volunteer's
// congregation zones: the default candidate set when granting access.
func (s *Store) FacilitiesInReach(ctx context.Context, userID string) ([]bson.M, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userID": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         docs.CollCongregations,
			"localField":   "congregationID",
			"foreignField": "congregationID",
			"as":           "congregation",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         docs.CollFacilities,
			"localField":   "congregation.zones.zoneID",
			"foreignField": "zoneID",
			"as":           "facilities",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$facilities", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$match", Value: bson.M{"facilities.deleted": bson.M{"$ne": true}}}},
		{{Key: "$project", Value: bson.M{
			"_id":          0,
			"userID":       1,
			"facilityID":   "$facilities.facilityID",
			"locationName": "$facilities.locationName",
			"city":         "$facilities.city",
			"state":        "$facilities.state",
		}}},
	}
	return s.docs.Aggregate(ctx, docs.CollVolunteers, pipeline)
}

// CountByCongregation counts non-deleted volunteers in a congregation.
func (s *Store) CountByCongregation(ctx context.Context, congregationID string) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"congregationID": congregationID}}},
		{{Key: "$count", Value: "total"}},
	}
	return s.docs.AggregateCount(ctx, docs.CollVolunteers, pipeline)
}

// UsernameExists reports whether a username is already taken.
func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"username": username}}},
		{{Key: "$count", Value: "total"}},
	}
	n, err := s.docs.AggregateCount(ctx, docs.CollVolunteers, pipeline)
	return n > 0, err
}

// SetUILanguage records the volunteer's interface language preference.
func (s *Store) SetUILanguage(ctx context.Context, actorID, userID, language string) error {
	_, err := s.Update(ctx, actorID, bson.M{"userID": userID, "uiLanguage": language})
	return err
}

// SetPhoto points the volunteer's photo at a stored object key; an empty
// key clears it.
func (s *Store) SetPhoto(ctx context.Context, actorID, userID, objectKey string) (bson.M, error) {
	return s.Update(ctx, actorID, bson.M{"userID": userID, "photoLink": objectKey})
}

// SoftDelete flags the volunteer deleted without removing the document. The
// record is inactivated and its facility assignments cleared; back-reference
// cleanup is the caller's orchestration.
func (s *Store) SoftDelete(ctx context.Context, actorID, userID string) error {
	_, err := s.Update(ctx, actorID, bson.M{
		"userID":      userID,
		"status":      "inactive",
		"facilities":  bson.A{},
		"deleted":     true,
		"deletedDate": time.Now().UTC(),
		"deletedBy":   actorID,
	})
	return err
}

// HardDelete removes a volunteer document outright. It is a non-production
// escape hatch for test data; callers gate it on the environment.
func (s *Store) HardDelete(ctx context.Context, c *query.Criterion) (int64, error) {
	for _, key := range []string{"userID", "username"} {
		if v, ok := c.Field(key); ok && !v.IsList() {
			return s.docs.DeleteOne(ctx, docs.CollVolunteers, bson.M{key: v.Scalar()})
		}
	}
	return 0, nil
}

// ClearICLWApprovals flips off the ICLW assignment flag on every facility
// assignment the volunteer holds.
func (s *Store) ClearICLWApprovals(ctx context.Context, userID string) error {
	_, err := s.docs.UpdateMany(ctx, docs.CollVolunteers,
		bson.M{"userID": userID},
		bson.M{"$set": bson.M{"facilities.$[].assignments.iclw": false}},
	)
	if err != nil {
		s.log.Error("clear iclw approvals", zap.String("userID", userID), zap.Error(err))
	}
	return err
}

func securityDocs(assignments []models.SecurityAssignment) bson.A {
	out := make(bson.A, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, bson.M{"module": a.Module, "access": a.Access, "level": a.Level})
	}
	return out
}
