// internal/app/store/volunteers/documents.go
package volunteers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gateaccess/gateaccess/internal/app/query"
	"github.com/gateaccess/gateaccess/internal/app/store/docs"
)

// documentSearchFields are the paths a document-list search term matches.
var documentSearchFields = []string{
	"uploadedBy.firstName",
	"uploadedBy.lastName",
	"uploadedBy.email",
	"documentID",
	"documentLink",
	"documentType",
	"associationName",
	"documentDescription",
	"documentOwner",
}

// DocumentListRequest scopes a volunteer document listing.
type DocumentListRequest struct {
	Match      bson.M
	SearchTerm string
	SortKey    string
	Descending bool
	Page       query.Page
}

// DocumentList joins volunteers to their uploaded documents (keyed by the
// volunteer's email) and the uploading user, flattening one row per
// document. The count is taken before pagination.
func (s *Store) DocumentList(ctx context.Context, req DocumentListRequest) (query.Result, error) {
	sortKey := req.SortKey
	if sortKey == "" {
		sortKey = "documentType"
	}
	dir := 1
	if req.Descending {
		dir = -1
	}

	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         docs.CollDocuments,
			"localField":   "email",
			"foreignField": "associationName",
			"as":           "documents",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$documents", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         docs.CollVolunteers,
			"localField":   "documents.documentOwner",
			"foreignField": "email",
			"as":           "uploadedBy",
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":                 0,
			"userID":              1,
			"status":              1,
			"region":              1,
			"documentID":          "$documents.documentID",
			"documentLink":        "$documents.documentLink",
			"documentType":        "$documents.documentType",
			"documentAssociation": "$documents.documentAssociation",
			"associationName":     "$documents.associationName",
			"documentDescription": "$documents.documentDescription",
			"documentOwner":       "$documents.documentOwner",
			"deleted":             "$documents.deleted",
			"created":             "$documents.created",
			"uploadedBy":          bson.M{"$arrayElemAt": bson.A{"$uploadedBy", 0}},
		}}},
	}
	if len(req.Match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: req.Match}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$project", Value: bson.M{
		"userID":               1,
		"documentID":           1,
		"documentLink":         1,
		"documentType":         1,
		"documentAssociation":  1,
		"associationName":      1,
		"documentDescription":  1,
		"documentOwner":        1,
		"deleted":              1,
		"status":               1,
		"uploadedBy.userID":    "$uploadedBy.userID",
		"uploadedBy.firstName": "$uploadedBy.firstName",
		"uploadedBy.lastName":  "$uploadedBy.lastName",
		"uploadedBy.email":     "$uploadedBy.email",
		"uploadedBy.photo":     "$uploadedBy.photoLink",
		"created":              1,
	}}})
	if req.SearchTerm != "" {
		ors := make([]bson.M, 0, len(documentSearchFields))
		for _, f := range documentSearchFields {
			ors = append(ors, bson.M{f: bson.M{"$regex": req.SearchTerm, "$options": "i"}})
		}
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"$or": ors}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{{Key: sortKey, Value: dir}}}})

	countPipe := append(append(mongo.Pipeline{}, pipeline...), bson.D{{Key: "$count", Value: "total"}})
	if req.Page.Limit > 0 {
		pipeline = append(pipeline,
			bson.D{{Key: "$skip", Value: req.Page.Offset}},
			bson.D{{Key: "$limit", Value: req.Page.Limit}},
		)
	}
	return query.Run(ctx, s.docs, docs.CollVolunteers, pipeline, countPipe, query.DefaultReturned)
}

// SaveDocument inserts or updates a volunteer document record. A new record
// gets a generated documentID.
func (s *Store) SaveDocument(ctx context.Context, actorID string, doc bson.M) (bson.M, error) {
	documentID, _ := doc["documentID"].(string)
	if documentID == "" {
		doc["documentID"] = uuid.NewString()
		doc["created"] = time.Now().UTC()
		doc["createdBy"] = actorID
		doc["deleted"] = false
		return s.docs.InsertOne(ctx, docs.CollDocuments, doc)
	}
	doc["modified"] = time.Now().UTC()
	doc["modifiedBy"] = actorID
	updated, err := s.docs.UpdateOne(ctx, docs.CollDocuments, bson.M{"documentID": documentID}, doc)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	return updated, nil
}

// SoftDeleteDocument flags a document deleted without removing the record.
func (s *Store) SoftDeleteDocument(ctx context.Context, actorID, documentID string) error {
	updated, err := s.docs.UpdateOne(ctx, docs.CollDocuments,
		bson.M{"documentID": documentID},
		bson.M{"deleted": true, "deletedDate": time.Now().UTC(), "deletedBy": actorID},
	)
	if err != nil {
		return err
	}
	if updated == nil {
		return ErrNotFound
	}
	return nil
}
