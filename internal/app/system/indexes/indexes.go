// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/gateaccess/gateaccess/internal/app/store/docs"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureVolunteers(ctx, db); err != nil {
		problems = append(problems, docs.CollVolunteers+": "+err.Error())
	}
	if err := ensureFacilities(ctx, db); err != nil {
		problems = append(problems, docs.CollFacilities+": "+err.Error())
	}
	if err := ensureCongregations(ctx, db); err != nil {
		problems = append(problems, docs.CollCongregations+": "+err.Error())
	}
	if err := ensureZones(ctx, db); err != nil {
		problems = append(problems, docs.CollZones+": "+err.Error())
	}
	if err := ensureRegions(ctx, db); err != nil {
		problems = append(problems, docs.CollRegions+": "+err.Error())
	}
	if err := ensureInmates(ctx, db); err != nil {
		problems = append(problems, docs.CollInmates+": "+err.Error())
	}
	if err := ensureMeetings(ctx, db); err != nil {
		problems = append(problems, docs.CollMeetings+": "+err.Error())
	}
	if err := ensureDocuments(ctx, db); err != nil {
		problems = append(problems, docs.CollDocuments+": "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameUnique(a, b *bool) bool {
	av := a != nil && *a
	bv := b != nil && *b
	return av == bv
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// ensureIndexSet reconciles the desired indexes for one collection against
// what exists: same keys and options are reused, a name or option mismatch
// drops and recreates.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err == nil {
		for cur.Next(ctx) {
			var idx existingIndex
			if err := cur.Decode(&idx); err != nil {
				zap.L().Warn("decode existing index",
					zap.String("collection", coll.Name()), zap.Error(err))
				continue
			}
			existing[keySig(idx.Key)] = idx
		}
		cur.Close(ctx)
	}

	var errs []string
	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))

		if ex, ok := existing[sig]; ok {
			if sameUnique(desiredUnique, ex.Unique) && (desiredName == "" || ex.Name == desiredName) {
				continue
			}
			// Name or options mismatch: drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			continue
		}
		zap.L().Info("index created",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", sig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func ensureVolunteers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection(docs.CollVolunteers)
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userID", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_userid"),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("idx_users_username"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_users_email"),
		},
		// Listing default sort and the soft-delete guard.
		{
			Keys: bson.D{
				{Key: "deleted", Value: 1},
				{Key: "lastName", Value: 1},
				{Key: "firstName", Value: 1},
			},
			Options: options.Index().SetName("idx_users_deleted_name"),
		},
		{
			Keys:    bson.D{{Key: "congregationID", Value: 1}},
			Options: options.Index().SetName("idx_users_congregation"),
		},
		{
			Keys:    bson.D{{Key: "facilities.facilityID", Value: 1}},
			Options: options.Index().SetName("idx_users_facility"),
		},
	})
}

func ensureFacilities(ctx context.Context, db *mongo.Database) error {
	c := db.Collection(docs.CollFacilities)
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "facilityID", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_facilities_facilityid"),
		},
		{
			Keys:    bson.D{{Key: "zoneID", Value: 1}},
			Options: options.Index().SetName("idx_facilities_zone"),
		},
		// Contact back-reference lookups on removal.
		{
			Keys:    bson.D{{Key: "overseer", Value: 1}},
			Options: options.Index().SetName("idx_facilities_overseer"),
		},
		{
			Keys:    bson.D{{Key: "assistantContacts", Value: 1}},
			Options: options.Index().SetName("idx_facilities_assistants"),
		},
	})
}

func ensureCongregations(ctx context.Context, db *mongo.Database) error {
	c := db.Collection(docs.CollCongregations)
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "congregationID", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_congregations_congregationid"),
		},
		{
			Keys:    bson.D{{Key: "zones.zoneID", Value: 1}},
			Options: options.Index().SetName("idx_congregations_zones"),
		},
	})
}

func ensureZones(ctx context.Context, db *mongo.Database) error {
	c := db.Collection(docs.CollZones)
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "zoneID", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_zones_zoneid"),
		},
		{
			Keys:    bson.D{{Key: "contactID", Value: 1}},
			Options: options.Index().SetName("idx_zones_contact"),
		},
		{
			Keys:    bson.D{{Key: "assistantContacts", Value: 1}},
			Options: options.Index().SetName("idx_zones_assistants"),
		},
	})
}

func ensureRegions(ctx context.Context, db *mongo.Database) error {
	c := db.Collection(docs.CollRegions)
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "region", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_regions_region"),
		},
	})
}

func ensureInmates(ctx context.Context, db *mongo.Database) error {
	c := db.Collection(docs.CollInmates)
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "inmateID", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_inmates_inmateid"),
		},
		{
			Keys:    bson.D{{Key: "facilityID", Value: 1}},
			Options: options.Index().SetName("idx_inmates_facility"),
		},
		{
			Keys:    bson.D{{Key: "assignedCorrespondence.userID", Value: 1}},
			Options: options.Index().SetName("idx_inmates_correspondence_user"),
		},
		{
			Keys:    bson.D{{Key: "assignedInPerson.userID", Value: 1}},
			Options: options.Index().SetName("idx_inmates_inperson_user"),
		},
	})
}

func ensureMeetings(ctx context.Context, db *mongo.Database) error {
	c := db.Collection(docs.CollMeetings)
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "facilityID", Value: 1},
				{Key: "meetingDate", Value: 1},
			},
			Options: options.Index().SetName("idx_meetings_facility_date"),
		},
		{
			Keys:    bson.D{{Key: "parts.assignedUserID", Value: 1}},
			Options: options.Index().SetName("idx_meetings_assigned_user"),
		},
	})
}

func ensureDocuments(ctx context.Context, db *mongo.Database) error {
	c := db.Collection(docs.CollDocuments)
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "associationName", Value: 1}},
			Options: options.Index().SetName("idx_documents_association"),
		},
		{
			Keys:    bson.D{{Key: "documentID", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_documents_documentid"),
		},
	})
}
