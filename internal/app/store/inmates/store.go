// internal/app/store/inmates/store.go
package inmates

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/gateaccess/gateaccess/internal/app/store/docs"
)

// Store covers the inmate associations the volunteer core reads and
// compensates against: who a volunteer corresponds with or visits in
// person, per facility.
type Store struct {
	docs docs.Store
	log  *zap.Logger
}

func New(d docs.Store, log *zap.Logger) *Store {
	return &Store{docs: d, log: log}
}

// Assignment is one inmate association row for a volunteer at a facility.
type Assignment struct {
	FacilityID   string `bson:"facilityID" json:"facilityID"`
	InmateID     string `bson:"inmateID" json:"inmateID"`
	Name         string `bson:"name" json:"name"`
	PhotoLink    string `bson:"photoLink" json:"photoLink"`
	InmateNumber string `bson:"inmateNumber" json:"inmateNumber"`
}

// AssignedCorrespondence lists the inmates the volunteer corresponds with,
// restricted to the given facilities.
func (s *Store) AssignedCorrespondence(ctx context.Context, userID string, facilityIDs []string) ([]Assignment, error) {
	return s.assigned(ctx, "assignedCorrespondence", userID, facilityIDs)
}

// AssignedInPerson lists the inmates the volunteer visits in person,
// restricted to the given facilities.
func (s *Store) AssignedInPerson(ctx context.Context, userID string, facilityIDs []string) ([]Assignment, error) {
	return s.assigned(ctx, "assignedInPerson", userID, facilityIDs)
}

func (s *Store) assigned(ctx context.Context, field, userID string, facilityIDs []string) ([]Assignment, error) {
	ids := make(bson.A, 0, len(facilityIDs))
	for _, f := range facilityIDs {
		ids = append(ids, f)
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			field + ".userID": userID,
			"facilityID":      bson.M{"$in": ids},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":          0,
			"facilityID":   1,
			"inmateID":     1,
			"inmateNumber": 1,
			"photoLink":    1,
			"name": bson.M{"$concat": bson.A{
				bson.M{"$ifNull": bson.A{"$lastName", ""}},
				", ",
				bson.M{"$ifNull": bson.A{"$firstName", ""}},
			}},
		}}},
	}
	rows, err := s.docs.Aggregate(ctx, docs.CollInmates, pipeline)
	if err != nil {
		return nil, err
	}
	out := make([]Assignment, 0, len(rows))
	for _, r := range rows {
		a := Assignment{}
		a.FacilityID, _ = r["facilityID"].(string)
		a.InmateID, _ = r["inmateID"].(string)
		a.Name, _ = r["name"].(string)
		a.PhotoLink, _ = r["photoLink"].(string)
		a.InmateNumber, _ = r["inmateNumber"].(string)
		out = append(out, a)
	}
	return out, nil
}

// RemoveCorrespondent drops the volunteer from every correspondence
// association at the facility.
func (s *Store) RemoveCorrespondent(ctx context.Context, userID, facilityID string) error {
	return s.removeAssociation(ctx, "assignedCorrespondence", userID, facilityID)
}

// RemoveInPersonVisitor drops the volunteer from every in-person
// association at the facility.
func (s *Store) RemoveInPersonVisitor(ctx context.Context, userID, facilityID string) error {
	return s.removeAssociation(ctx, "assignedInPerson", userID, facilityID)
}

func (s *Store) removeAssociation(ctx context.Context, field, userID, facilityID string) error {
	_, err := s.docs.UpdateMany(ctx, docs.CollInmates,
		bson.M{"facilityID": facilityID},
		bson.M{"$pull": bson.M{field: bson.M{"userID": userID}}},
	)
	if err != nil {
		s.log.Warn("remove inmate association",
			zap.String("field", field),
			zap.String("facilityID", facilityID),
			zap.String("userID", userID),
			zap.Error(err))
	}
	return err
}
