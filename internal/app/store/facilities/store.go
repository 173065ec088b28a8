// internal/app/store/facilities/store.go
package facilities

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/gateaccess/gateaccess/internal/app/store/docs"
)

// Store owns the facility contact back-references. The primary contact is
// stored as the volunteer's email in the overseer field; assistants are a
// set of volunteer identifiers.
type Store struct {
	docs docs.Store
	log  *zap.Logger
}

func New(d docs.Store, log *zap.Logger) *Store {
	return &Store{docs: d, log: log}
}

// ContactState is a facility's contact back-references with the primary
// contact resolved to an identity.
type ContactState struct {
	FacilityID        string
	Overseer          string // primary contact email, empty when unset
	AssistantContacts []string
	PrimaryUserID     string // resolved from Overseer, empty when unset
}

// ContactState fetches one facility's contact references, joining the
// overseer email back to the volunteer collection to recover the userID.
func (s *Store) ContactState(ctx context.Context, facilityID string) (*ContactState, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"facilityID": facilityID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         docs.CollVolunteers,
			"localField":   "overseer",
			"foreignField": "email",
			"as":           "primaryContact",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$primaryContact", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{
			"_id":               0,
			"facilityID":        1,
			"overseer":          1,
			"assistantContacts": 1,
			"primaryUserID":     "$primaryContact.userID",
		}}},
	}
	rows, err := s.docs.Aggregate(ctx, docs.CollFacilities, pipeline)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	r := rows[0]
	st := &ContactState{FacilityID: facilityID}
	st.Overseer, _ = r["overseer"].(string)
	st.PrimaryUserID, _ = r["primaryUserID"].(string)
	if arr, ok := r["assistantContacts"].(bson.A); ok {
		for _, a := range arr {
			if id, ok := a.(string); ok {
				st.AssistantContacts = append(st.AssistantContacts, id)
			}
		}
	} else if arr, ok := r["assistantContacts"].([]any); ok {
		for _, a := range arr {
			if id, ok := a.(string); ok {
				st.AssistantContacts = append(st.AssistantContacts, id)
			}
		}
	}
	return st, nil
}

// SetPrimaryContact points the facility's overseer at the volunteer's email
// and drops the volunteer from the assistant set.
func (s *Store) SetPrimaryContact(ctx context.Context, facilityID, email, userID string) error {
	_, err := s.docs.UpdateMany(ctx, docs.CollFacilities,
		bson.M{"facilityID": facilityID},
		bson.M{
			"$set":  bson.M{"overseer": email},
			"$pull": bson.M{"assistantContacts": userID},
		},
	)
	if err != nil {
		s.log.Warn("set facility primary contact",
			zap.String("facilityID", facilityID), zap.String("userID", userID), zap.Error(err))
	}
	return err
}

// AddAssistantContact adds the volunteer to the assistant set; if the
// volunteer was the primary contact the overseer reference is cleared
// first.
func (s *Store) AddAssistantContact(ctx context.Context, facilityID, email, userID string) error {
	_, err := s.docs.UpdateMany(ctx, docs.CollFacilities,
		bson.M{"facilityID": facilityID, "overseer": email},
		bson.M{"$set": bson.M{"overseer": nil}},
	)
	if err == nil {
		_, err = s.docs.UpdateMany(ctx, docs.CollFacilities,
			bson.M{"facilityID": facilityID},
			bson.M{"$addToSet": bson.M{"assistantContacts": userID}},
		)
	}
	if err != nil {
		s.log.Warn("add facility assistant contact",
			zap.String("facilityID", facilityID), zap.String("userID", userID), zap.Error(err))
	}
	return err
}

// RemoveContact clears the facility's references to the volunteer. An empty
// facilityID clears them across every facility, used when a volunteer stops
// being a facility contact entirely.
func (s *Store) RemoveContact(ctx context.Context, facilityID, email, userID string) error {
	primaryFilter := bson.M{"overseer": email}
	allFilter := bson.M{}
	if facilityID != "" {
		primaryFilter["facilityID"] = facilityID
		allFilter["facilityID"] = facilityID
	}
	_, err := s.docs.UpdateMany(ctx, docs.CollFacilities,
		primaryFilter,
		bson.M{"$set": bson.M{"overseer": nil}},
	)
	if err == nil {
		_, err = s.docs.UpdateMany(ctx, docs.CollFacilities,
			allFilter,
			bson.M{"$pull": bson.M{"assistantContacts": userID}},
		)
	}
	if err != nil {
		s.log.Warn("remove facility contact",
			zap.String("facilityID", facilityID), zap.String("userID", userID), zap.Error(err))
	}
	return err
}

// Summaries fetches display fields for one facility, used when assembling
// an access view for a facility the volunteer holds no assignment at yet.
func (s *Store) Summary(ctx context.Context, facilityID string) (bson.M, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"facilityID": facilityID}}},
		{{Key: "$project", Value: bson.M{
			"_id":               0,
			"facilityID":        1,
			"locationName":      1,
			"city":              1,
			"state":             1,
			"gender":            1,
			"zoneID":            1,
			"overseer":          1,
			"assistantContacts": 1,
		}}},
	}
	rows, err := s.docs.Aggregate(ctx, docs.CollFacilities, pipeline)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}
