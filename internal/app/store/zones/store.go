// internal/app/store/zones/store.go
package zones

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/gateaccess/gateaccess/internal/app/query"
	"github.com/gateaccess/gateaccess/internal/app/store/docs"
)

// Store owns zone documents: the contact back-references mirrored by the
// orchestrator and the identifier resolution the volunteer criteria
// preprocessor delegates here.
type Store struct {
	docs docs.Store
	log  *zap.Logger
}

func New(d docs.Store, log *zap.Logger) *Store {
	return &Store{docs: d, log: log}
}

// ResolveZoneIDs answers an indirect zone criterion with the matching zone
// identifiers. contactId matches either back-reference; primaryContactId
// and assistantContactId match their own.
func (s *Store) ResolveZoneIDs(ctx context.Context, c *query.Criterion) ([]string, error) {
	var ors []bson.M
	if m, ok := query.Match(c, "primaryContactId", "contactID", false); ok {
		ors = append(ors, m)
	}
	if m, ok := query.Match(c, "assistantContactId", "assistantContacts", false); ok {
		ors = append(ors, m)
	}
	if m, ok := query.MatchAny(c, "contactId", "contactID", "assistantContacts"); ok {
		ors = append(ors, m)
	}
	if len(ors) == 0 {
		return nil, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": ors}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "zoneID": 1}}},
	}
	rows, err := s.docs.Aggregate(ctx, docs.CollZones, pipeline)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if id, ok := r["zoneID"].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// AddContact records the volunteer as the zone's primary or assistant
// contact. Idempotent, replayable by the orchestrator.
func (s *Store) AddContact(ctx context.Context, zoneID, userID string, primary bool) error {
	var update bson.M
	if primary {
		update = bson.M{
			"$set":  bson.M{"contactID": userID},
			"$pull": bson.M{"assistantContacts": userID},
		}
	} else {
		update = bson.M{
			"$addToSet": bson.M{"assistantContacts": userID},
		}
	}
	_, err := s.docs.UpdateMany(ctx, docs.CollZones, bson.M{"zoneID": zoneID}, update)
	if err != nil {
		s.log.Warn("add zone contact",
			zap.String("zoneID", zoneID), zap.String("userID", userID), zap.Error(err))
	}
	return err
}

// RemoveContact clears every back-reference the zone holds to the volunteer.
func (s *Store) RemoveContact(ctx context.Context, zoneID, userID string) error {
	_, err := s.docs.UpdateMany(ctx, docs.CollZones,
		bson.M{"zoneID": zoneID, "contactID": userID},
		bson.M{"$set": bson.M{"contactID": nil}},
	)
	if err == nil {
		_, err = s.docs.UpdateMany(ctx, docs.CollZones,
			bson.M{"zoneID": zoneID},
			bson.M{"$pull": bson.M{"assistantContacts": userID}},
		)
	}
	if err != nil {
		s.log.Warn("remove zone contact",
			zap.String("zoneID", zoneID), zap.String("userID", userID), zap.Error(err))
	}
	return err
}

// ZoneContact is a zone contact identity row joined against the volunteer
// collection.
type ZoneContact struct {
	ZoneID    string `bson:"zoneID" json:"zoneID"`
	UserID    string `bson:"userID" json:"userID"`
	Email     string `bson:"email" json:"email"`
	FirstName string `bson:"firstName" json:"firstName"`
	LastName  string `bson:"lastName" json:"lastName"`
	IsPrimary bool   `bson:"isPrimary" json:"isPrimary"`
}

// Contacts resolves the primary and assistant contact identities of the
// given zones. Zones without a contact contribute no rows.
func (s *Store) Contacts(ctx context.Context, zoneIDs []string) ([]ZoneContact, error) {
	primary, err := s.contactRows(ctx, zoneIDs, "contactID", true)
	if err != nil {
		return nil, err
	}
	assistants, err := s.contactRows(ctx, zoneIDs, "assistantContacts", false)
	if err != nil {
		return nil, err
	}
	return append(primary, assistants...), nil
}

func (s *Store) contactRows(ctx context.Context, zoneIDs []string, field string, primary bool) ([]ZoneContact, error) {
	ids := make(bson.A, 0, len(zoneIDs))
	for _, z := range zoneIDs {
		ids = append(ids, z)
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"zoneID": bson.M{"$in": ids}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         docs.CollVolunteers,
			"localField":   field,
			"foreignField": "userID",
			"as":           "contact",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$contact"}}},
		{{Key: "$project", Value: bson.M{
			"_id":       0,
			"zoneID":    1,
			"userID":    "$contact.userID",
			"email":     "$contact.email",
			"firstName": "$contact.firstName",
			"lastName":  "$contact.lastName",
		}}},
	}
	rows, err := s.docs.Aggregate(ctx, docs.CollZones, pipeline)
	if err != nil {
		return nil, err
	}
	out := make([]ZoneContact, 0, len(rows))
	for _, r := range rows {
		c := ZoneContact{IsPrimary: primary}
		c.ZoneID, _ = r["zoneID"].(string)
		c.UserID, _ = r["userID"].(string)
		c.Email, _ = r["email"].(string)
		c.FirstName, _ = r["firstName"].(string)
		c.LastName, _ = r["lastName"].(string)
		if c.UserID != "" {
			out = append(out, c)
		}
	}
	return out, nil
}
