// internal/app/store/regions/store.go
package regions

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/gateaccess/gateaccess/internal/app/store/docs"
)

// Store owns the region contact back-references: contactID for the primary
// contact and the assistantContacts set.
type Store struct {
	docs docs.Store
	log  *zap.Logger
}

func New(d docs.Store, log *zap.Logger) *Store {
	return &Store{docs: d, log: log}
}

// AddContact records the volunteer as the region's primary or assistant
// contact. Adding a primary displaces nothing else; adding an assistant
// clears a stale primary reference to the same volunteer. The write is
// idempotent, so the orchestrator can replay it.
func (s *Store) AddContact(ctx context.Context, regionName, userID string, primary bool) error {
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
	_, err := s.docs.UpdateMany(ctx, docs.CollRegions, bson.M{"region": regionName}, update)
	if err != nil {
		s.log.Warn("add region contact",
			zap.String("region", regionName), zap.String("userID", userID), zap.Error(err))
	}
	return err
}

// RemoveContact clears every back-reference the region holds to the
// volunteer, both primary and assistant.
func (s *Store) RemoveContact(ctx context.Context, regionName, userID string) error {
	_, err := s.docs.UpdateMany(ctx, docs.CollRegions,
		bson.M{"region": regionName, "contactID": userID},
		bson.M{"$set": bson.M{"contactID": nil}},
	)
	if err == nil {
		_, err = s.docs.UpdateMany(ctx, docs.CollRegions,
			bson.M{"region": regionName},
			bson.M{"$pull": bson.M{"assistantContacts": userID}},
		)
	}
	if err != nil {
		s.log.Warn("remove region contact",
			zap.String("region", regionName), zap.String("userID", userID), zap.Error(err))
	}
	return err
}
