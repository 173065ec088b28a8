// internal/app/store/meetings/store.go
package meetings

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gateaccess/gateaccess/internal/app/store/docs"
)

// Store covers the meeting-part assignments the volunteer core reads for
// access views and compensates against on access removal.
type Store struct {
	docs docs.Store
	log  *zap.Logger
}

func New(d docs.Store, log *zap.Logger) *Store {
	return &Store{docs: d, log: log}
}

// FutureAssignments lists the facility identifiers of meetings after the
// given instant where the volunteer holds a part assignment.
func (s *Store) FutureAssignments(ctx context.Context, userID string, facilityIDs []string, after time.Time) ([]string, error) {
	ids := make(bson.A, 0, len(facilityIDs))
	for _, f := range facilityIDs {
		ids = append(ids, f)
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"facilityID":           bson.M{"$in": ids},
			"meetingDate":          bson.M{"$gte": after},
			"parts.assignedUserID": userID,
		}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "facilityID": 1}}},
	}
	rows, err := s.docs.Aggregate(ctx, docs.CollMeetings, pipeline)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if id, ok := r["facilityID"].(string); ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// DeclineParts releases the volunteer's part assignments on meetings at or
// after the given instant, leaving those parts unassigned. Parts held by
// other volunteers and past meetings are untouched, so each meeting's part
// list is rewritten individually rather than patched with a positional
// update.
func (s *Store) DeclineParts(ctx context.Context, userID string, after time.Time) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"meetingDate":          bson.M{"$gte": after},
			"parts.assignedUserID": userID,
		}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "meetingID": 1, "parts": 1}}},
	}
	rows, err := s.docs.Aggregate(ctx, docs.CollMeetings, pipeline)
	if err != nil {
		return err
	}
	var errs error
	for _, m := range rows {
		parts, changed := releaseParts(m["parts"], userID)
		if !changed {
			continue
		}
		if _, err := s.docs.UpdateOne(ctx, docs.CollMeetings,
			bson.M{"meetingID": m["meetingID"]},
			bson.M{"parts": parts},
		); err != nil {
			s.log.Warn("decline meeting part",
				zap.Any("meetingID", m["meetingID"]),
				zap.String("userID", userID),
				zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// releaseParts nulls assignedUserID on the parts the volunteer holds and
// reports whether anything changed.
func releaseParts(raw any, userID string) (bson.A, bool) {
	var entries []bson.M
	switch t := raw.(type) {
	case bson.A:
		for _, e := range t {
			if m, ok := e.(bson.M); ok {
				entries = append(entries, m)
			}
		}
	case []bson.M:
		entries = t
	}
	out := make(bson.A, 0, len(entries))
	changed := false
	for _, p := range entries {
		if id, _ := p["assignedUserID"].(string); id == userID {
			np := bson.M{}
			for k, v := range p {
				np[k] = v
			}
			np["assignedUserID"] = nil
			out = append(out, np)
			changed = true
			continue
		}
		out = append(out, p)
	}
	return out, changed
}
