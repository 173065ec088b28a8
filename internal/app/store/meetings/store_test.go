// internal/app/store/meetings/store_test.go
package meetings_test

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/gateaccess/gateaccess/internal/app/store/docs"
	"github.com/gateaccess/gateaccess/internal/app/store/meetings"
	"github.com/gateaccess/gateaccess/internal/testutil"
)

var anchor = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedMeetings(fake *testutil.FakeDocs) {
	fake.Seed(docs.CollMeetings,
		bson.M{
			"meetingID": "m1", "facilityID": "f1",
			"meetingDate": anchor.Add(48 * time.Hour),
			"parts": bson.A{
				bson.M{"partID": "opening", "assignedUserID": "u2"},
				bson.M{"partID": "talk", "assignedUserID": "u1"},
			},
		},
		bson.M{
			"meetingID": "m2", "facilityID": "f2",
			"meetingDate": anchor.Add(72 * time.Hour),
			"parts": bson.A{
				bson.M{"partID": "opening", "assignedUserID": "u1"},
			},
		},
		bson.M{
			"meetingID": "m3", "facilityID": "f1",
			"meetingDate": anchor.Add(-48 * time.Hour),
			"parts": bson.A{
				bson.M{"partID": "talk", "assignedUserID": "u1"},
			},
		},
	)
}

func meetingDoc(t *testing.T, fake *testutil.FakeDocs, meetingID string) bson.M {
	t.Helper()
	for _, d := range fake.Docs(docs.CollMeetings) {
		if d["meetingID"] == meetingID {
			return d
		}
	}
	t.Fatalf("meeting %s not found", meetingID)
	return nil
}

func partAssignee(t *testing.T, doc bson.M, partID string) any {
	t.Helper()
	var raw []any
	switch v := doc["parts"].(type) {
	case bson.A:
		raw = v
	case []any:
		raw = v
	}
	for _, e := range raw {
		if m, ok := e.(bson.M); ok && m["partID"] == partID {
			return m["assignedUserID"]
		}
	}
	t.Fatalf("part %s not found in %v", partID, doc["meetingID"])
	return nil
}

func TestFutureAssignmentsBounds(t *testing.T) {
	fake := testutil.NewFakeDocs()
	seedMeetings(fake)
	s := meetings.New(fake, zap.NewNop())

	// m3 is in the past, m2 is outside the facility scope.
	got, err := s.FutureAssignments(context.Background(), "u1", []string{"f1"}, anchor)
	if err != nil {
		t.Fatalf("future assignments: %v", err)
	}
	if len(got) != 1 || got[0] != "f1" {
		t.Fatalf("facilities = %v, want [f1]", got)
	}

	got, err = s.FutureAssignments(context.Background(), "u1", []string{"f1", "f2"}, anchor)
	if err != nil {
		t.Fatalf("future assignments: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("facilities = %v, want both f1 and f2", got)
	}
}

func TestFutureAssignmentsUnassignedVolunteer(t *testing.T) {
	fake := testutil.NewFakeDocs()
	seedMeetings(fake)
	s := meetings.New(fake, zap.NewNop())

	got, err := s.FutureAssignments(context.Background(), "u9", []string{"f1", "f2"}, anchor)
	if err != nil || len(got) != 0 {
		t.Fatalf("facilities = %v err = %v, want none", got, err)
	}
}

func TestDeclinePartsReleasesOnlyOwnParts(t *testing.T) {
	fake := testutil.NewFakeDocs()
	seedMeetings(fake)
	s := meetings.New(fake, zap.NewNop())

	if err := s.DeclineParts(context.Background(), "u1", anchor); err != nil {
		t.Fatalf("decline parts: %v", err)
	}

	m1 := meetingDoc(t, fake, "m1")
	if got := partAssignee(t, m1, "talk"); got != nil {
		t.Fatalf("m1 talk assignee = %v, want released", got)
	}
	// The other volunteer keeps their assignment on the same meeting.
	if got := partAssignee(t, m1, "opening"); got != "u2" {
		t.Fatalf("m1 opening assignee = %v, want u2", got)
	}
	if got := partAssignee(t, meetingDoc(t, fake, "m2"), "opening"); got != nil {
		t.Fatalf("m2 opening assignee = %v, want released", got)
	}
}

func TestDeclinePartsLeavesPastMeetings(t *testing.T) {
	fake := testutil.NewFakeDocs()
	seedMeetings(fake)
	s := meetings.New(fake, zap.NewNop())

	if err := s.DeclineParts(context.Background(), "u1", anchor); err != nil {
		t.Fatalf("decline parts: %v", err)
	}
	if got := partAssignee(t, meetingDoc(t, fake, "m3"), "talk"); got != "u1" {
		t.Fatalf("m3 talk assignee = %v, want untouched past meeting", got)
	}
}

func TestDeclinePartsReplayIsIdempotent(t *testing.T) {
	fake := testutil.NewFakeDocs()
	seedMeetings(fake)
	s := meetings.New(fake, zap.NewNop())

	for i := 0; i < 2; i++ {
		if err := s.DeclineParts(context.Background(), "u1", anchor); err != nil {
			t.Fatalf("decline parts (pass %d): %v", i, err)
		}
	}
	m1 := meetingDoc(t, fake, "m1")
	if got := partAssignee(t, m1, "opening"); got != "u2" {
		t.Fatalf("m1 opening assignee = %v, want u2", got)
	}
	if got := partAssignee(t, m1, "talk"); got != nil {
		t.Fatalf("m1 talk assignee = %v, want released", got)
	}
}
