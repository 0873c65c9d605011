package query

import (
	"testing"
	"time"

	"driveassist/internal/apperr"
	"driveassist/internal/models"
	"driveassist/internal/trips"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestDayWindow(t *testing.T) {
	start, end, err := DayWindow("2024-06-01")
	if err != nil {
		t.Fatalf("DayWindow: %v", err)
	}
	if !start.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	if !end.Equal(time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", end)
	}

	// Boundary semantics: start-of-day inclusive, next start-of-day exclusive.
	if start.After(start) || !start.Before(end) {
		t.Error("window is not half-open")
	}
}

func TestDayWindowInvalid(t *testing.T) {
	for _, date := range []string{"junk", "01-06-2024", "2024-13-40", ""} {
		if _, _, err := DayWindow(date); apperr.Status(err) != 400 {
			t.Errorf("DayWindow(%q): status = %d, want 400", date, apperr.Status(err))
		}
	}
}

func TestDriveTime(t *testing.T) {
	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	open := models.Trip{StartTime: start}
	if got := DriveTime(open); got != nil {
		t.Errorf("open trip drive time = %v, want nil", *got)
	}

	closed := models.Trip{StartTime: start, StopTime: timePtr(start.Add(42*time.Second + 700*time.Millisecond))}
	if got := DriveTime(closed); got == nil || *got != 42 {
		t.Errorf("drive time = %v, want 42 whole seconds", got)
	}

	// Clock drift: stop before start clamps to zero instead of going negative.
	drifted := models.Trip{StartTime: start, StopTime: timePtr(start.Add(-time.Minute))}
	if got := DriveTime(drifted); got == nil || *got != 0 {
		t.Errorf("drifted drive time = %v, want 0", got)
	}
}

func mustPath(t *testing.T, points []trips.Point) []byte {
	t.Helper()
	data, err := trips.EncodePath(points)
	if err != nil {
		t.Fatalf("EncodePath: %v", err)
	}
	return data
}

func TestNewTripView(t *testing.T) {
	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	trip := models.Trip{
		TripID:         "t1",
		StartLatitude:  12.97,
		StartLongitude: 77.59,
		EndLatitude:    12.99,
		EndLongitude:   77.61,
		TraveledPath:   mustPath(t, []trips.Point{{Latitude: 12.97, Longitude: 77.59}, {Latitude: 12.99, Longitude: 77.61}}),
		StartTime:      start,
		StopTime:       timePtr(start.Add(10 * time.Minute)),
		TotalDistance:  3.4,
	}

	view, err := NewTripView(trip)
	if err != nil {
		t.Fatalf("NewTripView: %v", err)
	}
	if len(view.TraveledPath) != 2 {
		t.Errorf("path points = %d, want 2", len(view.TraveledPath))
	}
	if view.StartLocation.Latitude != 12.97 || view.EndLocation.Longitude != 77.61 {
		t.Errorf("unexpected locations: %+v", view)
	}
	if view.TotalDriveTime == nil || *view.TotalDriveTime != 600 {
		t.Errorf("total_drive_time = %v, want 600", view.TotalDriveTime)
	}
	if view.Events == nil {
		t.Error("events must be non-nil for JSON []")
	}
}

func TestGroupTripEvents(t *testing.T) {
	tripRows := []models.Trip{
		{TripID: "t1", TraveledPath: nil},
		{TripID: "t2", TraveledPath: nil},
	}
	events := []models.EventLog{
		{TripID: "t1", EventType: "sudden_braking"},
		{TripID: "t2", EventType: "safe_driving"},
		{TripID: "t1", EventType: "collision_warning"},
		{TripID: "orphan", EventType: "speed_limit_violation"},
	}

	views, err := GroupTripEvents(tripRows, events)
	if err != nil {
		t.Fatalf("GroupTripEvents: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("views = %d, want 2", len(views))
	}
	if views[0].TripID != "t1" || len(views[0].Events) != 2 {
		t.Errorf("t1 events = %d, want 2", len(views[0].Events))
	}
	if views[1].TripID != "t2" || len(views[1].Events) != 1 {
		t.Errorf("t2 events = %d, want 1", len(views[1].Events))
	}
	// The orphan event matched no trip and is dropped from the grouping.
	total := len(views[0].Events) + len(views[1].Events)
	if total != 3 {
		t.Errorf("grouped events = %d, want 3", total)
	}
}

func TestGroupTripEventsEmpty(t *testing.T) {
	views, err := GroupTripEvents(nil, nil)
	if err != nil {
		t.Fatalf("GroupTripEvents: %v", err)
	}
	if len(views) != 0 {
		t.Errorf("views = %d, want 0", len(views))
	}
}

func TestNewUserDetail(t *testing.T) {
	score := 82
	user := models.User{
		Username:     "asha",
		Role:         "user",
		FullName:     "Asha K",
		Email:        "asha@example.com",
		CarName:      "Swift",
		CarNumber:    "KA01AB1234",
		ObdName:      "OBDLink MX+",
		BluetoothMac: "00:1A:7D:DA:71:13",
		Score:        &score,
	}
	events := []models.EventLog{{TripID: "t1", EventType: "sudden_braking"}}
	tripRows := []models.Trip{{TripID: "t1"}}

	detail, err := NewUserDetail(user, events, tripRows)
	if err != nil {
		t.Fatalf("NewUserDetail: %v", err)
	}
	if detail.Username != "asha" || detail.Score == nil || *detail.Score != 82 {
		t.Errorf("unexpected profile projection: %+v", detail.UserView)
	}
	if len(detail.EventLogs) != 1 || len(detail.Trips) != 1 {
		t.Errorf("events = %d, trips = %d, want 1 each", len(detail.EventLogs), len(detail.Trips))
	}
	if detail.CarName != "Swift" || detail.BluetoothMac != "00:1A:7D:DA:71:13" {
		t.Errorf("vehicle pairing fields missing: %+v", detail.UserView)
	}
}
