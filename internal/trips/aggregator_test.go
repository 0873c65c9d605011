package trips

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"driveassist/internal/apperr"
	"driveassist/internal/models"
)

type fakeTripStore struct {
	mu        sync.Mutex
	records   []models.Trip
	nextID    uint
	findErr   error
	createErr error
	saveErr   error
}

func (f *fakeTripStore) FindOpenTrip(ctx context.Context, userID uint, tripID string) (*models.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for i := range f.records {
		r := f.records[i]
		if r.UserID == userID && r.TripID == tripID && r.StopTime == nil {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}

func (f *fakeTripStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	trip.ID = f.nextID
	f.records = append(f.records, *trip)
	return nil
}

func (f *fakeTripStore) SaveTrip(ctx context.Context, trip *models.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	for i := range f.records {
		if f.records[i].ID == trip.ID {
			f.records[i] = *trip
			return nil
		}
	}
	return errors.New("trip not found")
}

func validUpdate() Update {
	dist := 1.5
	return Update{
		UserID:        1,
		TripID:        "t1",
		StartLocation: &Point{Latitude: 12.97, Longitude: 77.59},
		EndLocation:   &Point{Latitude: 12.98, Longitude: 77.60},
		TraveledPath:  []Point{{12.97, 77.59}, {12.98, 77.60}},
		StartTime:     time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
		Timestamp:     time.Date(2024, 6, 1, 8, 5, 0, 0, time.UTC),
		TotalDistance: &dist,
	}
}

func TestSubmitValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Update)
	}{
		{"missing user_id", func(u *Update) { u.UserID = 0 }},
		{"missing trip_id", func(u *Update) { u.TripID = "" }},
		{"missing start_location", func(u *Update) { u.StartLocation = nil }},
		{"missing end_location", func(u *Update) { u.EndLocation = nil }},
		{"missing traveled_path", func(u *Update) { u.TraveledPath = nil }},
		{"missing start_time", func(u *Update) { u.StartTime = time.Time{} }},
		{"missing total_distance", func(u *Update) { u.TotalDistance = nil }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			agg := NewAggregator(&fakeTripStore{})
			upd := validUpdate()
			c.mutate(&upd)
			_, err := agg.Submit(context.Background(), upd)
			if apperr.Status(err) != 400 {
				t.Errorf("status = %d, want 400 (err: %v)", apperr.Status(err), err)
			}
		})
	}
}

func TestSubmitCreatesTrip(t *testing.T) {
	store := &fakeTripStore{}
	agg := NewAggregator(store)

	id, err := agg.Submit(context.Background(), validUpdate())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id == 0 {
		t.Error("expected a trip id")
	}
	if len(store.records) != 1 {
		t.Fatalf("records = %d, want 1", len(store.records))
	}
	trip := store.records[0]
	if trip.StopTime != nil {
		t.Error("new trip should be open")
	}
	if trip.StartLatitude != 12.97 || trip.EndLongitude != 77.60 {
		t.Errorf("unexpected coordinates: %+v", trip)
	}
}

func TestSubmitMergesIntoOpenTrip(t *testing.T) {
	store := &fakeTripStore{}
	agg := NewAggregator(store)
	ctx := context.Background()

	first, err := agg.Submit(ctx, validUpdate())
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	second := validUpdate()
	dist := 4.2
	second.TotalDistance = &dist
	second.EndLocation = &Point{Latitude: 13.00, Longitude: 77.65}
	second.TraveledPath = append(second.TraveledPath, Point{13.00, 77.65})
	second.Timestamp = second.Timestamp.Add(5 * time.Minute)

	got, err := agg.Submit(ctx, second)
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if got != first {
		t.Errorf("second submission created a new trip: ids %d != %d", got, first)
	}
	if len(store.records) != 1 {
		t.Fatalf("records = %d, want 1", len(store.records))
	}

	trip := store.records[0]
	if trip.TotalDistance != 4.2 {
		t.Errorf("total distance = %v, want 4.2 (second update wins)", trip.TotalDistance)
	}
	if trip.EndLatitude != 13.00 {
		t.Errorf("end latitude = %v, want 13.00", trip.EndLatitude)
	}
	path, err := DecodePath(trip.TraveledPath)
	if err != nil {
		t.Fatalf("DecodePath: %v", err)
	}
	if len(path) != 3 {
		t.Errorf("path replaced wholesale: got %d points, want 3", len(path))
	}
}

func TestSubmitStopTimeClosesTrip(t *testing.T) {
	store := &fakeTripStore{}
	agg := NewAggregator(store)
	ctx := context.Background()

	if _, err := agg.Submit(ctx, validUpdate()); err != nil {
		t.Fatalf("open Submit: %v", err)
	}

	closing := validUpdate()
	stop := closing.StartTime.Add(30 * time.Minute)
	closing.StopTime = &stop
	if _, err := agg.Submit(ctx, closing); err != nil {
		t.Fatalf("closing Submit: %v", err)
	}

	if len(store.records) != 1 {
		t.Fatalf("records = %d, want 1", len(store.records))
	}
	if store.records[0].StopTime == nil {
		t.Fatal("trip should be closed")
	}

	// The identifier is done: the next submission starts a fresh record
	// instead of reopening the closed one.
	reopened, err := agg.Submit(ctx, validUpdate())
	if err != nil {
		t.Fatalf("post-close Submit: %v", err)
	}
	if len(store.records) != 2 {
		t.Fatalf("records = %d, want 2", len(store.records))
	}
	if reopened == store.records[0].ID {
		t.Error("closed trip was reused")
	}
	if store.records[0].StopTime == nil {
		t.Error("closed trip lost its stop time")
	}
}

func TestSubmitDefaultsTimestamp(t *testing.T) {
	store := &fakeTripStore{}
	agg := NewAggregator(store)

	upd := validUpdate()
	upd.Timestamp = time.Time{}
	before := time.Now().UTC()
	if _, err := agg.Submit(context.Background(), upd); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if store.records[0].Timestamp.Before(before) {
		t.Errorf("timestamp not defaulted: %v", store.records[0].Timestamp)
	}
}

func TestSubmitStorageErrors(t *testing.T) {
	agg := NewAggregator(&fakeTripStore{findErr: errors.New("down")})
	if _, err := agg.Submit(context.Background(), validUpdate()); apperr.Status(err) != 500 {
		t.Errorf("find error: status = %d, want 500", apperr.Status(err))
	}

	agg = NewAggregator(&fakeTripStore{createErr: errors.New("down")})
	if _, err := agg.Submit(context.Background(), validUpdate()); apperr.Status(err) != 500 {
		t.Errorf("create error: status = %d, want 500", apperr.Status(err))
	}
}

// Two simultaneous first submissions for the same pair must produce exactly
// one open trip.
func TestSubmitConcurrentFindOrCreate(t *testing.T) {
	store := &fakeTripStore{}
	agg := NewAggregator(store)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := agg.Submit(context.Background(), validUpdate()); err != nil {
				t.Errorf("Submit: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(store.records) != 1 {
		t.Errorf("records = %d, want exactly 1 open trip", len(store.records))
	}
}
