// Package trips merges successive location submissions sharing a trip
// identifier into a single evolving trip record.
package trips

import (
	"context"
	"fmt"
	"time"

	"driveassist/internal/apperr"
	"driveassist/internal/models"
)

// Store abstracts trip persistence so the aggregator can be exercised
// without a database.
type Store interface {
	// FindOpenTrip returns the open trip (stop_time unset) for the pair,
	// or nil when none exists.
	FindOpenTrip(ctx context.Context, userID uint, tripID string) (*models.Trip, error)
	CreateTrip(ctx context.Context, trip *models.Trip) error
	SaveTrip(ctx context.Context, trip *models.Trip) error
}

// Update is one location submission for a trip. Pointer fields distinguish
// "absent" from zero values.
type Update struct {
	UserID        uint
	TripID        string
	StartLocation *Point
	EndLocation   *Point
	TraveledPath  []Point
	StartTime     time.Time
	StopTime      *time.Time
	Timestamp     time.Time
	TotalDistance *float64
}

func (u Update) validate() error {
	switch {
	case u.UserID == 0:
		return apperr.Validation("user_id is required")
	case u.TripID == "":
		return apperr.Validation("trip_id is required")
	case u.StartLocation == nil:
		return apperr.Validation("start_location is required")
	case u.EndLocation == nil:
		return apperr.Validation("end_location is required")
	case u.TraveledPath == nil:
		return apperr.Validation("traveled_path is required")
	case u.StartTime.IsZero():
		return apperr.Validation("start_time is required")
	case u.TotalDistance == nil:
		return apperr.Validation("total_distance is required")
	}
	return nil
}

// Aggregator applies location submissions to trip records, keeping the
// at-most-one-open-trip invariant per (user, trip id).
type Aggregator struct {
	store Store
	locks keyedMutex
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// Submit merges one location update. If an open trip exists for the pair,
// its end location, path, distance and timestamp are overwritten (and the
// trip is closed when a stop time is supplied); otherwise a new trip is
// created. Returns the persisted trip's row id.
//
// Submissions for the same pair serialize on a keyed lock so two
// simultaneous first updates cannot both create a record; the partial
// unique index on trips is the cross-process backstop.
func (a *Aggregator) Submit(ctx context.Context, upd Update) (uint, error) {
	if err := upd.validate(); err != nil {
		return 0, err
	}

	path, err := EncodePath(upd.TraveledPath)
	if err != nil {
		return 0, apperr.Validation("invalid traveled_path: %v", err)
	}

	ts := upd.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	unlock := a.locks.Lock(lockKey(upd.UserID, upd.TripID))
	defer unlock()

	trip, err := a.store.FindOpenTrip(ctx, upd.UserID, upd.TripID)
	if err != nil {
		return 0, apperr.Storage("looking up open trip", err)
	}

	if trip == nil {
		trip = &models.Trip{
			UserID:         upd.UserID,
			TripID:         upd.TripID,
			StartLatitude:  upd.StartLocation.Latitude,
			StartLongitude: upd.StartLocation.Longitude,
			EndLatitude:    upd.EndLocation.Latitude,
			EndLongitude:   upd.EndLocation.Longitude,
			TraveledPath:   path,
			StartTime:      upd.StartTime,
			StopTime:       upd.StopTime,
			Timestamp:      ts,
			TotalDistance:  *upd.TotalDistance,
		}
		if err := a.store.CreateTrip(ctx, trip); err != nil {
			return 0, apperr.Storage("creating trip", err)
		}
		return trip.ID, nil
	}

	trip.EndLatitude = upd.EndLocation.Latitude
	trip.EndLongitude = upd.EndLocation.Longitude
	trip.TraveledPath = path
	trip.TotalDistance = *upd.TotalDistance
	trip.Timestamp = ts
	if upd.StopTime != nil {
		trip.StopTime = upd.StopTime
	}
	if err := a.store.SaveTrip(ctx, trip); err != nil {
		return 0, apperr.Storage("updating trip", err)
	}
	return trip.ID, nil
}

func lockKey(userID uint, tripID string) string {
	return fmt.Sprintf("%d/%s", userID, tripID)
}
