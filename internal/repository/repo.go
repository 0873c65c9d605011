// Package repository is the GORM-backed persistence layer. It satisfies the
// store interfaces declared by the trips and score packages and carries the
// read queries the projection layer consumes.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"driveassist/internal/models"
)

type Repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Window is a half-open [Start, End) time filter. The zero value filters
// nothing.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) isZero() bool { return w.Start.IsZero() && w.End.IsZero() }

// IsUniqueViolation reports whether err is a duplicate-key failure, either
// surfaced by GORM or as a raw Postgres 23505.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pq.Error
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- users ---

func (r *Repo) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *Repo) SaveUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// GetUserByID returns nil when no such user exists.
func (r *Repo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername returns nil when no such user exists.
func (r *Repo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repo) ListUsersByRole(ctx context.Context, role string) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Where("role = ?", role).Order("id").Find(&users).Error
	return users, err
}

// DeletedCounts reports what a cascading user deletion removed.
type DeletedCounts struct {
	Users        int64 `json:"users"`
	Trips        int64 `json:"trips"`
	Events       int64 `json:"events"`
	SpeedSamples int64 `json:"speed_samples"`
}

// cascadeTx is the slice of a transaction the user cascade needs, factored
// out so the all-or-nothing orchestration can be exercised with a failing
// fake.
type cascadeTx interface {
	FirstUser(userID uint) (*models.User, error)
	DeleteTrips(userID uint) (int64, error)
	DeleteEvents(userID uint) (int64, error)
	DeleteSpeedSamples(userID uint) (int64, error)
	DeleteUser(user *models.User) error
}

// runCascade deletes the user and everything referencing them. Any error
// aborts immediately with zero counts; the caller's transaction then
// discards whatever had been applied before the failure.
func runCascade(tx cascadeTx, userID uint) (DeletedCounts, error) {
	user, err := tx.FirstUser(userID)
	if err != nil {
		return DeletedCounts{}, err
	}

	var counts DeletedCounts
	if counts.Trips, err = tx.DeleteTrips(userID); err != nil {
		return DeletedCounts{}, err
	}
	if counts.Events, err = tx.DeleteEvents(userID); err != nil {
		return DeletedCounts{}, err
	}
	if counts.SpeedSamples, err = tx.DeleteSpeedSamples(userID); err != nil {
		return DeletedCounts{}, err
	}
	if err := tx.DeleteUser(user); err != nil {
		return DeletedCounts{}, err
	}
	counts.Users = 1
	return counts, nil
}

type gormCascadeTx struct {
	tx *gorm.DB
}

func (g gormCascadeTx) FirstUser(userID uint) (*models.User, error) {
	var user models.User
	if err := g.tx.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (g gormCascadeTx) DeleteTrips(userID uint) (int64, error) {
	res := g.tx.Where("user_id = ?", userID).Delete(&models.Trip{})
	return res.RowsAffected, res.Error
}

func (g gormCascadeTx) DeleteEvents(userID uint) (int64, error) {
	res := g.tx.Where("user_id = ?", userID).Delete(&models.EventLog{})
	return res.RowsAffected, res.Error
}

func (g gormCascadeTx) DeleteSpeedSamples(userID uint) (int64, error) {
	res := g.tx.Where("user_id = ?", userID).Delete(&models.SpeedSample{})
	return res.RowsAffected, res.Error
}

func (g gormCascadeTx) DeleteUser(user *models.User) error {
	return g.tx.Delete(user).Error
}

// DeleteUserCascade removes the user and every trip, event and speed sample
// referencing them in a single transaction. Returns gorm.ErrRecordNotFound
// when the user does not exist; on any failure nothing is applied.
func (r *Repo) DeleteUserCascade(ctx context.Context, userID uint) (DeletedCounts, error) {
	var counts DeletedCounts
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		counts, err = runCascade(gormCascadeTx{tx: tx}, userID)
		return err
	})
	if err != nil {
		return DeletedCounts{}, err
	}
	return counts, nil
}

// --- trips (trips.Store) ---

func (r *Repo) FindOpenTrip(ctx context.Context, userID uint, tripID string) (*models.Trip, error) {
	var trip models.Trip
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND trip_id = ? AND stop_time IS NULL", userID, tripID).
		First(&trip).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

func (r *Repo) CreateTrip(ctx context.Context, trip *models.Trip) error {
	return r.db.WithContext(ctx).Create(trip).Error
}

func (r *Repo) SaveTrip(ctx context.Context, trip *models.Trip) error {
	return r.db.WithContext(ctx).Save(trip).Error
}

// TripsByUser lists a user's trips, optionally windowed by last-update
// timestamp, newest first.
func (r *Repo) TripsByUser(ctx context.Context, userID uint, w Window) ([]models.Trip, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if !w.isZero() {
		q = q.Where("timestamp >= ? AND timestamp < ?", w.Start, w.End)
	}
	var tripRows []models.Trip
	err := q.Order("timestamp DESC").Find(&tripRows).Error
	return tripRows, err
}

// TripsByTripID lists the trip records for one client trip identifier,
// newest first. Closed-then-reopened identifiers can yield several rows.
func (r *Repo) TripsByTripID(ctx context.Context, userID uint, tripID string) ([]models.Trip, error) {
	var tripRows []models.Trip
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND trip_id = ?", userID, tripID).
		Order("timestamp DESC").
		Find(&tripRows).Error
	return tripRows, err
}

// --- events ---

// EventsByUser lists a user's events newest first, optionally windowed and
// optionally restricted to one trip.
func (r *Repo) EventsByUser(ctx context.Context, userID uint, w Window, tripID string) ([]models.EventLog, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if !w.isZero() {
		q = q.Where("timestamp >= ? AND timestamp < ?", w.Start, w.End)
	}
	if tripID != "" {
		q = q.Where("trip_id = ?", tripID)
	}
	var events []models.EventLog
	err := q.Order("timestamp DESC").Find(&events).Error
	return events, err
}

// --- score (score.Store) ---

func (r *Repo) GetScore(ctx context.Context, userID uint) (*int, bool, error) {
	user, err := r.GetUserByID(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if user == nil {
		return nil, false, nil
	}
	return user.Score, true, nil
}

func (r *Repo) SaveEventAndScore(ctx context.Context, event *models.EventLog, newScore *int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		if newScore == nil {
			return nil
		}
		return tx.Model(&models.User{}).
			Where("id = ?", event.UserID).
			Update("score", *newScore).Error
	})
}

// --- speed samples ---

// CreateSpeedSamples inserts a batch and returns the assigned row ids.
func (r *Repo) CreateSpeedSamples(ctx context.Context, samples []models.SpeedSample) ([]uint, error) {
	if err := r.db.WithContext(ctx).Create(&samples).Error; err != nil {
		return nil, err
	}
	ids := make([]uint, len(samples))
	for i, s := range samples {
		ids[i] = s.ID
	}
	return ids, nil
}

// SpeedByUser lists a user's speed samples newest first, optionally
// windowed.
func (r *Repo) SpeedByUser(ctx context.Context, userID uint, w Window) ([]models.SpeedSample, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if !w.isZero() {
		q = q.Where("timestamp >= ? AND timestamp < ?", w.Start, w.End)
	}
	var samples []models.SpeedSample
	err := q.Order("timestamp DESC").Find(&samples).Error
	return samples, err
}
