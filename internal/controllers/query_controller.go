package controllers

import (
	"context"

	"github.com/gin-gonic/gin"

	"driveassist/internal/apperr"
	"driveassist/internal/models"
	"driveassist/internal/query"
	"driveassist/internal/repository"
)

// queryStore is the read surface the projections consume.
type queryStore interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	EventsByUser(ctx context.Context, userID uint, w repository.Window, tripID string) ([]models.EventLog, error)
	TripsByUser(ctx context.Context, userID uint, w repository.Window) ([]models.Trip, error)
	TripsByTripID(ctx context.Context, userID uint, tripID string) ([]models.Trip, error)
	SpeedByUser(ctx context.Context, userID uint, w repository.Window) ([]models.SpeedSample, error)
}

// QueryController serves the read-side projections: user detail, trips
// with their events, speed listings and the raw event feed.
type QueryController struct {
	repo queryStore
}

func NewQueryController(repo queryStore) *QueryController {
	return &QueryController{repo: repo}
}

// windowFromQuery builds the optional calendar-day filter from ?date=.
func windowFromQuery(c *gin.Context) (repository.Window, error) {
	date := c.Query("date")
	if date == "" {
		return repository.Window{}, nil
	}
	start, end, err := query.DayWindow(date)
	if err != nil {
		return repository.Window{}, err
	}
	return repository.Window{Start: start, End: end}, nil
}

// GetUserDetails returns one driver's profile, score and the events and
// trips matching the optional date / trip_id filters.
func (q *QueryController) GetUserDetails(c *gin.Context) {
	userID, err := queryUserID(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	window, err := windowFromQuery(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	tripID := c.Query("trip_id")
	ctx := c.Request.Context()

	user, err := q.repo.GetUserByID(ctx, userID)
	if err != nil {
		respondErr(c, apperr.Storage("looking up user", err))
		return
	}
	if user == nil || user.Role != "user" {
		respondErr(c, apperr.NotFound("user %d not found", userID))
		return
	}

	events, err := q.repo.EventsByUser(ctx, userID, window, tripID)
	if err != nil {
		respondErr(c, apperr.Storage("listing events", err))
		return
	}

	var tripRows []models.Trip
	if tripID != "" {
		tripRows, err = q.repo.TripsByTripID(ctx, userID, tripID)
	} else {
		tripRows, err = q.repo.TripsByUser(ctx, userID, window)
	}
	if err != nil {
		respondErr(c, apperr.Storage("listing trips", err))
		return
	}

	detail, err := query.NewUserDetail(*user, events, tripRows)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"user": detail})
}

// GetTripsData returns either the single trip for ?trip_id= merged with
// its events, or all trips in the ?date= calendar day, each paired with
// its events.
func (q *QueryController) GetTripsData(c *gin.Context) {
	userID, err := queryUserID(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	ctx := c.Request.Context()

	user, err := q.repo.GetUserByID(ctx, userID)
	if err != nil {
		respondErr(c, apperr.Storage("looking up user", err))
		return
	}
	if user == nil {
		respondErr(c, apperr.NotFound("user %d not found", userID))
		return
	}

	if tripID := c.Query("trip_id"); tripID != "" {
		tripRows, err := q.repo.TripsByTripID(ctx, userID, tripID)
		if err != nil {
			respondErr(c, apperr.Storage("looking up trip", err))
			return
		}
		if len(tripRows) == 0 {
			respondErr(c, apperr.NotFound("trip %q not found", tripID))
			return
		}
		events, err := q.repo.EventsByUser(ctx, userID, repository.Window{}, tripID)
		if err != nil {
			respondErr(c, apperr.Storage("listing events", err))
			return
		}
		// Most recent record wins when the identifier was reused.
		view, err := query.NewTripView(tripRows[0])
		if err != nil {
			respondErr(c, err)
			return
		}
		for _, e := range events {
			view.Events = append(view.Events, query.NewEventView(e))
		}
		respondOK(c, gin.H{"trip_data": view})
		return
	}

	window, err := windowFromQuery(c)
	if err != nil {
		respondErr(c, err)
		return
	}

	tripRows, err := q.repo.TripsByUser(ctx, userID, window)
	if err != nil {
		respondErr(c, apperr.Storage("listing trips", err))
		return
	}
	events, err := q.repo.EventsByUser(ctx, userID, window, "")
	if err != nil {
		respondErr(c, apperr.Storage("listing events", err))
		return
	}

	views, err := query.GroupTripEvents(tripRows, events)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"trips_data": views})
}

// GetSpeedData lists a user's speed samples, optionally date-filtered.
func (q *QueryController) GetSpeedData(c *gin.Context) {
	userID, err := queryUserID(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	window, err := windowFromQuery(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	ctx := c.Request.Context()

	user, err := q.repo.GetUserByID(ctx, userID)
	if err != nil {
		respondErr(c, apperr.Storage("looking up user", err))
		return
	}
	if user == nil {
		respondErr(c, apperr.NotFound("user %d not found", userID))
		return
	}

	samples, err := q.repo.SpeedByUser(ctx, userID, window)
	if err != nil {
		respondErr(c, apperr.Storage("listing speed samples", err))
		return
	}

	views := make([]query.SpeedView, 0, len(samples))
	for _, s := range samples {
		views = append(views, query.NewSpeedView(s))
	}
	respondOK(c, gin.H{"speed_data": views})
}

// GetEvents lists a user's driving events, newest first.
func (q *QueryController) GetEvents(c *gin.Context) {
	userID, err := queryUserID(c)
	if err != nil {
		respondErr(c, err)
		return
	}

	events, err := q.repo.EventsByUser(c.Request.Context(), userID, repository.Window{}, "")
	if err != nil {
		respondErr(c, apperr.Storage("listing events", err))
		return
	}

	views := make([]query.EventView, 0, len(events))
	for _, e := range events {
		views = append(views, query.NewEventView(e))
	}
	respondOK(c, gin.H{"events": views})
}
