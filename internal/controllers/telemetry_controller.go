package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"

	"driveassist/internal/apperr"
	"driveassist/internal/models"
	"driveassist/internal/repository"
	"driveassist/internal/score"
	"driveassist/internal/trips"
)

// TelemetryController ingests device telemetry: trip location updates,
// speed sample batches and discrete driving events.
type TelemetryController struct {
	repo   *repository.Repo
	agg    *trips.Aggregator
	engine *score.Engine
	hub    *LiveHub
}

func NewTelemetryController(repo *repository.Repo, agg *trips.Aggregator, engine *score.Engine, hub *LiveHub) *TelemetryController {
	return &TelemetryController{repo: repo, agg: agg, engine: engine, hub: hub}
}

type locationInput struct {
	UserID        uint          `json:"user_id"`
	TripID        string        `json:"trip_id"`
	StartLocation *trips.Point  `json:"start_location"`
	EndLocation   *trips.Point  `json:"end_location"`
	TraveledPath  []trips.Point `json:"traveled_path"`
	StartTime     string        `json:"start_time"`
	StopTime      string        `json:"stop_time"`
	Timestamp     string        `json:"timestamp"`
	TotalDistance *float64      `json:"total_distance"`
}

// SubmitLocation feeds one location update into the trip aggregator. The
// same trip_id updates the open trip in place; a stop_time closes it.
func (t *TelemetryController) SubmitLocation(c *gin.Context) {
	var input locationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondErr(c, apperr.Validation("invalid request body: %v", err))
		return
	}

	startTime, err := parseTimestamp(input.StartTime)
	if err != nil {
		respondErr(c, apperr.Validation("invalid start_time: %v", err))
		return
	}
	ts, err := parseTimestamp(input.Timestamp)
	if err != nil {
		respondErr(c, apperr.Validation("invalid timestamp: %v", err))
		return
	}

	var stopTime *time.Time
	if input.StopTime != "" {
		st, err := parseTimestamp(input.StopTime)
		if err != nil {
			respondErr(c, apperr.Validation("invalid stop_time: %v", err))
			return
		}
		stopTime = &st
	}

	if err := t.ensureUser(c, input.UserID); err != nil {
		respondErr(c, err)
		return
	}

	id, err := t.agg.Submit(c.Request.Context(), trips.Update{
		UserID:        input.UserID,
		TripID:        input.TripID,
		StartLocation: input.StartLocation,
		EndLocation:   input.EndLocation,
		TraveledPath:  input.TraveledPath,
		StartTime:     startTime,
		StopTime:      stopTime,
		Timestamp:     ts,
		TotalDistance: input.TotalDistance,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id": input.UserID,
		"trip_id": input.TripID,
		"closed":  stopTime != nil,
	}).Debug("trip location ingested")

	t.hub.Publish(input.UserID, gin.H{
		"type":         "trip_update",
		"trip_id":      input.TripID,
		"end_location": input.EndLocation,
		"closed":       stopTime != nil,
	})

	respondOK(c, gin.H{"location_id": id})
}

type speedInput struct {
	UserID    uint `json:"user_id"`
	SpeedData []struct {
		Latitude  float64  `json:"latitude"`
		Longitude float64  `json:"longitude"`
		SpeedObd  *float64 `json:"speed_obd"`
		SpeedGps  *float64 `json:"speed_gps"`
		Source    string   `json:"source"`
		Timestamp string   `json:"timestamp"`
	} `json:"speed_data"`
}

// SubmitSpeed stores a batch of speed samples. Absent speed readings
// default to 0; an absent timestamp defaults to now.
func (t *TelemetryController) SubmitSpeed(c *gin.Context) {
	var input speedInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondErr(c, apperr.Validation("invalid request body: %v", err))
		return
	}
	if input.UserID == 0 {
		respondErr(c, apperr.Validation("user_id is required"))
		return
	}
	if len(input.SpeedData) == 0 {
		respondErr(c, apperr.Validation("speed_data must not be empty"))
		return
	}

	if err := t.ensureUser(c, input.UserID); err != nil {
		respondErr(c, err)
		return
	}

	samples := make([]models.SpeedSample, 0, len(input.SpeedData))
	for i, d := range input.SpeedData {
		ts, err := parseTimestamp(d.Timestamp)
		if err != nil {
			respondErr(c, apperr.Validation("invalid timestamp in speed_data[%d]: %v", i, err))
			return
		}
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		sample := models.SpeedSample{
			UserID:    input.UserID,
			Latitude:  d.Latitude,
			Longitude: d.Longitude,
			Source:    d.Source,
			Timestamp: ts,
		}
		if d.SpeedObd != nil {
			sample.SpeedObd = *d.SpeedObd
		}
		if d.SpeedGps != nil {
			sample.SpeedGps = *d.SpeedGps
		}
		samples = append(samples, sample)
	}

	ids, err := t.repo.CreateSpeedSamples(c.Request.Context(), samples)
	if err != nil {
		respondErr(c, apperr.Storage("could not store speed samples", err))
		return
	}

	logrus.WithFields(logrus.Fields{"user_id": input.UserID, "samples": len(ids)}).Debug("speed batch ingested")
	respondOK(c, gin.H{"speed_ids": ids})
}

type eventInput struct {
	UserID           uint    `json:"user_id"`
	TripID           string  `json:"trip_id"`
	EventType        string  `json:"event_type"`
	EventDescription string  `json:"event_description"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Timestamp        string  `json:"timestamp"`
}

// LogEvent records a driving event and applies its score delta through the
// score engine. The returned score_change is the applied delta.
func (t *TelemetryController) LogEvent(c *gin.Context) {
	var input eventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondErr(c, apperr.Validation("invalid request body: %v", err))
		return
	}

	ts, err := parseTimestamp(input.Timestamp)
	if err != nil {
		respondErr(c, apperr.Validation("invalid timestamp: %v", err))
		return
	}
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	event := models.EventLog{
		UserID:           input.UserID,
		TripID:           input.TripID,
		EventType:        input.EventType,
		EventDescription: input.EventDescription,
		Latitude:         input.Latitude,
		Longitude:        input.Longitude,
		Timestamp:        ts,
	}

	delta, err := t.engine.Apply(c.Request.Context(), &event)
	if err != nil {
		respondErr(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id":      input.UserID,
		"trip_id":      input.TripID,
		"event_type":   input.EventType,
		"score_change": delta,
	}).Info("driving event logged")

	t.hub.Publish(input.UserID, gin.H{
		"type":         "event",
		"trip_id":      input.TripID,
		"event_type":   input.EventType,
		"score_change": delta,
		"timestamp":    ts,
	})

	respondOK(c, gin.H{"event_id": event.ID, "score_change": delta})
}

// ensureUser resolves the submitting user or fails with NotFound. Telemetry
// for unknown users would otherwise only surface as a foreign-key error.
func (t *TelemetryController) ensureUser(c *gin.Context, userID uint) error {
	if userID == 0 {
		return apperr.Validation("user_id is required")
	}
	user, err := t.repo.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		return apperr.Storage("looking up user", err)
	}
	if user == nil {
		return apperr.NotFound("user %d not found", userID)
	}
	return nil
}
