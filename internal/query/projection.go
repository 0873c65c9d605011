// Package query assembles read-side views over users, trips, events and
// speed samples. Everything here is pure projection; storage access stays
// with the caller.
package query

import (
	"time"

	"driveassist/internal/apperr"
	"driveassist/internal/models"
	"driveassist/internal/trips"
)

// DayWindow parses a YYYY-MM-DD date and returns the UTC calendar-day
// window [start of day, start of next day).
func DayWindow(date string) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("invalid date %q, expected YYYY-MM-DD", date)
	}
	return day, day.AddDate(0, 0, 1), nil
}

// DriveTime derives the trip duration in whole seconds. Present only when
// the trip is closed; clamped to zero when device clocks put stop before
// start.
func DriveTime(t models.Trip) *int64 {
	if t.StopTime == nil {
		return nil
	}
	secs := int64(t.StopTime.Sub(t.StartTime) / time.Second)
	if secs < 0 {
		secs = 0
	}
	return &secs
}

type EventView struct {
	ID               uint      `json:"id"`
	TripID           string    `json:"trip_id"`
	EventType        string    `json:"event_type"`
	EventDescription string    `json:"event_description"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	Timestamp        time.Time `json:"timestamp"`
}

type TripView struct {
	ID             uint          `json:"id"`
	TripID         string        `json:"trip_id"`
	StartLocation  trips.Point   `json:"start_location"`
	EndLocation    trips.Point   `json:"end_location"`
	TraveledPath   []trips.Point `json:"traveled_path"`
	StartTime      time.Time     `json:"start_time"`
	StopTime       *time.Time    `json:"stop_time"`
	Timestamp      time.Time     `json:"timestamp"`
	TotalDistance  float64       `json:"total_distance"`
	TotalDriveTime *int64        `json:"total_drive_time,omitempty"`
	Events         []EventView   `json:"events"`
}

type SpeedView struct {
	ID        uint      `json:"id"`
	SpeedObd  float64   `json:"speed_obd"`
	SpeedGps  float64   `json:"speed_gps"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// UserView is the profile + score projection used by user listing and
// detail responses.
type UserView struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	CarName      string `json:"car_name"`
	CarNumber    string `json:"car_number"`
	ObdName      string `json:"obd_name"`
	BluetoothMac string `json:"bluetooth_mac"`
	Score        *int   `json:"score"`
}

// UserDetail is UserView plus the user's events and trips for the
// requested window.
type UserDetail struct {
	UserView
	EventLogs []EventView `json:"event_logs"`
	Trips     []TripView  `json:"trips"`
}

func NewEventView(e models.EventLog) EventView {
	return EventView{
		ID:               e.ID,
		TripID:           e.TripID,
		EventType:        e.EventType,
		EventDescription: e.EventDescription,
		Latitude:         e.Latitude,
		Longitude:        e.Longitude,
		Timestamp:        e.Timestamp,
	}
}

// NewTripView projects a trip row, decoding the stored path. Events is
// always non-nil so the JSON carries [] rather than null.
func NewTripView(t models.Trip) (TripView, error) {
	path, err := trips.DecodePath(t.TraveledPath)
	if err != nil {
		return TripView{}, apperr.Internal("decoding traveled path", err)
	}
	return TripView{
		ID:             t.ID,
		TripID:         t.TripID,
		StartLocation:  trips.Point{Latitude: t.StartLatitude, Longitude: t.StartLongitude},
		EndLocation:    trips.Point{Latitude: t.EndLatitude, Longitude: t.EndLongitude},
		TraveledPath:   path,
		StartTime:      t.StartTime,
		StopTime:       t.StopTime,
		Timestamp:      t.Timestamp,
		TotalDistance:  t.TotalDistance,
		TotalDriveTime: DriveTime(t),
		Events:         []EventView{},
	}, nil
}

// GroupTripEvents pairs each trip with its events by trip identifier.
// Events whose trip_id matches none of the trips are dropped from the
// grouping; trip order is preserved.
func GroupTripEvents(tripRows []models.Trip, events []models.EventLog) ([]TripView, error) {
	byTrip := make(map[string][]EventView)
	for _, e := range events {
		byTrip[e.TripID] = append(byTrip[e.TripID], NewEventView(e))
	}

	views := make([]TripView, 0, len(tripRows))
	for _, t := range tripRows {
		v, err := NewTripView(t)
		if err != nil {
			return nil, err
		}
		if evs, ok := byTrip[t.TripID]; ok {
			v.Events = evs
		}
		views = append(views, v)
	}
	return views, nil
}

func NewUserView(u models.User) UserView {
	return UserView{
		ID:           u.ID,
		Username:     u.Username,
		Role:         u.Role,
		FullName:     u.FullName,
		Email:        u.Email,
		CarName:      u.CarName,
		CarNumber:    u.CarNumber,
		ObdName:      u.ObdName,
		BluetoothMac: u.BluetoothMac,
		Score:        u.Score,
	}
}

func NewSpeedView(s models.SpeedSample) SpeedView {
	return SpeedView{
		ID:        s.ID,
		SpeedObd:  s.SpeedObd,
		SpeedGps:  s.SpeedGps,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Source:    s.Source,
		Timestamp: s.Timestamp,
	}
}

// NewUserDetail assembles the detail view for a single user.
func NewUserDetail(u models.User, events []models.EventLog, tripRows []models.Trip) (UserDetail, error) {
	detail := UserDetail{
		UserView:  NewUserView(u),
		EventLogs: make([]EventView, 0, len(events)),
		Trips:     make([]TripView, 0, len(tripRows)),
	}
	for _, e := range events {
		detail.EventLogs = append(detail.EventLogs, NewEventView(e))
	}
	for _, t := range tripRows {
		v, err := NewTripView(t)
		if err != nil {
			return UserDetail{}, err
		}
		detail.Trips = append(detail.Trips, v)
	}
	return detail, nil
}
