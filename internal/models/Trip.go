package models

import (
	"time"

	"gorm.io/gorm"
)

// Trip is the aggregation unit for location submissions. A trip is "open"
// while StopTime is nil; at most one open trip may exist per (UserID, TripID),
// enforced by a partial unique index created in config.OpenDB.
type Trip struct {
	gorm.Model
	UserID uint   `json:"user_id" gorm:"index;not null"`
	User   User   `json:"-" gorm:"foreignKey:UserID"`
	TripID string `json:"trip_id" gorm:"index;not null"` // client-generated, opaque

	StartLatitude  float64 `json:"start_latitude"`
	StartLongitude float64 `json:"start_longitude"`
	EndLatitude    float64 `json:"end_latitude"`
	EndLongitude   float64 `json:"end_longitude"`

	// Full cumulative path, WKB-encoded LineString (SRID-less, lon/lat order).
	// Replaced wholesale on every update; clients resend the entire path.
	TraveledPath []byte `json:"-" gorm:"type:bytea"`

	StartTime     time.Time  `json:"start_time"`
	StopTime      *time.Time `json:"stop_time"` // nil while the trip is open
	Timestamp     time.Time  `json:"timestamp"` // last update time
	TotalDistance float64    `json:"total_distance"` // kilometers, caller-computed
}
