package models

import (
	"time"

	"gorm.io/gorm"
)

// EventLog is a discrete driving event (sudden braking, speeding, ...).
// Rows are immutable: created once, bulk-deleted only when the owning user
// is deleted.
type EventLog struct {
	gorm.Model
	UserID           uint      `json:"user_id" gorm:"index;not null"`
	User             User      `json:"-" gorm:"foreignKey:UserID"`
	TripID           string    `json:"trip_id" gorm:"index"`
	EventType        string    `json:"event_type"`
	EventDescription string    `json:"event_description"`
	Latitude         float64   `json:"latitude" gorm:"default:0"`
	Longitude        float64   `json:"longitude" gorm:"default:0"`
	Timestamp        time.Time `json:"timestamp"`
}
