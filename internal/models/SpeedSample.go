package models

import (
	"time"

	"gorm.io/gorm"
)

// SpeedSample pairs the OBD-reported and GPS-reported speed at a point in
// time. Samples arrive in batches and are immutable.
type SpeedSample struct {
	gorm.Model
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	User      User      `json:"-" gorm:"foreignKey:UserID"`
	SpeedObd  float64   `json:"speed_obd" gorm:"default:0"`  // km/h
	SpeedGps  float64   `json:"speed_gps" gorm:"default:0"`  // km/h
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Source    string    `json:"source"` // "obd", "gps" or "" when mixed
	Timestamp time.Time `json:"timestamp"`
}
