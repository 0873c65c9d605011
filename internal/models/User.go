package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Username     string `json:"username" gorm:"unique;not null"`
	Password     string `json:"-"` // bcrypt hash, never serialized
	Role         string `json:"role" gorm:"default:user"` // "admin" or "user"
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	CarName      string `json:"car_name"`
	CarNumber    string `json:"car_number"`
	ObdName      string `json:"obd_name"`
	BluetoothMac string `json:"bluetooth_mac"`

	// Driver behavior score, clamped to [0,100]. Registration writes 100;
	// a row with no score reads as 50 when a delta is applied.
	Score *int `json:"score"`
}
