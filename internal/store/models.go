package store

import "time"

type Preference struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Well-known preference keys
const (
	KeyCity       = "city"
	KeyPermission = "permission"
	KeyTheme      = "theme"

	PermissionGranted = "granted"
)
