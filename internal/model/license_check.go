package model

import (
	"time"
)

const (
	CheckResultValid       = "valid"
	CheckResultExpired     = "expired"
	CheckResultDeactivated = "deactivated"
)

// LicenseCheck is an append-only audit row written for every validation of a known license.
type LicenseCheck struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	LicenseID uint      `json:"license_id" gorm:"not null;index"`
	CheckedAt time.Time `json:"checked_at" gorm:"not null;index"`
	Product   string    `json:"product"`
	IPAddress string    `json:"ip_address"`
	Result    string    `json:"result"`

	License *License `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}
