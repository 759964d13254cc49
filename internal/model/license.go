package model

import (
	"time"
)

type License struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  uint      `json:"-" gorm:"not null;index"`
	Key       string    `json:"key" gorm:"uniqueIndex;not null"`
	GUID      string    `json:"license_guid" gorm:"column:license_guid;uniqueIndex;not null"`
	IssuedAt  time.Time `json:"issued_at" gorm:"not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Active    bool      `json:"active" gorm:"not null"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tenant *Tenant `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// IsValid reports whether the license is active and not yet expired at now.
func (l *License) IsValid(now time.Time) bool {
	return l.Active && now.Before(l.ExpiresAt)
}

type LicenseFeature struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	LicenseID   uint   `json:"-" gorm:"not null;index"`
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`

	License *License `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// LicenseWithTenant is a license joined with its owner's external id.
type LicenseWithTenant struct {
	License
	TenantExternalID string `json:"tenant_id"`
}
