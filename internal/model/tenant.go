package model

import "time"

// Tenant is a customer organization. It is created by onboarding and only referenced here.
type Tenant struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	ExternalID   string    `json:"tenant_id" gorm:"uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"not null"`
	ContactEmail string    `json:"contact_email"`
	ContactPhone string    `json:"contact_phone"`
	CreatedAt    time.Time `json:"created_at"`
}
