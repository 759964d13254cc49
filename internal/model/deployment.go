package model

import "time"

type DeploymentStatus string

const (
	DeploymentPending  DeploymentStatus = "Pending"
	DeploymentSuccess  DeploymentStatus = "Success"
	DeploymentFailed   DeploymentStatus = "Failed"
	DeploymentDisabled DeploymentStatus = "Disabled"
)

// Deployment records what was last told to the resource-management API for one attempt.
type Deployment struct {
	ID             uint             `json:"id" gorm:"primaryKey"`
	TenantID       uint             `json:"-" gorm:"not null;index:idx_deployment_key,priority:1"`
	WorkflowName   string           `json:"workflow_name" gorm:"not null;index:idx_deployment_key,priority:2"`
	SubscriptionID string           `json:"subscription_id" gorm:"not null;index:idx_deployment_key,priority:3"`
	ResourceGroup  string           `json:"resource_group" gorm:"not null;index:idx_deployment_key,priority:4"`
	TemplateName   string           `json:"template_name"`
	DeployedAt     time.Time        `json:"deployed_at" gorm:"not null;index"`
	Status         DeploymentStatus `json:"status" gorm:"not null"`
	Message        string           `json:"message"`
	UpdatedAt      time.Time        `json:"updated_at"`

	Tenant *Tenant `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// DeploymentKey identifies the remote workflow a deployment targets.
type DeploymentKey struct {
	TenantID       uint
	WorkflowName   string
	SubscriptionID string
	ResourceGroup  string
}

// DeploymentRecord is a ledger row joined with its tenant's external id.
type DeploymentRecord struct {
	Deployment
	TenantExternalID string `json:"tenant_id"`
}
