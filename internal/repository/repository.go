// Package repository is the data-access boundary of the service. Every
// component reaches the relational store through the interfaces below; the
// gorm-backed Store implements all of them.
package repository

import (
	"context"
	"errors"
	"time"

	"tenant-deployment-system/internal/apperr"
	"tenant-deployment-system/internal/model"

	"gorm.io/gorm"
)

type TenantStore interface {
	CreateTenant(ctx context.Context, tenant *model.Tenant) error
	FindTenant(ctx context.Context, externalID string) (*model.Tenant, error)
	ListTenants(ctx context.Context) ([]model.Tenant, error)
}

type LicenseStore interface {
	// FindLicense looks a license up by key and owning tenant external id in a single join.
	FindLicense(ctx context.Context, key, tenantExternalID string) (*model.License, error)
	FeatureNames(ctx context.Context, licenseID uint) ([]string, error)
	RecordCheck(ctx context.Context, check *model.LicenseCheck) error
	CreateLicense(ctx context.Context, license *model.License, features []model.LicenseFeature) error
	SetActive(ctx context.Context, key string, active bool) (*model.License, error)
	// FindValidLicense returns the tenant's valid license expiring last.
	FindValidLicense(ctx context.Context, tenantID uint, now time.Time) (*model.License, error)
	ListLicenses(ctx context.Context, tenantExternalID string) ([]model.LicenseWithTenant, error)
	ListChecks(ctx context.Context, key string, limit int) ([]model.LicenseCheck, error)
}

type DeploymentLedger interface {
	Record(ctx context.Context, d *model.Deployment) error
	// UpdateStatus moves a row from one status to another; it fails with NotFound
	// when the row is not currently in the from status.
	UpdateStatus(ctx context.Context, id uint, from, to model.DeploymentStatus, message string) error
	FindActive(ctx context.Context, key model.DeploymentKey) (*model.Deployment, error)
	ListForTenant(ctx context.Context, tenantExternalID string) ([]model.DeploymentRecord, error)
	ListAll(ctx context.Context) ([]model.DeploymentRecord, error)
}

type Store struct {
	db *gorm.DB
}

var (
	_ TenantStore      = (*Store)(nil)
	_ LicenseStore     = (*Store)(nil)
	_ DeploymentLedger = (*Store)(nil)
)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(msg, nil)
	}
	return err
}
