package repository

import (
	"context"
	"time"

	"tenant-deployment-system/internal/apperr"
	"tenant-deployment-system/internal/model"

	"gorm.io/gorm"
)

func (s *Store) FindLicense(ctx context.Context, key, tenantExternalID string) (*model.License, error) {
	var license model.License
	err := s.db.WithContext(ctx).
		Joins("JOIN tenants ON tenants.id = licenses.tenant_id").
		Where("licenses.key = ? AND tenants.external_id = ?", key, tenantExternalID).
		First(&license).Error
	if err != nil {
		return nil, notFoundOr(err, "license not found")
	}
	return &license, nil
}

func (s *Store) FeatureNames(ctx context.Context, licenseID uint) ([]string, error) {
	names := []string{}
	err := s.db.WithContext(ctx).Model(&model.LicenseFeature{}).
		Where("license_id = ?", licenseID).
		Order("id ASC").
		Pluck("name", &names).Error
	return names, err
}

func (s *Store) RecordCheck(ctx context.Context, check *model.LicenseCheck) error {
	return s.db.WithContext(ctx).Create(check).Error
}

func (s *Store) CreateLicense(ctx context.Context, license *model.License, features []model.LicenseFeature) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(license).Error; err != nil {
			return err
		}
		for i := range features {
			features[i].LicenseID = license.ID
			if err := tx.Create(&features[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) SetActive(ctx context.Context, key string, active bool) (*model.License, error) {
	var license model.License
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("key = ?", key).First(&license).Error; err != nil {
			return notFoundOr(err, "license not found")
		}
		license.Active = active
		return tx.Model(&license).Update("active", active).Error
	})
	if err != nil {
		return nil, err
	}
	return &license, nil
}

func (s *Store) FindValidLicense(ctx context.Context, tenantID uint, now time.Time) (*model.License, error) {
	var license model.License
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ? AND expires_at > ?", tenantID, true, now).
		Order("expires_at DESC").
		First(&license).Error
	if err != nil {
		return nil, notFoundOr(err, "tenant does not have an active license")
	}
	return &license, nil
}

func (s *Store) ListLicenses(ctx context.Context, tenantExternalID string) ([]model.LicenseWithTenant, error) {
	licenses := []model.LicenseWithTenant{}
	q := s.db.WithContext(ctx).Model(&model.License{}).
		Select("licenses.*, tenants.external_id AS tenant_external_id").
		Joins("JOIN tenants ON tenants.id = licenses.tenant_id")
	if tenantExternalID != "" {
		q = q.Where("tenants.external_id = ?", tenantExternalID)
	}
	err := q.Order("licenses.issued_at DESC").Order("licenses.id ASC").Scan(&licenses).Error
	return licenses, err
}

func (s *Store) ListChecks(ctx context.Context, key string, limit int) ([]model.LicenseCheck, error) {
	var license model.License
	if err := s.db.WithContext(ctx).Where("key = ?", key).First(&license).Error; err != nil {
		return nil, notFoundOr(err, "license not found")
	}

	if limit <= 0 {
		limit = 20
	}

	checks := []model.LicenseCheck{}
	err := s.db.WithContext(ctx).
		Where("license_id = ?", license.ID).
		Order("checked_at DESC").Order("id DESC").
		Limit(limit).
		Find(&checks).Error
	if err != nil {
		return nil, apperr.Internal("list license checks", err)
	}
	return checks, nil
}
