package repository

import (
	"context"

	"tenant-deployment-system/internal/model"
)

func (s *Store) CreateTenant(ctx context.Context, tenant *model.Tenant) error {
	return s.db.WithContext(ctx).Create(tenant).Error
}

func (s *Store) FindTenant(ctx context.Context, externalID string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&tenant).Error
	if err != nil {
		return nil, notFoundOr(err, "tenant not found")
	}
	return &tenant, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	err := s.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&tenants).Error
	return tenants, err
}
