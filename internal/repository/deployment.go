package repository

import (
	"context"
	"time"

	"tenant-deployment-system/internal/apperr"
	"tenant-deployment-system/internal/model"

	"gorm.io/gorm"
)

func (s *Store) Record(ctx context.Context, d *model.Deployment) error {
	if d.DeployedAt.IsZero() {
		d.DeployedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(d).Error
}

func (s *Store) UpdateStatus(ctx context.Context, id uint, from, to model.DeploymentStatus, message string) error {
	res := s.db.WithContext(ctx).Model(&model.Deployment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"message":    message,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("deployment is not in status "+string(from), nil)
	}
	return nil
}

// FindActive returns the most recent Success row for key.
func (s *Store) FindActive(ctx context.Context, key model.DeploymentKey) (*model.Deployment, error) {
	var d model.Deployment
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND workflow_name = ? AND subscription_id = ? AND resource_group = ? AND status = ?",
			key.TenantID, key.WorkflowName, key.SubscriptionID, key.ResourceGroup, model.DeploymentSuccess).
		Order("deployed_at DESC").Order("id DESC").
		First(&d).Error
	if err != nil {
		return nil, notFoundOr(err, "no successful deployment found for workflow")
	}
	return &d, nil
}

func (s *Store) ListForTenant(ctx context.Context, tenantExternalID string) ([]model.DeploymentRecord, error) {
	return s.listDeployments(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("tenants.external_id = ?", tenantExternalID)
	})
}

func (s *Store) ListAll(ctx context.Context) ([]model.DeploymentRecord, error) {
	return s.listDeployments(ctx, nil)
}

// listDeployments returns rows most recently deployed first, ties in insertion order.
func (s *Store) listDeployments(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]model.DeploymentRecord, error) {
	records := []model.DeploymentRecord{}
	q := s.db.WithContext(ctx).Model(&model.Deployment{}).
		Select("deployments.*, tenants.external_id AS tenant_external_id").
		Joins("JOIN tenants ON tenants.id = deployments.tenant_id")
	if scope != nil {
		q = scope(q)
	}
	err := q.Order("deployments.deployed_at DESC").Order("deployments.id ASC").Scan(&records).Error
	return records, err
}
