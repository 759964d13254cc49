package service

import (
	"context"
	"encoding/json"
	"time"

	"tenant-deployment-system/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ActionDeploy         = "workflow.deploy"
	ActionDisable        = "workflow.disable"
	ActionLicenseIssue   = "license.issue"
	ActionLicenseActive  = "license.set_active"
	ActionTenantCreate   = "tenant.create"
	ActionPasswordChange = "user.change_password"
)

// OperationLogService keeps the audit trail of administrative actions.
type OperationLogService struct {
	db *gorm.DB
}

func NewOperationLogService(db *gorm.DB) *OperationLogService {
	return &OperationLogService{db: db}
}

func (s *OperationLogService) LogOperation(ctx context.Context, userID uint, action, target, targetID string, details interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	entry := &model.OperationLog{
		UserID:    userID,
		Action:    action,
		Target:    target,
		TargetID:  targetID,
		Details:   string(detailsJSON),
		CreatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Create(entry).Error
}

// Record is LogOperation for callers that must not fail because the audit write did.
func (s *OperationLogService) Record(ctx context.Context, userID uint, action, target, targetID string, details interface{}) {
	if err := s.LogOperation(ctx, userID, action, target, targetID, details); err != nil {
		zap.L().Warn("failed to write operation log", zap.String("action", action), zap.String("target_id", targetID), zap.Error(err))
	}
}

func (s *OperationLogService) GetOperationLogs(ctx context.Context, page, pageSize int) ([]model.OperationLog, int64, error) {
	return s.list(s.db.WithContext(ctx).Model(&model.OperationLog{}), page, pageSize)
}

func (s *OperationLogService) GetUserOperationLogs(ctx context.Context, userID uint, page, pageSize int) ([]model.OperationLog, int64, error) {
	return s.list(s.db.WithContext(ctx).Model(&model.OperationLog{}).Where("user_id = ?", userID), page, pageSize)
}

func (s *OperationLogService) list(q *gorm.DB, page, pageSize int) ([]model.OperationLog, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	logs := []model.OperationLog{}
	offset := (page - 1) * pageSize
	if err := q.Session(&gorm.Session{}).Order("created_at DESC").Order("id DESC").Offset(offset).Limit(pageSize).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
