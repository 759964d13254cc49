package service

import (
	"context"
	"testing"
	"time"

	"tenant-deployment-system/internal/database"
	"tenant-deployment-system/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatisticsCompute(t *testing.T) {
	db := database.NewTestDB(t)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	svc := NewStatisticsService(db)
	svc.now = func() time.Time { return now }

	tenant := &model.Tenant{ExternalID: "acme", Name: "Acme"}
	require.NoError(t, db.Create(tenant).Error)

	licenses := []*model.License{
		{Key: "active", GUID: "g1", ExpiresAt: now.Add(90 * 24 * time.Hour), Active: true},
		{Key: "expiring", GUID: "g2", ExpiresAt: now.Add(5 * 24 * time.Hour), Active: true},
		{Key: "expired", GUID: "g3", ExpiresAt: now.Add(-time.Hour), Active: true},
		{Key: "off", GUID: "g4", ExpiresAt: now.Add(time.Hour), Active: false},
	}
	for _, l := range licenses {
		l.TenantID = tenant.ID
		l.IssuedAt = now.Add(-100 * 24 * time.Hour)
		require.NoError(t, db.Create(l).Error)
	}

	day1 := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	checks := []model.LicenseCheck{
		{LicenseID: licenses[0].ID, CheckedAt: day1, Product: "portal", Result: model.CheckResultValid},
		{LicenseID: licenses[0].ID, CheckedAt: day1.Add(time.Hour), Product: "agent", Result: model.CheckResultValid},
		{LicenseID: licenses[2].ID, CheckedAt: day2, Product: "agent", Result: model.CheckResultExpired},
		{LicenseID: licenses[0].ID, CheckedAt: now.Add(-40 * 24 * time.Hour), Product: "agent", Result: model.CheckResultValid},
	}
	require.NoError(t, db.Create(&checks).Error)

	deployments := []model.Deployment{
		{TenantID: tenant.ID, WorkflowName: "a", SubscriptionID: "s", ResourceGroup: "r", DeployedAt: now, Status: model.DeploymentSuccess},
		{TenantID: tenant.ID, WorkflowName: "b", SubscriptionID: "s", ResourceGroup: "r", DeployedAt: now, Status: model.DeploymentFailed},
		{TenantID: tenant.ID, WorkflowName: "c", SubscriptionID: "s", ResourceGroup: "r", DeployedAt: now, Status: model.DeploymentSuccess},
	}
	require.NoError(t, db.Create(&deployments).Error)

	stats, err := svc.Compute(context.Background(), now.AddDate(0, 0, -30), now)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.TotalTenants)
	assert.Equal(t, int64(4), stats.TotalLicenses)
	assert.Equal(t, int64(2), stats.ActiveLicenses)
	assert.Equal(t, int64(1), stats.ExpiredLicenses)
	assert.Equal(t, int64(1), stats.DeactivatedLicenses)
	assert.Equal(t, int64(1), stats.ExpiringLicenses)

	assert.Equal(t, map[string]int{"portal": 1, "agent": 2}, stats.ChecksByProduct)
	assert.Equal(t, map[string]int{model.CheckResultValid: 2, model.CheckResultExpired: 1}, stats.ChecksByResult)
	assert.Equal(t, []model.DailyChecks{
		{Date: "2026-10-17", TotalChecks: 2, Licenses: 1},
		{Date: "2026-10-18", TotalChecks: 1, Licenses: 1},
	}, stats.DailyChecks)
	assert.Equal(t, map[string]int{"Success": 2, "Failed": 1}, stats.DeploymentsByStatus)
}
