package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"tenant-deployment-system/internal/apperr"
	"tenant-deployment-system/internal/database"
	"tenant-deployment-system/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTenant(t *testing.T, s *Store, externalID string) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{ExternalID: externalID, Name: externalID + " corp"}
	require.NoError(t, s.CreateTenant(context.Background(), tenant))
	return tenant
}

func seedLicense(t *testing.T, s *Store, tenant *model.Tenant, key string, active bool, expires time.Time, features ...string) *model.License {
	t.Helper()
	license := &model.License{
		TenantID:  tenant.ID,
		Key:       key,
		GUID:      "guid-" + key,
		IssuedAt:  time.Now().UTC().Add(-time.Hour),
		ExpiresAt: expires,
		Active:    active,
	}
	var fs []model.LicenseFeature
	for _, f := range features {
		fs = append(fs, model.LicenseFeature{Name: f})
	}
	require.NoError(t, s.CreateLicense(context.Background(), license, fs))
	return license
}

func TestFindLicenseRequiresMatchingTenant(t *testing.T) {
	s := New(database.NewTestDB(t))
	ctx := context.Background()
	acme := seedTenant(t, s, "acme")
	seedTenant(t, s, "globex")
	seedLicense(t, s, acme, "ABC-123", true, time.Now().UTC().Add(24*time.Hour))

	l, err := s.FindLicense(ctx, "ABC-123", "acme")
	require.NoError(t, err)
	assert.Equal(t, acme.ID, l.TenantID)

	_, err = s.FindLicense(ctx, "ABC-123", "globex")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = s.FindLicense(ctx, "nope", "acme")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestFeatureNamesKeepInsertionOrder(t *testing.T) {
	s := New(database.NewTestDB(t))
	acme := seedTenant(t, s, "acme")
	l := seedLicense(t, s, acme, "K1", true, time.Now().UTC().Add(time.Hour), "sentinel", "defender", "hunting")

	names, err := s.FeatureNames(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"sentinel", "defender", "hunting"}, names)
}

func TestSetActive(t *testing.T) {
	s := New(database.NewTestDB(t))
	ctx := context.Background()
	acme := seedTenant(t, s, "acme")
	seedLicense(t, s, acme, "K1", true, time.Now().UTC().Add(time.Hour))

	l, err := s.SetActive(ctx, "K1", false)
	require.NoError(t, err)
	assert.False(t, l.Active)

	found, err := s.FindLicense(ctx, "K1", "acme")
	require.NoError(t, err)
	assert.False(t, found.Active)

	_, err = s.SetActive(ctx, "missing", true)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestFindValidLicense(t *testing.T) {
	s := New(database.NewTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()
	acme := seedTenant(t, s, "acme")
	globex := seedTenant(t, s, "globex")
	seedLicense(t, s, acme, "expired", true, now.Add(-time.Hour))
	seedLicense(t, s, acme, "inactive", false, now.Add(48*time.Hour))
	seedLicense(t, s, acme, "good", true, now.Add(24*time.Hour))
	seedLicense(t, s, globex, "globex-old", true, now.Add(-time.Minute))

	l, err := s.FindValidLicense(ctx, acme.ID, now)
	require.NoError(t, err)
	assert.Equal(t, "good", l.Key)

	_, err = s.FindValidLicense(ctx, globex.ID, now)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestListChecksNewestFirst(t *testing.T) {
	s := New(database.NewTestDB(t))
	ctx := context.Background()
	acme := seedTenant(t, s, "acme")
	l := seedLicense(t, s, acme, "K1", true, time.Now().UTC().Add(time.Hour))

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordCheck(ctx, &model.LicenseCheck{
			LicenseID: l.ID,
			CheckedAt: base.Add(time.Duration(i) * time.Minute),
			Product:   "agent",
			Result:    model.CheckResultValid,
		}))
	}

	checks, err := s.ListChecks(ctx, "K1", 2)
	require.NoError(t, err)
	require.Len(t, checks, 2)
	assert.True(t, checks[0].CheckedAt.After(checks[1].CheckedAt))

	_, err = s.ListChecks(ctx, "missing", 2)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestListLicensesJoinsTenant(t *testing.T) {
	s := New(database.NewTestDB(t))
	acme := seedTenant(t, s, "acme")
	globex := seedTenant(t, s, "globex")
	seedLicense(t, s, acme, "K1", true, time.Now().UTC().Add(time.Hour))
	seedLicense(t, s, globex, "K2", true, time.Now().UTC().Add(time.Hour))

	all, err := s.ListLicenses(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	only, err := s.ListLicenses(context.Background(), "globex")
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "K2", only[0].Key)
	assert.Equal(t, "globex", only[0].TenantExternalID)
}

func TestLedgerStatusUpdates(t *testing.T) {
	s := New(database.NewTestDB(t))
	ctx := context.Background()
	acme := seedTenant(t, s, "acme")

	d := &model.Deployment{
		TenantID:       acme.ID,
		WorkflowName:   "wf",
		SubscriptionID: "sub",
		ResourceGroup:  "rg",
		TemplateName:   "tpl",
		Status:         model.DeploymentPending,
	}
	require.NoError(t, s.Record(ctx, d))
	assert.False(t, d.DeployedAt.IsZero())

	key := model.DeploymentKey{TenantID: acme.ID, WorkflowName: "wf", SubscriptionID: "sub", ResourceGroup: "rg"}
	_, err := s.FindActive(ctx, key)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	require.NoError(t, s.UpdateStatus(ctx, d.ID, model.DeploymentPending, model.DeploymentSuccess, "ok"))

	found, err := s.FindActive(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, d.ID, found.ID)

	err = s.UpdateStatus(ctx, d.ID, model.DeploymentPending, model.DeploymentFailed, "late")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	require.NoError(t, s.UpdateStatus(ctx, d.ID, model.DeploymentSuccess, model.DeploymentDisabled, "disabled"))

	records, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.DeploymentDisabled, records[0].Status)
	assert.Equal(t, "acme", records[0].TenantExternalID)
}

func TestLedgerListingOrder(t *testing.T) {
	s := New(database.NewTestDB(t))
	ctx := context.Background()
	acme := seedTenant(t, s, "acme")
	globex := seedTenant(t, s, "globex")

	older := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 10, 2, 8, 0, 0, 0, time.UTC)

	rows := []*model.Deployment{
		{TenantID: acme.ID, WorkflowName: "a", SubscriptionID: "s", ResourceGroup: "r", DeployedAt: older, Status: model.DeploymentSuccess},
		{TenantID: acme.ID, WorkflowName: "b", SubscriptionID: "s", ResourceGroup: "r", DeployedAt: newer, Status: model.DeploymentFailed},
		{TenantID: acme.ID, WorkflowName: "c", SubscriptionID: "s", ResourceGroup: "r", DeployedAt: newer, Status: model.DeploymentSuccess},
		{TenantID: globex.ID, WorkflowName: "d", SubscriptionID: "s", ResourceGroup: "r", DeployedAt: newer, Status: model.DeploymentSuccess},
	}
	for _, r := range rows {
		require.NoError(t, s.Record(ctx, r))
	}

	records, err := s.ListForTenant(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "b", records[0].WorkflowName)
	assert.Equal(t, "c", records[1].WorkflowName)
	assert.Equal(t, "a", records[2].WorkflowName)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestTenantStore(t *testing.T) {
	s := New(database.NewTestDB(t))
	ctx := context.Background()
	seedTenant(t, s, "zeta")
	seedTenant(t, s, "acme")

	tenants, err := s.ListTenants(ctx)
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, "acme", tenants[0].ExternalID)

	_, err = s.FindTenant(ctx, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	err = s.CreateTenant(ctx, &model.Tenant{ExternalID: "acme", Name: "dup"})
	assert.Error(t, err)
}
