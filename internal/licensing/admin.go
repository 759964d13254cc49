package licensing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"tenant-deployment-system/internal/apperr"
	"tenant-deployment-system/internal/model"

	"github.com/google/uuid"
)

type FeatureInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type IssueRequest struct {
	TenantID       string         `json:"tenant_id"`
	ExpirationDate string         `json:"expiration_date"`
	Features       []FeatureInput `json:"features"`
	Notes          string         `json:"notes"`
}

type Issued struct {
	ID             uint     `json:"id"`
	LicenseKey     string   `json:"license_key"`
	LicenseGUID    string   `json:"license_guid"`
	ExpirationDate string   `json:"expiration_date"`
	Features       []string `json:"features"`
}

// Issue creates an active license for an existing tenant with a random
// 32-character hex key. The expiration date is YYYY-MM-DD, midnight UTC.
func (g *Gatekeeper) Issue(ctx context.Context, req IssueRequest) (*Issued, error) {
	if req.TenantID == "" || req.ExpirationDate == "" {
		return nil, apperr.ValidationInput("tenant id and expiration date are required")
	}

	expires, err := time.Parse("2006-01-02", req.ExpirationDate)
	if err != nil {
		return nil, apperr.ValidationInput("invalid expiration date format")
	}

	tenant, err := g.tenants.FindTenant(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}

	key, err := generateLicenseKey()
	if err != nil {
		return nil, apperr.Internal("generate license key", err)
	}

	license := &model.License{
		TenantID:  tenant.ID,
		Key:       key,
		GUID:      uuid.NewString(),
		IssuedAt:  g.now(),
		ExpiresAt: expires.UTC(),
		Active:    true,
		Notes:     req.Notes,
	}

	features := make([]model.LicenseFeature, 0, len(req.Features))
	names := make([]string, 0, len(req.Features))
	for _, f := range req.Features {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return nil, apperr.ValidationInput("feature name is required")
		}
		features = append(features, model.LicenseFeature{Name: name, Description: f.Description})
		names = append(names, name)
	}

	if err := g.licenses.CreateLicense(ctx, license, features); err != nil {
		return nil, apperr.Internal("create license", err)
	}

	return &Issued{
		ID:             license.ID,
		LicenseKey:     license.Key,
		LicenseGUID:    license.GUID,
		ExpirationDate: license.ExpiresAt.Format("2006-01-02"),
		Features:       names,
	}, nil
}

// SetActive is the only mutation a license accepts after issue.
func (g *Gatekeeper) SetActive(ctx context.Context, key string, active bool) (*model.License, error) {
	if key == "" {
		return nil, apperr.ValidationInput("license key is required")
	}
	return g.licenses.SetActive(ctx, key, active)
}

func (g *Gatekeeper) List(ctx context.Context, tenantExternalID string) ([]model.LicenseWithTenant, error) {
	return g.licenses.ListLicenses(ctx, tenantExternalID)
}

func (g *Gatekeeper) Checks(ctx context.Context, key string, limit int) ([]model.LicenseCheck, error) {
	return g.licenses.ListChecks(ctx, key, limit)
}

func generateLicenseKey() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
