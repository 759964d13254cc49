// Package licensing validates tenant licenses and administers them.
package licensing

import (
	"context"
	"errors"
	"time"

	"tenant-deployment-system/internal/apperr"
	"tenant-deployment-system/internal/metrics"
	"tenant-deployment-system/internal/model"
	"tenant-deployment-system/internal/repository"

	"go.uber.org/zap"
)

const (
	MsgRequired    = "license key and tenant id are required"
	MsgInvalidKey  = "invalid license key"
	MsgDeactivated = "license deactivated"
	MsgExpired     = "license expired"
	MsgValid       = "license is valid"
)

type Result struct {
	Valid          bool       `json:"valid"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
	Features       []string   `json:"features,omitempty"`
	Message        string     `json:"message"`
}

type Gatekeeper struct {
	tenants  repository.TenantStore
	licenses repository.LicenseStore
	now      func() time.Time
}

func NewGatekeeper(tenants repository.TenantStore, licenses repository.LicenseStore) *Gatekeeper {
	return &Gatekeeper{
		tenants:  tenants,
		licenses: licenses,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Validate checks a presented license key for a tenant and appends a check
// record for every lookup that finds a license. A missing key or tenant id
// returns a ValidationInput error together with the invalid result.
func (g *Gatekeeper) Validate(ctx context.Context, licenseKey, tenantExternalID, product, callerAddress string) (Result, error) {
	if licenseKey == "" || tenantExternalID == "" {
		metrics.LicenseValidations.WithLabelValues("invalid_input").Inc()
		return Result{Message: MsgRequired}, apperr.ValidationInput(MsgRequired)
	}

	license, err := g.licenses.FindLicense(ctx, licenseKey, tenantExternalID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			metrics.LicenseValidations.WithLabelValues("not_found").Inc()
			zap.L().Warn("license validation for unknown key",
				zap.String("tenant_id", tenantExternalID),
				zap.String("product", product),
				zap.String("ip", callerAddress))
			return Result{Message: MsgInvalidKey}, nil
		}
		metrics.LicenseValidations.WithLabelValues("error").Inc()
		return Result{}, apperr.Internal("license lookup failed", err)
	}

	now := g.now()
	expires := license.ExpiresAt.UTC()
	result := Result{ExpirationDate: &expires}
	checkResult := model.CheckResultValid

	switch {
	case !license.Active:
		result.Message = MsgDeactivated
		checkResult = model.CheckResultDeactivated
	case !now.Before(license.ExpiresAt):
		result.Message = MsgExpired
		checkResult = model.CheckResultExpired
	default:
		features, err := g.licenses.FeatureNames(ctx, license.ID)
		if err != nil {
			metrics.LicenseValidations.WithLabelValues("error").Inc()
			return Result{}, apperr.Internal("license features lookup failed", err)
		}
		result.Valid = true
		result.Features = features
		result.Message = MsgValid
	}

	check := &model.LicenseCheck{
		LicenseID: license.ID,
		CheckedAt: now,
		Product:   product,
		IPAddress: callerAddress,
		Result:    checkResult,
	}
	if err := g.licenses.RecordCheck(ctx, check); err != nil {
		zap.L().Warn("failed to record license check",
			zap.Uint("license_id", license.ID),
			zap.String("tenant_id", tenantExternalID),
			zap.Error(err))
	}

	metrics.LicenseValidations.WithLabelValues(checkResult).Inc()
	return result, nil
}

// Admit resolves the tenant of a deployment request and the valid license
// that entitles it. Unknown tenants are NotFound; tenants without an active,
// unexpired license are rejected as invalid input.
func (g *Gatekeeper) Admit(ctx context.Context, tenantExternalID string) (*model.Tenant, *model.License, error) {
	tenant, err := g.tenants.FindTenant(ctx, tenantExternalID)
	if err != nil {
		return nil, nil, err
	}

	license, err := g.licenses.FindValidLicense(ctx, tenant.ID, g.now())
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil, apperr.ValidationInput("tenant does not have an active license")
		}
		return nil, nil, err
	}
	return tenant, license, nil
}
