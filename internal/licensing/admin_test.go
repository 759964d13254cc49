package licensing

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"tenant-deployment-system/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueThenValidate(t *testing.T) {
	f := newFixture(t)

	issued, err := f.gk.Issue(context.Background(), IssueRequest{
		TenantID:       "acme",
		ExpirationDate: "2027-01-31",
		Features:       []FeatureInput{{Name: "sentinel"}, {Name: "hunting", Description: "KQL hunting queries"}},
		Notes:          "pilot",
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), issued.LicenseKey)
	assert.NotEmpty(t, issued.LicenseGUID)
	assert.Equal(t, "2027-01-31", issued.ExpirationDate)
	assert.Equal(t, []string{"sentinel", "hunting"}, issued.Features)

	res, err := f.gk.Validate(context.Background(), issued.LicenseKey, "acme", "portal", "127.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, []string{"sentinel", "hunting"}, res.Features)
}

func TestIssueRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.gk.Issue(ctx, IssueRequest{TenantID: "acme"})
	assert.True(t, errors.Is(err, apperr.ErrValidationInput))

	_, err = f.gk.Issue(ctx, IssueRequest{TenantID: "acme", ExpirationDate: "31/01/2027"})
	assert.True(t, errors.Is(err, apperr.ErrValidationInput))

	_, err = f.gk.Issue(ctx, IssueRequest{TenantID: "globex", ExpirationDate: "2027-01-31"})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = f.gk.Issue(ctx, IssueRequest{TenantID: "acme", ExpirationDate: "2027-01-31", Features: []FeatureInput{{Name: " "}}})
	assert.True(t, errors.Is(err, apperr.ErrValidationInput))
}

func TestSetActiveTogglesValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issued, err := f.gk.Issue(ctx, IssueRequest{TenantID: "acme", ExpirationDate: "2027-01-31"})
	require.NoError(t, err)

	_, err = f.gk.SetActive(ctx, issued.LicenseKey, false)
	require.NoError(t, err)

	res, err := f.gk.Validate(ctx, issued.LicenseKey, "acme", "portal", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, MsgDeactivated, res.Message)

	checks, err := f.gk.Checks(ctx, issued.LicenseKey, 20)
	require.NoError(t, err)
	assert.Len(t, checks, 1)

	licenses, err := f.gk.List(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, licenses, 1)
	assert.False(t, licenses[0].Active)

	_, err = f.gk.SetActive(ctx, "", true)
	assert.True(t, errors.Is(err, apperr.ErrValidationInput))
}
