package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLicenseIsValid(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		license License
		want    bool
	}{
		{"active_unexpired", License{Active: true, ExpiresAt: now.Add(24 * time.Hour)}, true},
		{"active_expired", License{Active: true, ExpiresAt: now.Add(-time.Second)}, false},
		{"expires_now", License{Active: true, ExpiresAt: now}, false},
		{"inactive_unexpired", License{Active: false, ExpiresAt: now.Add(24 * time.Hour)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.license.IsValid(now))
		})
	}
}

func TestStatisticsRates(t *testing.T) {
	s := &Statistics{
		ChecksByResult: map[string]int{CheckResultValid: 3, CheckResultExpired: 1},
		DeploymentsByStatus: map[string]int{
			string(DeploymentSuccess):  2,
			string(DeploymentDisabled): 1,
			string(DeploymentFailed):   1,
			string(DeploymentPending):  5,
		},
		DailyChecks: []DailyChecks{{Date: "2026-10-18", TotalChecks: 4, Licenses: 2}},
	}

	assert.InDelta(t, 0.75, s.CheckSuccessRate(), 0.0001)
	assert.InDelta(t, 0.75, s.DeploymentSuccessRate(), 0.0001)
	assert.NotNil(t, s.GetDailyChecksByDate(time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)))
	assert.Nil(t, s.GetDailyChecksByDate(time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)))
	assert.Zero(t, (&Statistics{}).CheckSuccessRate())
}
