package model

import "time"

// DailyChecks counts license checks per calendar day.
type DailyChecks struct {
	Date        string `json:"date"`
	TotalChecks int    `json:"total_checks"`
	Licenses    int    `json:"licenses"`
}

type Statistics struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	TotalTenants        int64 `json:"total_tenants"`
	TotalLicenses       int64 `json:"total_licenses"`
	ActiveLicenses      int64 `json:"active_licenses"`
	ExpiredLicenses     int64 `json:"expired_licenses"`
	DeactivatedLicenses int64 `json:"deactivated_licenses"`
	ExpiringLicenses    int64 `json:"expiring_licenses"`

	ChecksByProduct map[string]int `json:"checks_by_product"`
	ChecksByResult  map[string]int `json:"checks_by_result"`
	DailyChecks     []DailyChecks  `json:"daily_checks"`

	DeploymentsByStatus map[string]int `json:"deployments_by_status"`
}

// CheckSuccessRate is the share of checks in the window that were valid.
func (s *Statistics) CheckSuccessRate() float64 {
	total := 0
	for _, n := range s.ChecksByResult {
		total += n
	}
	if total == 0 {
		return 0
	}
	return float64(s.ChecksByResult[CheckResultValid]) / float64(total)
}

// DeploymentSuccessRate is the share of finished deployments that reached Success or Disabled.
func (s *Statistics) DeploymentSuccessRate() float64 {
	ok := s.DeploymentsByStatus[string(DeploymentSuccess)] + s.DeploymentsByStatus[string(DeploymentDisabled)]
	finished := ok + s.DeploymentsByStatus[string(DeploymentFailed)]
	if finished == 0 {
		return 0
	}
	return float64(ok) / float64(finished)
}

// GetDailyChecksByDate returns the bucket for the given day, or nil.
func (s *Statistics) GetDailyChecksByDate(date time.Time) *DailyChecks {
	day := date.Format("2006-01-02")
	for i := range s.DailyChecks {
		if s.DailyChecks[i].Date == day {
			return &s.DailyChecks[i]
		}
	}
	return nil
}
