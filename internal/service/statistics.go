package service

import (
	"context"
	"sort"
	"time"

	"tenant-deployment-system/internal/model"

	"gorm.io/gorm"
)

const expiringWindow = 30 * 24 * time.Hour

type StatisticsService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStatisticsService(db *gorm.DB) *StatisticsService {
	return &StatisticsService{db: db, now: func() time.Time { return time.Now().UTC() }}
}

type groupCount struct {
	Name  string
	Count int
}

// Compute builds the dashboard statistics. License counts are as of now;
// check counts cover [from, to).
func (s *StatisticsService) Compute(ctx context.Context, from, to time.Time) (*model.Statistics, error) {
	db := s.db.WithContext(ctx)
	now := s.now()

	stats := &model.Statistics{
		From:                from,
		To:                  to,
		ChecksByProduct:     make(map[string]int),
		ChecksByResult:      make(map[string]int),
		DailyChecks:         make([]model.DailyChecks, 0),
		DeploymentsByStatus: make(map[string]int),
	}

	counts := []struct {
		dest  *int64
		model interface{}
		query string
		args  []interface{}
	}{
		{&stats.TotalTenants, &model.Tenant{}, "", nil},
		{&stats.TotalLicenses, &model.License{}, "", nil},
		{&stats.ActiveLicenses, &model.License{}, "active = ? AND expires_at > ?", []interface{}{true, now}},
		{&stats.ExpiredLicenses, &model.License{}, "active = ? AND expires_at <= ?", []interface{}{true, now}},
		{&stats.DeactivatedLicenses, &model.License{}, "active = ?", []interface{}{false}},
		{&stats.ExpiringLicenses, &model.License{}, "active = ? AND expires_at > ? AND expires_at <= ?", []interface{}{true, now, now.Add(expiringWindow)}},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.query != "" {
			q = q.Where(c.query, c.args...)
		}
		if err := q.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	window := func() *gorm.DB {
		return db.Model(&model.LicenseCheck{}).Where("checked_at >= ? AND checked_at < ?", from, to)
	}

	var byProduct []groupCount
	if err := window().Select("product AS name, COUNT(*) AS count").Group("product").Scan(&byProduct).Error; err != nil {
		return nil, err
	}
	for _, g := range byProduct {
		stats.ChecksByProduct[g.Name] = g.Count
	}

	var byResult []groupCount
	if err := window().Select("result AS name, COUNT(*) AS count").Group("result").Scan(&byResult).Error; err != nil {
		return nil, err
	}
	for _, g := range byResult {
		stats.ChecksByResult[g.Name] = g.Count
	}

	var checks []model.LicenseCheck
	if err := window().Select("license_id", "checked_at").Find(&checks).Error; err != nil {
		return nil, err
	}
	stats.DailyChecks = dailyBuckets(checks)

	var byStatus []groupCount
	if err := db.Model(&model.Deployment{}).Select("status AS name, COUNT(*) AS count").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, g := range byStatus {
		stats.DeploymentsByStatus[g.Name] = g.Count
	}

	return stats, nil
}

func dailyBuckets(checks []model.LicenseCheck) []model.DailyChecks {
	type bucket struct {
		total    int
		licenses map[uint]struct{}
	}
	days := map[string]*bucket{}
	for _, c := range checks {
		day := c.CheckedAt.UTC().Format("2006-01-02")
		b, ok := days[day]
		if !ok {
			b = &bucket{licenses: map[uint]struct{}{}}
			days[day] = b
		}
		b.total++
		b.licenses[c.LicenseID] = struct{}{}
	}

	out := make([]model.DailyChecks, 0, len(days))
	for day, b := range days {
		out = append(out, model.DailyChecks{Date: day, TotalChecks: b.total, Licenses: len(b.licenses)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
