package services

import (
	"math"
	"time"

	"github.com/jinzhu/now"
	"github.com/uniadmit/admission/internal/app/models"
	"github.com/uniadmit/admission/internal/app/models/dto"
)

const (
	dayPeriodLayout   = "2006-01-02"
	monthPeriodLayout = "2006-01"
)

// ApprovalRate is approved/(approved+rejected) as a percentage rounded to two
// places. Nothing reviewed yields 0.
func ApprovalRate(approved, rejected int64) float64 {
	reviewed := approved + rejected
	if reviewed <= 0 {
		return 0
	}
	return math.Round(float64(approved)/float64(reviewed)*100*100) / 100
}

// BucketDaily counts times per calendar day over the last days days ending
// with ref's day, oldest first, with empty days reported as zero.
func BucketDaily(times []time.Time, days int, ref time.Time) []dto.TrendPoint {
	if days <= 0 {
		return []dto.TrendPoint{}
	}
	today := now.With(ref).BeginningOfDay()
	start := today.AddDate(0, 0, -(days - 1))

	points := make([]dto.TrendPoint, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		period := start.AddDate(0, 0, i).Format(dayPeriodLayout)
		points[i].Period = period
		index[period] = i
	}
	for _, t := range times {
		key := now.With(t.In(ref.Location())).BeginningOfDay().Format(dayPeriodLayout)
		if i, ok := index[key]; ok {
			points[i].Count++
		}
	}
	return points
}

// BucketMonthly counts times per calendar month over the last months months
// ending with ref's month, oldest first, zero-filled.
func BucketMonthly(times []time.Time, months int, ref time.Time) []dto.TrendPoint {
	if months <= 0 {
		return []dto.TrendPoint{}
	}
	thisMonth := now.With(ref).BeginningOfMonth()
	start := thisMonth.AddDate(0, -(months - 1), 0)

	points := make([]dto.TrendPoint, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		period := start.AddDate(0, i, 0).Format(monthPeriodLayout)
		points[i].Period = period
		index[period] = i
	}
	for _, t := range times {
		key := t.In(ref.Location()).Format(monthPeriodLayout)
		if i, ok := index[key]; ok {
			points[i].Count++
		}
	}
	return points
}

// dailyWindowStart is the first instant covered by BucketDaily(…, days, ref).
func dailyWindowStart(days int, ref time.Time) time.Time {
	return now.With(ref).BeginningOfDay().AddDate(0, 0, -(days - 1))
}

// monthlyWindowStart is the first instant covered by BucketMonthly(…, months, ref).
func monthlyWindowStart(months int, ref time.Time) time.Time {
	return now.With(ref).BeginningOfMonth().AddDate(0, -(months - 1), 0)
}

func overviewFromCounts(c models.StatusCounts) dto.ApplicationOverview {
	return dto.ApplicationOverview{
		Total:                  c.Total(),
		Draft:                  c.Draft,
		Pending:                c.Pending,
		Approved:               c.Approved,
		Rejected:               c.Rejected,
		ApprovalRatePercentage: ApprovalRate(c.Approved, c.Rejected),
	}
}

func courseStats(rows []models.CourseCounts) []dto.CourseStat {
	out := make([]dto.CourseStat, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.CourseStat{
			Course:   r.Course,
			Total:    r.Total(),
			Pending:  r.Pending,
			Approved: r.Approved,
			Rejected: r.Rejected,
		})
	}
	return out
}
