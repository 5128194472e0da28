package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uniadmit/admission/internal/app/models"
)

func TestApprovalRate(t *testing.T) {
	tests := []struct {
		name               string
		approved, rejected int64
		want               float64
	}{
		{"nothing reviewed", 0, 0, 0},
		{"all approved", 4, 0, 100},
		{"all rejected", 0, 3, 0},
		{"two thirds", 2, 1, 66.67},
		{"one third", 1, 2, 33.33},
		{"half", 5, 5, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApprovalRate(tt.approved, tt.rejected))
		})
	}
}

func TestBucketDaily(t *testing.T) {
	ref := time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)
	times := []time.Time{
		time.Date(2025, 6, 10, 0, 0, 1, 0, time.UTC),
		time.Date(2025, 6, 10, 23, 59, 0, 0, time.UTC),
		time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC), // outside a 7 day window
	}

	points := BucketDaily(times, 7, ref)
	require.Len(t, points, 7)
	assert.Equal(t, "2025-06-04", points[0].Period)
	assert.Equal(t, "2025-06-10", points[6].Period)

	counts := map[string]int64{}
	var total int64
	for _, p := range points {
		counts[p.Period] = p.Count
		total += p.Count
	}
	assert.Equal(t, int64(2), counts["2025-06-10"])
	assert.Equal(t, int64(1), counts["2025-06-08"])
	assert.Equal(t, int64(0), counts["2025-06-09"])
	assert.Equal(t, int64(3), total)
}

func TestBucketMonthly(t *testing.T) {
	ref := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	times := []time.Time{
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC),
		time.Date(2024, 10, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC), // outside six months
	}

	points := BucketMonthly(times, 6, ref)
	require.Len(t, points, 6)

	periods := make([]string, 0, len(points))
	for _, p := range points {
		periods = append(periods, p.Period)
	}
	assert.Equal(t, []string{"2024-10", "2024-11", "2024-12", "2025-01", "2025-02", "2025-03"}, periods)
	assert.Equal(t, int64(1), points[0].Count)
	assert.Equal(t, int64(1), points[3].Count)
	assert.Equal(t, int64(0), points[4].Count)
	assert.Equal(t, int64(1), points[5].Count)
}

func TestBucketsEmptySpan(t *testing.T) {
	assert.Empty(t, BucketDaily(nil, 0, time.Now()))
	assert.Empty(t, BucketMonthly(nil, -1, time.Now()))
}

func TestWindowStarts(t *testing.T) {
	ref := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), dailyWindowStart(7, ref))
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), monthlyWindowStart(12, ref))
}

func TestOverviewFromCounts(t *testing.T) {
	o := overviewFromCounts(models.StatusCounts{Draft: 1, Pending: 2, Approved: 3, Rejected: 1})
	assert.Equal(t, int64(7), o.Total)
	assert.Equal(t, 75.0, o.ApprovalRatePercentage)
}
