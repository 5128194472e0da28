package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/uniadmit/admission/internal/app/models"
	"github.com/uniadmit/admission/internal/app/models/dto"
	"github.com/uniadmit/admission/internal/app/repositories"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
	"github.com/uniadmit/admission/internal/pkg/helpers"
)

const (
	statsMonthlyTrendMonths  = 12
	statsRecentDays          = 7
	userRecentDays           = 30
	newestUsersLimit         = 5
	dashboardTopCourses      = 5
	dashboardPendingLimit    = 5
	dashboardTrendMonths     = 6
	maxDailyTrendSpan        = 366
	maxMonthlyTrendSpan      = 60
	defaultTrendDailySpan    = 30
	defaultTrendMonthlySpan  = 12
	granularityDaily         = "daily"
	granularityMonthly       = "monthly"
	healthStatusHealthy      = "healthy"
	healthStatusUnhealthy    = "unhealthy"
	healthOverallOK          = "ok"
	healthOverallDegraded    = "degraded"
	dashboardPingTimeout     = 2 * time.Second
)

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsService defines the reporting endpoints
type StatsService interface {
	ApplicationStats(ctx context.Context) (*dto.ApplicationStatsResponse, error)
	Trends(ctx context.Context, granularity string, span int) (*dto.TrendResponse, error)
	UserStats(ctx context.Context) (*dto.UserStatsResponse, error)
	Dashboard(ctx context.Context) (*dto.DashboardResponse, error)
	Health(ctx context.Context) *dto.HealthResponse
}

// statsServiceImpl implements StatsService
type statsServiceImpl struct {
	apps   repositories.ApplicationStatsReader
	users  repositories.UserStore
	db     Pinger
	logger zerolog.Logger
	now    func() time.Time
}

// NewStatsService creates a new StatsService
func NewStatsService(apps repositories.ApplicationStatsReader, users repositories.UserStore, db Pinger, logger zerolog.Logger) StatsService {
	return &statsServiceImpl{
		apps:   apps,
		users:  users,
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

func (s *statsServiceImpl) monthly(ctx context.Context, months int, ref time.Time, load func(context.Context, time.Time) ([]time.Time, error)) ([]dto.TrendPoint, error) {
	times, err := load(ctx, monthlyWindowStart(months, ref))
	if err != nil {
		return nil, err
	}
	return BucketMonthly(times, months, ref), nil
}

func (s *statsServiceImpl) daily(ctx context.Context, days int, ref time.Time, load func(context.Context, time.Time) ([]time.Time, error)) ([]dto.TrendPoint, error) {
	times, err := load(ctx, dailyWindowStart(days, ref))
	if err != nil {
		return nil, err
	}
	return BucketDaily(times, days, ref), nil
}

// ApplicationStats returns the overview, per-course totals and two trends.
func (s *statsServiceImpl) ApplicationStats(ctx context.Context) (*dto.ApplicationStatsResponse, error) {
	ref := s.now().UTC()

	counts, err := s.apps.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := s.apps.CountByCourse(ctx, 0)
	if err != nil {
		return nil, err
	}
	monthly, err := s.monthly(ctx, statsMonthlyTrendMonths, ref, s.apps.CreatedSince)
	if err != nil {
		return nil, err
	}
	recent, err := s.daily(ctx, statsRecentDays, ref, s.apps.CreatedSince)
	if err != nil {
		return nil, err
	}

	return &dto.ApplicationStatsResponse{
		Overview:           overviewFromCounts(counts),
		CourseWiseStats:    courseStats(courses),
		MonthlyTrends:      monthly,
		RecentApplications: recent,
	}, nil
}

// Trends returns application counts bucketed by day or month over span buckets.
func (s *statsServiceImpl) Trends(ctx context.Context, granularity string, span int) (*dto.TrendResponse, error) {
	granularity = strings.ToLower(strings.TrimSpace(granularity))
	if granularity == "" {
		granularity = granularityMonthly
	}

	ref := s.now().UTC()
	var (
		points []dto.TrendPoint
		err    error
	)
	switch granularity {
	case granularityDaily:
		if span <= 0 {
			span = defaultTrendDailySpan
		}
		if span > maxDailyTrendSpan {
			return nil, apperrors.NewValidationError("span must be at most 366 days")
		}
		points, err = s.daily(ctx, span, ref, s.apps.CreatedSince)
	case granularityMonthly:
		if span <= 0 {
			span = defaultTrendMonthlySpan
		}
		if span > maxMonthlyTrendSpan {
			return nil, apperrors.NewValidationError("span must be at most 60 months")
		}
		points, err = s.monthly(ctx, span, ref, s.apps.CreatedSince)
	default:
		return nil, apperrors.NewValidationError("granularity must be daily or monthly")
	}
	if err != nil {
		return nil, err
	}
	return &dto.TrendResponse{Granularity: granularity, Span: span, Points: points}, nil
}

func roleCounts(byRole map[models.RoleName]int64) []dto.RoleCount {
	out := make([]dto.RoleCount, 0, len(models.DefaultRoles))
	for _, r := range models.DefaultRoles {
		out = append(out, dto.RoleCount{Role: string(r.Name), Count: byRole[r.Name]})
	}
	return out
}

// UserStats returns account totals and the newest registrations.
func (s *statsServiceImpl) UserStats(ctx context.Context) (*dto.UserStatsResponse, error) {
	ref := s.now().UTC()

	stats, err := s.users.Stats(ctx, ref.AddDate(0, 0, -userRecentDays))
	if err != nil {
		return nil, err
	}
	newest, err := s.users.Newest(ctx, newestUsersLimit)
	if err != nil {
		return nil, err
	}

	return &dto.UserStatsResponse{
		TotalUsers:          stats.Total,
		ActiveUsers:         stats.Active,
		InactiveUsers:       stats.Inactive,
		RoleBreakdown:       roleCounts(stats.ByRole),
		RecentRegistrations: stats.Recent,
		NewestUsers:         toUserResponses(newest),
	}, nil
}

func (s *statsServiceImpl) health(ctx context.Context, ref time.Time) dto.SystemHealth {
	h := dto.SystemHealth{Status: healthOverallOK, Database: healthStatusHealthy, CheckedAt: ref}
	if s.db == nil {
		return h
	}
	pingCtx, cancel := context.WithTimeout(ctx, dashboardPingTimeout)
	defer cancel()
	if err := s.db.Ping(pingCtx); err != nil {
		s.logger.Warn().Err(err).Msg("Database ping failed")
		h.Status = healthOverallDegraded
		h.Database = healthStatusUnhealthy
	}
	return h
}

// Health reports database reachability.
func (s *statsServiceImpl) Health(ctx context.Context) *dto.HealthResponse {
	h := s.health(ctx, s.now())
	return &dto.HealthResponse{Status: h.Status, Database: h.Database}
}

// Dashboard combines the admin overview.
func (s *statsServiceImpl) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	ref := s.now().UTC()

	userStats, err := s.users.Stats(ctx, ref.AddDate(0, 0, -userRecentDays))
	if err != nil {
		return nil, err
	}
	counts, err := s.apps.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.apps.CreatedSince(ctx, dailyWindowStart(statsRecentDays, ref))
	if err != nil {
		return nil, err
	}
	top, err := s.apps.CountByCourse(ctx, dashboardTopCourses)
	if err != nil {
		return nil, err
	}
	oldest, err := s.apps.OldestPending(ctx, dashboardPendingLimit)
	if err != nil {
		return nil, err
	}
	appTrend, err := s.monthly(ctx, dashboardTrendMonths, ref, s.apps.CreatedSince)
	if err != nil {
		return nil, err
	}
	userTrend, err := s.monthly(ctx, dashboardTrendMonths, ref, s.users.CreatedSince)
	if err != nil {
		return nil, err
	}

	pending := make([]dto.PendingReviewItem, 0, len(oldest))
	for _, p := range oldest {
		pending = append(pending, dto.PendingReviewItem{
			ID:          p.ID,
			StudentName: p.StudentName,
			Course:      p.Course,
			DateCreated: p.DateCreated,
			DaysPending: helpers.DaysBetween(p.DateCreated, ref),
		})
	}

	return &dto.DashboardResponse{
		Users: dto.DashboardUsers{
			Total:               userStats.Total,
			Active:              userStats.Active,
			Inactive:            userStats.Inactive,
			Students:            userStats.ByRole[models.RoleStudent],
			Admins:              userStats.ByRole[models.RoleAdmin],
			RecentRegistrations: userStats.Recent,
		},
		Applications:       overviewFromCounts(counts),
		RecentApplications: int64(len(recent)),
		TopCourses:         courseStats(top),
		PendingReview:      pending,
		Trends: dto.DashboardTrends{
			Applications:  appTrend,
			Registrations: userTrend,
		},
		SystemHealth: s.health(ctx, ref),
	}, nil
}
