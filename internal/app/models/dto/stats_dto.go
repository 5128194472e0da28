package dto

import "time"

// TrendPoint is one bucket of a time series.
type TrendPoint struct {
	Period string `json:"period" example:"2025-06"`
	Count  int64  `json:"count" example:"12"`
}

// ApplicationOverview counts applications by status.
type ApplicationOverview struct {
	Total                  int64   `json:"total_applications"`
	Draft                  int64   `json:"draft_applications"`
	Pending                int64   `json:"pending_applications"`
	Approved               int64   `json:"approved_applications"`
	Rejected               int64   `json:"rejected_applications"`
	ApprovalRatePercentage float64 `json:"approval_rate_percentage"`
}

// CourseStat counts applications for one course.
type CourseStat struct {
	Course   string `json:"course"`
	Total    int64  `json:"total"`
	Pending  int64  `json:"pending"`
	Approved int64  `json:"approved"`
	Rejected int64  `json:"rejected"`
}

// ApplicationStatsResponse is the admin statistics payload.
type ApplicationStatsResponse struct {
	Overview           ApplicationOverview `json:"overview"`
	CourseWiseStats    []CourseStat        `json:"course_wise_stats"`
	MonthlyTrends      []TrendPoint        `json:"monthly_trends"`
	RecentApplications []TrendPoint        `json:"recent_applications"`
}

// TrendResponse is a configurable time series.
type TrendResponse struct {
	Granularity string       `json:"granularity" example:"daily"`
	Span        int          `json:"span" example:"30"`
	Points      []TrendPoint `json:"points"`
}

// RoleCount counts users holding a role.
type RoleCount struct {
	Role  string `json:"role"`
	Count int64  `json:"count"`
}

// UserStatsResponse is the admin user statistics payload.
type UserStatsResponse struct {
	TotalUsers          int64          `json:"total_users"`
	ActiveUsers         int64          `json:"active_users"`
	InactiveUsers       int64          `json:"inactive_users"`
	RoleBreakdown       []RoleCount    `json:"role_breakdown"`
	RecentRegistrations int64          `json:"recent_registrations"`
	NewestUsers         []UserResponse `json:"newest_users"`
}

// PendingReviewItem is an application waiting for a decision.
type PendingReviewItem struct {
	ID          int64     `json:"id"`
	StudentName string    `json:"student_name"`
	Course      string    `json:"course_applied"`
	DateCreated time.Time `json:"date_created"`
	DaysPending int       `json:"days_pending"`
}

// DashboardUsers summarises accounts.
type DashboardUsers struct {
	Total               int64 `json:"total"`
	Active              int64 `json:"active"`
	Inactive            int64 `json:"inactive"`
	Students            int64 `json:"students"`
	Admins              int64 `json:"admins"`
	RecentRegistrations int64 `json:"recent_registrations"`
}

// DashboardTrends holds the six month series.
type DashboardTrends struct {
	Applications  []TrendPoint `json:"applications"`
	Registrations []TrendPoint `json:"registrations"`
}

// SystemHealth reports dependency status.
type SystemHealth struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	CheckedAt time.Time `json:"checked_at"`
}

// DashboardResponse is the admin dashboard payload.
type DashboardResponse struct {
	Users              DashboardUsers      `json:"users"`
	Applications       ApplicationOverview `json:"applications"`
	RecentApplications int64               `json:"recent_applications"`
	TopCourses         []CourseStat        `json:"top_courses"`
	PendingReview      []PendingReviewItem `json:"pending_review"`
	Trends             DashboardTrends     `json:"trends"`
	SystemHealth       SystemHealth        `json:"system_health"`
}
