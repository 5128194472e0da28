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

// AdminApplicationService defines admin read access to applications
type AdminApplicationService interface {
	Get(ctx context.Context, id int64) (*dto.AdminApplicationDetailResponse, error)
	List(ctx context.Context, query dto.ApplicationSearchQuery) (*dto.AdminApplicationListResponse, error)
	Search(ctx context.Context, query dto.ApplicationSearchQuery) (*dto.AdminApplicationListResponse, error)
}

// adminApplicationServiceImpl implements AdminApplicationService
type adminApplicationServiceImpl struct {
	apps   repositories.ApplicationStore
	logger zerolog.Logger
}

// NewAdminApplicationService creates a new AdminApplicationService
func NewAdminApplicationService(apps repositories.ApplicationStore, logger zerolog.Logger) AdminApplicationService {
	return &adminApplicationServiceImpl{apps: apps, logger: logger}
}

// Get returns one application with its student and reviewer.
func (s *adminApplicationServiceImpl) Get(ctx context.Context, id int64) (*dto.AdminApplicationDetailResponse, error) {
	rec, err := s.apps.GetRecordByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.AdminApplicationDetailResponse{Application: toAdminApplicationResponse(rec)}, nil
}

func parseStatusFilter(raw string) (models.ApplicationStatus, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || raw == "all" {
		return "", nil
	}
	status, ok := models.ParseStatus(raw)
	if !ok {
		return "", apperrors.NewValidationError("Invalid status filter. Must be one of draft, pending, approved, rejected")
	}
	return status, nil
}

func parseDateFilter(raw, name string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := helpers.ParseDate(raw)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid " + name + " format. Use YYYY-MM-DD")
	}
	return &t, nil
}

func (s *adminApplicationServiceImpl) page(ctx context.Context, filter models.ApplicationFilter) (*dto.AdminApplicationListResponse, error) {
	filter.Page, filter.PerPage = helpers.NormalizePage(filter.Page, filter.PerPage, helpers.MaxPerPage)

	records, total, err := s.apps.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.AdminApplicationListResponse{
		Applications: toAdminApplicationResponses(records),
		Pagination:   helpers.NewPaginationInfo(total, filter.Page, filter.PerPage),
	}, nil
}

// List pages through every application, optionally by status.
func (s *adminApplicationServiceImpl) List(ctx context.Context, query dto.ApplicationSearchQuery) (*dto.AdminApplicationListResponse, error) {
	status, err := parseStatusFilter(query.Status)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, models.ApplicationFilter{Status: status, Page: query.Page, PerPage: query.PerPage})
}

// Search applies every filter in query.
func (s *adminApplicationServiceImpl) Search(ctx context.Context, query dto.ApplicationSearchQuery) (*dto.AdminApplicationListResponse, error) {
	status, err := parseStatusFilter(query.Status)
	if err != nil {
		return nil, err
	}
	start, err := parseDateFilter(query.StartDate, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := parseDateFilter(query.EndDate, "end_date")
	if err != nil {
		return nil, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, apperrors.NewValidationError("end_date must not be before start_date")
	}
	if query.MinPercentage != nil && query.MaxPercentage != nil && *query.MinPercentage > *query.MaxPercentage {
		return nil, apperrors.NewValidationError("min_percentage must not exceed max_percentage")
	}

	s.logger.Debug().
		Str("status", string(status)).
		Str("course", query.Course).
		Str("studentName", query.StudentName).
		Msg("Searching applications")

	return s.page(ctx, models.ApplicationFilter{
		Status:               status,
		Course:               strings.TrimSpace(query.Course),
		StudentName:          strings.TrimSpace(query.StudentName),
		StartDate:            start,
		EndDate:              end,
		MinTwelfthPercentage: query.MinPercentage,
		MaxTwelfthPercentage: query.MaxPercentage,
		Page:                 query.Page,
		PerPage:              query.PerPage,
	})
}
