package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/uniadmit/admission/internal/app/auth"
	"github.com/uniadmit/admission/internal/app/models"
	"github.com/uniadmit/admission/internal/app/models/dto"
	"github.com/uniadmit/admission/internal/app/repositories"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
	"github.com/uniadmit/admission/internal/pkg/email"
	"github.com/uniadmit/admission/internal/pkg/filestorage"
)

const (
	actionApprove = "approve"
	actionReject  = "reject"
	actionDelete  = "delete"
)

// ReviewOptions tunes review behaviour.
type ReviewOptions struct {
	// StrictTransitions refuses to review an application that is not pending.
	StrictTransitions bool
}

// ReviewService defines admin decisions on applications
type ReviewService interface {
	Review(ctx context.Context, admin auth.Admin, applicationID int64, req dto.ReviewRequest) (*dto.ReviewResponse, error)
	BulkReview(ctx context.Context, admin auth.Admin, req dto.BulkActionRequest) (*dto.BulkActionResponse, error)
}

// reviewServiceImpl implements ReviewService
type reviewServiceImpl struct {
	apps     repositories.ApplicationStore
	notifier email.Notifier
	archive  filestorage.FileStorage
	opts     ReviewOptions
	logger   zerolog.Logger
	now      func() time.Time
}

// NewReviewService creates a new ReviewService. Bulk deletes remove archived
// offer letters from archive; a nil archive leaves files in place.
func NewReviewService(apps repositories.ApplicationStore, notifier email.Notifier, archive filestorage.FileStorage, opts ReviewOptions, logger zerolog.Logger) ReviewService {
	return &reviewServiceImpl{
		apps:     apps,
		notifier: notifier,
		archive:  archive,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

func decisionStatus(action string) (models.ApplicationStatus, bool) {
	switch action {
	case actionApprove:
		return models.StatusApproved, true
	case actionReject:
		return models.StatusRejected, true
	}
	return "", false
}

// removeOfferLetter drops the archived letter of a deleted application.
// Failures are logged only; the row is already gone.
func (s *reviewServiceImpl) removeOfferLetter(app models.Application) {
	if s.archive == nil || app.AdmissionLetterPath == nil || *app.AdmissionLetterPath == "" {
		return
	}
	if err := s.archive.Delete(*app.AdmissionLetterPath); err != nil {
		s.logger.Warn().Err(err).Int64("applicationID", app.ID).Str("path", *app.AdmissionLetterPath).Msg("Failed to remove archived offer letter")
	}
}

func optionalComments(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Review approves or rejects one application.
func (s *reviewServiceImpl) Review(ctx context.Context, admin auth.Admin, applicationID int64, req dto.ReviewRequest) (*dto.ReviewResponse, error) {
	action := strings.ToLower(strings.TrimSpace(req.Action))
	status, ok := decisionStatus(action)
	if !ok {
		return nil, apperrors.NewValidationError("Action must be approve or reject")
	}

	decision := models.ReviewDecision{
		ApplicationID: applicationID,
		Status:        status,
		ReviewerID:    admin.ID,
		Comments:      optionalComments(req.Comments),
		ReviewedAt:    s.now().UTC(),
	}

	var rec *models.ApplicationRecord
	err := s.apps.WithinTransaction(ctx, func(ctx context.Context, store repositories.ApplicationStore) error {
		var err error
		rec, err = store.GetRecordByID(ctx, applicationID)
		if err != nil {
			return err
		}

		if rec.Status != models.StatusPending {
			if s.opts.StrictTransitions {
				return apperrors.NewConflictError(fmt.Sprintf("Cannot %s application with status: %s", action, rec.Status))
			}
			s.logger.Warn().
				Int64("applicationID", applicationID).
				Str("currentStatus", string(rec.Status)).
				Str("action", action).
				Msg("Reviewing an application that is not pending")
		}
		return store.UpdateReview(ctx, decision)
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) && rec != nil && rec.Status == models.StatusDraft {
			return nil, apperrors.NewConflictError(fmt.Sprintf("Cannot %s application with status: %s", action, rec.Status))
		}
		return nil, err
	}

	s.logger.Info().Int64("applicationID", applicationID).Int64("adminID", admin.ID).Str("status", string(status)).Msg("Application reviewed")
	s.notify(rec, status, decision.Comments)

	return &dto.ReviewResponse{
		Message: fmt.Sprintf("Application %s successfully", status),
		Application: dto.ReviewedApplication{
			ID:             applicationID,
			Status:         string(status),
			ReviewComments: decision.Comments,
			ReviewedAt:     &decision.ReviewedAt,
		},
	}, nil
}

// notify tells the student about a decision. Delivery failures are logged.
func (s *reviewServiceImpl) notify(rec *models.ApplicationRecord, status models.ApplicationStatus, comments *string) {
	if s.notifier == nil || rec == nil {
		return
	}
	d := email.Decision{
		ToEmail: rec.StudentEmail,
		ToName:  rec.StudentName,
		Course:  rec.CourseApplied,
		Status:  string(status),
	}
	if comments != nil {
		d.Comments = *comments
	}
	if err := s.notifier.SendDecision(d); err != nil {
		s.logger.Error().Err(err).Int64("applicationID", rec.ID).Msg("Failed to send decision notification")
	}
}

// BulkReview applies one action to many applications. Each item stands
// alone: failures are reported and do not undo other items.
func (s *reviewServiceImpl) BulkReview(ctx context.Context, admin auth.Admin, req dto.BulkActionRequest) (*dto.BulkActionResponse, error) {
	action := strings.ToLower(strings.TrimSpace(req.Action))
	status, isDecision := decisionStatus(action)
	if !isDecision && action != actionDelete {
		return nil, apperrors.NewValidationError("Invalid action. Must be approve, reject, or delete")
	}
	if len(req.ApplicationIDs) == 0 {
		return nil, apperrors.NewValidationError("No application IDs provided")
	}

	records, err := s.apps.GetRecordsByIDs(ctx, req.ApplicationIDs)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewResourceNotFoundError("No applications found")
	}

	comments := optionalComments(req.Comments)
	reviewedAt := s.now().UTC()

	resp := &dto.BulkActionResponse{
		TotalProcessed:      len(req.ApplicationIDs),
		UpdatedApplications: []dto.BulkUpdated{},
		FailedUpdates:       []dto.BulkFailure{},
		ActionPerformed:     action,
		CommentsAdded:       strings.TrimSpace(req.Comments),
	}
	fail := func(id int64, reason string) {
		resp.FailedUpdates = append(resp.FailedUpdates, dto.BulkFailure{ID: id, Reason: reason})
	}

	var decided []models.ApplicationRecord
	for _, id := range req.ApplicationIDs {
		rec, found := records[id]
		if !found {
			fail(id, "Application not found")
			continue
		}

		if action == actionDelete {
			deleted, err := s.apps.Delete(ctx, id)
			if err != nil {
				s.logger.Error().Err(err).Int64("applicationID", id).Msg("Bulk delete failed for application")
				fail(id, "Failed to delete application")
				continue
			}
			if !deleted {
				fail(id, "Application not found")
				continue
			}
			s.removeOfferLetter(rec.Application)
			resp.UpdatedApplications = append(resp.UpdatedApplications, dto.BulkUpdated{
				ID: id, StudentName: rec.StudentName, OldStatus: string(rec.Status), NewStatus: "deleted",
			})
			continue
		}

		if rec.Status != models.StatusPending {
			fail(id, fmt.Sprintf("Application is not pending (current status: %s)", rec.Status))
			continue
		}
		applied, err := s.apps.UpdateReviewIfPending(ctx, models.ReviewDecision{
			ApplicationID: id,
			Status:        status,
			ReviewerID:    admin.ID,
			Comments:      comments,
			ReviewedAt:    reviewedAt,
		})
		if err != nil {
			s.logger.Error().Err(err).Int64("applicationID", id).Msg("Bulk review failed for application")
			fail(id, "Failed to update application")
			continue
		}
		if !applied {
			fail(id, "Application is no longer pending")
			continue
		}
		resp.UpdatedApplications = append(resp.UpdatedApplications, dto.BulkUpdated{
			ID: id, StudentName: rec.StudentName, OldStatus: string(rec.Status), NewStatus: string(status),
		})
		decided = append(decided, rec)
	}

	resp.SuccessfulUpdates = len(resp.UpdatedApplications)
	resp.FailedCount = len(resp.FailedUpdates)
	resp.Message = fmt.Sprintf("Bulk %s completed: %d successful, %d failed", action, resp.SuccessfulUpdates, resp.FailedCount)

	s.logger.Info().
		Int64("adminID", admin.ID).
		Str("action", action).
		Int("successful", resp.SuccessfulUpdates).
		Int("failed", resp.FailedCount).
		Msg("Bulk action processed")

	for i := range decided {
		s.notify(&decided[i], status, comments)
	}
	return resp, nil
}
