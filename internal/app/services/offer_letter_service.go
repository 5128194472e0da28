package services

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/uniadmit/admission/internal/app/auth"
	"github.com/uniadmit/admission/internal/app/models"
	"github.com/uniadmit/admission/internal/app/repositories"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
	"github.com/uniadmit/admission/internal/pkg/filestorage"
	"github.com/uniadmit/admission/internal/pkg/offerletter"
)

const offerLetterContentType = "application/pdf"

// OfferLetter is a rendered admission letter.
type OfferLetter struct {
	Filename    string
	ContentType string
	Data        []byte
	ArchivePath string
}

// OfferLetterService defines offer letter generation
type OfferLetterService interface {
	Generate(ctx context.Context, student auth.Student, applicationID int64) (*OfferLetter, error)
}

// offerLetterServiceImpl implements OfferLetterService
type offerLetterServiceImpl struct {
	apps        repositories.ApplicationStore
	archive     filestorage.FileStorage
	institution offerletter.Institution
	logger      zerolog.Logger
	now         func() time.Time
}

// NewOfferLetterService creates a new OfferLetterService. A nil archive skips
// archiving.
func NewOfferLetterService(apps repositories.ApplicationStore, archive filestorage.FileStorage, institution offerletter.Institution, logger zerolog.Logger) OfferLetterService {
	return &offerLetterServiceImpl{
		apps:        apps,
		archive:     archive,
		institution: institution,
		logger:      logger,
		now:         time.Now,
	}
}

func notApproved() error {
	return apperrors.NewResourceNotFoundError("Approved application not found or access denied")
}

// Generate renders the letter for the student's own approved application and
// archives a copy.
func (s *offerLetterServiceImpl) Generate(ctx context.Context, student auth.Student, applicationID int64) (*OfferLetter, error) {
	rec, err := s.apps.GetRecordByID(ctx, applicationID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, notApproved()
		}
		return nil, err
	}
	if rec.StudentID != student.ID || rec.Status != models.StatusApproved {
		return nil, notApproved()
	}

	issued := s.now()
	letter, data, err := offerletter.Generate(s.institution, offerletter.Applicant{
		ApplicationID:         rec.ID,
		Name:                  rec.StudentName,
		Email:                 rec.StudentEmail,
		Phone:                 rec.StudentPhone,
		Course:                rec.CourseApplied,
		GraduationYear:        rec.GraduationYear,
		TenthPercentage:       rec.TenthPercentage,
		TenthBoard:            rec.TenthBoard,
		TwelfthPercentage:     rec.TwelfthPercentage,
		TwelfthBoard:          rec.TwelfthBoard,
		PreviousQualification: rec.PreviousQualification,
		PreviousInstitution:   rec.PreviousInstitution,
	}, issued)
	if err != nil {
		s.logger.Error().Err(err).Int64("applicationID", applicationID).Msg("Failed to render offer letter")
		return nil, err
	}

	out := &OfferLetter{Filename: letter.Filename, ContentType: offerLetterContentType, Data: data}
	if s.archive != nil {
		path, err := s.archive.Save(data, "offer_letters/"+strconv.Itoa(issued.Year()), ".pdf")
		if err != nil {
			// The student still gets the letter.
			s.logger.Error().Err(err).Int64("applicationID", applicationID).Msg("Failed to archive offer letter")
			return out, nil
		}
		if err := s.apps.SetAdmissionLetterPath(ctx, applicationID, path); err != nil {
			s.logger.Error().Err(err).Int64("applicationID", applicationID).Msg("Failed to record offer letter path")
			return out, nil
		}
		if rec.AdmissionLetterPath != nil && *rec.AdmissionLetterPath != path {
			if err := s.archive.Delete(*rec.AdmissionLetterPath); err != nil {
				s.logger.Warn().Err(err).Str("path", *rec.AdmissionLetterPath).Msg("Failed to remove previous offer letter")
			}
		}
		out.ArchivePath = path
	}

	s.logger.Info().Int64("applicationID", applicationID).Str("reference", letter.Reference).Msg("Offer letter generated")
	return out, nil
}
