package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/uniadmit/admission/internal/app/auth"
	"github.com/uniadmit/admission/internal/app/models"
	"github.com/uniadmit/admission/internal/app/models/dto"
	"github.com/uniadmit/admission/internal/app/repositories"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
	"github.com/uniadmit/admission/internal/pkg/document"
)

// StoredDocument is a document ready to be streamed to a client.
type StoredDocument struct {
	Filename    string
	ContentType string
	Data        []byte
	StudentID   int64
}

// Base64 renders the document for the inline JSON form.
func (d *StoredDocument) Base64() *dto.DocumentBase64Response {
	return &dto.DocumentBase64Response{
		Filename:    d.Filename,
		Data:        document.Encode(d.Data),
		ContentType: d.ContentType,
	}
}

// DocumentService defines document retrieval
type DocumentService interface {
	ForStudent(ctx context.Context, student auth.Student, applicationID int64, docType string) (*StoredDocument, error)
	ForAdmin(ctx context.Context, applicationID int64, docType string) (*StoredDocument, error)
	AdminFile(ctx context.Context, applicationID int64, docType string) (*dto.AdminFileResponse, error)
}

// documentServiceImpl implements DocumentService
type documentServiceImpl struct {
	apps   repositories.ApplicationStore
	logger zerolog.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(apps repositories.ApplicationStore, logger zerolog.Logger) DocumentService {
	return &documentServiceImpl{apps: apps, logger: logger}
}

func parseSlot(docType string) (models.DocumentSlot, error) {
	slot, ok := models.ParseDocumentSlot(docType)
	if !ok {
		return "", apperrors.NewBadRequestError("Invalid document type")
	}
	return slot, nil
}

func extract(app *models.Application, slot models.DocumentSlot) (*StoredDocument, error) {
	doc := app.Document(slot)
	if !doc.Present() {
		return nil, apperrors.NewResourceNotFoundError("Document not found")
	}
	return &StoredDocument{
		Filename:    document.SanitizeFilename(doc.Filename, string(slot)),
		ContentType: document.ContentType(doc.Data),
		Data:        doc.Data,
		StudentID:   app.StudentID,
	}, nil
}

func (s *documentServiceImpl) load(ctx context.Context, applicationID int64, docType string) (*StoredDocument, error) {
	slot, err := parseSlot(docType)
	if err != nil {
		return nil, err
	}
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	return extract(app, slot)
}

// ForStudent returns a document of the student's own application. Another
// student's application reads as not found.
func (s *documentServiceImpl) ForStudent(ctx context.Context, student auth.Student, applicationID int64, docType string) (*StoredDocument, error) {
	slot, err := parseSlot(docType)
	if err != nil {
		return nil, err
	}
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.NewResourceNotFoundError("Application not found or access denied")
		}
		return nil, err
	}
	if err := auth.ScopeToOwner(student, app.StudentID); err != nil {
		return nil, err
	}
	return extract(app, slot)
}

// ForAdmin returns any application's document.
func (s *documentServiceImpl) ForAdmin(ctx context.Context, applicationID int64, docType string) (*StoredDocument, error) {
	return s.load(ctx, applicationID, docType)
}

// AdminFile returns a document with its owner for the admin download view.
func (s *documentServiceImpl) AdminFile(ctx context.Context, applicationID int64, docType string) (*dto.AdminFileResponse, error) {
	slot, err := parseSlot(docType)
	if err != nil {
		return nil, err
	}
	rec, err := s.apps.GetRecordByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	doc, err := s.load(ctx, applicationID, string(slot))
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int64("applicationID", applicationID).Str("type", string(slot)).Msg("Admin file download")
	return &dto.AdminFileResponse{
		Filename: doc.Filename,
		FileData: document.Encode(doc.Data),
		FileType: doc.ContentType,
		Student:  dto.ReviewerSummary{Name: rec.StudentName, Email: rec.StudentEmail},
	}, nil
}
