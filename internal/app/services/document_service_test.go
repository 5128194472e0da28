package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uniadmit/admission/internal/app/auth"
	"github.com/uniadmit/admission/internal/app/models"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
	"github.com/uniadmit/admission/internal/pkg/document"
	"github.com/uniadmit/admission/internal/pkg/filestorage"
	"github.com/uniadmit/admission/internal/pkg/offerletter"
)

func TestDocuments_RoundTripThroughSubmit(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()

	docs := bothDocuments()
	submitted, err := f.svc.Submit(ctx, f.student, completeFields(), docs)
	require.NoError(t, err)

	svc := NewDocumentService(f.apps, testLogger)
	doc, err := svc.ForStudent(ctx, f.student, submitted.ApplicationID, "degree_certificate")
	require.NoError(t, err)
	assert.Equal(t, "degree.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, docs.DegreeCertificate.Payload, doc.Base64().Data)

	admin, err := svc.ForAdmin(ctx, submitted.ApplicationID, "id_proof")
	require.NoError(t, err)
	assert.Equal(t, docs.IDProof.Payload, document.Encode(admin.Data))

	file, err := svc.AdminFile(ctx, submitted.ApplicationID, "id_proof")
	require.NoError(t, err)
	assert.Equal(t, "id.pdf", file.Filename)
	assert.Equal(t, docs.IDProof.Payload, file.FileData)
	assert.Equal(t, "Asha Rao", file.Student.Name)
	assert.Equal(t, "asha@example.com", file.Student.Email)
}

func TestDocuments_Errors(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()

	submitted, err := f.svc.Submit(ctx, f.student, completeFields(), bothDocuments())
	require.NoError(t, err)
	other := f.users.add(models.User{Name: "Other", Email: "o@example.com", Phone: "9000000099", Active: true}, models.RoleStudent)
	otherDraft, _, err := f.svc.SaveDraft(ctx, auth.Student{ID: other.ID}, completeFields())
	require.NoError(t, err)

	svc := NewDocumentService(f.apps, testLogger)
	tests := []struct {
		name     string
		student  auth.Student
		id       int64
		docType  string
		sentinel error
		message  string
	}{
		{"invalid type", f.student, submitted.ApplicationID, "transcript", apperrors.ErrBadRequest, "Invalid document type"},
		{"someone else's application", f.student, otherDraft.ApplicationID, "id_proof", apperrors.ErrResourceNotFound, "Application not found or access denied"},
		{"unknown application", f.student, 999, "id_proof", apperrors.ErrResourceNotFound, "Application not found or access denied"},
		{"draft has no document", auth.Student{ID: other.ID}, otherDraft.ApplicationID, "degree_certificate", apperrors.ErrResourceNotFound, "Document not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ForStudent(ctx, tt.student, tt.id, tt.docType)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestOfferLetter(t *testing.T) {
	issued := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	setup := func(t *testing.T, status models.ApplicationStatus) (*fakeApplicationStore, *offerLetterServiceImpl, auth.Student, int64, filestorage.FileStorage) {
		users := newFakeUserStore()
		apps := newFakeApplicationStore(users)
		u := users.add(models.User{Name: "Asha Rao", Email: "asha@example.com", Phone: "9876543210", Active: true}, models.RoleStudent)
		id := apps.seed(models.Application{
			StudentID:         u.ID,
			CourseApplied:     "B.Sc Computer Science",
			TenthPercentage:   91.5,
			TenthBoard:        "CBSE",
			TwelfthPercentage: 88,
			TwelfthBoard:      "CBSE",
			GraduationYear:    2025,
			Status:            status,
		})
		storage, err := filestorage.NewLocalStorage(t.TempDir())
		require.NoError(t, err)
		svc := NewOfferLetterService(apps, storage, offerletter.DefaultInstitution, testLogger).(*offerLetterServiceImpl)
		svc.now = func() time.Time { return issued }
		return apps, svc, auth.Student{ID: u.ID}, id, storage
	}

	t.Run("approved owner gets an archived pdf", func(t *testing.T) {
		apps, svc, student, id, storage := setup(t, models.StatusApproved)

		letter, err := svc.Generate(context.Background(), student, id)
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", letter.ContentType)
		assert.True(t, bytes.HasPrefix(letter.Data, []byte("%PDF")))
		assert.Equal(t, offerletter.Filename("Asha Rao", id), letter.Filename)

		stored := apps.get(id)
		require.NotNil(t, stored.AdmissionLetterPath)
		assert.Equal(t, letter.ArchivePath, *stored.AdmissionLetterPath)
		archived, err := storage.Read(letter.ArchivePath)
		require.NoError(t, err)
		assert.Equal(t, letter.Data, archived)
	})

	for _, status := range []models.ApplicationStatus{models.StatusPending, models.StatusRejected} {
		t.Run("refused when "+string(status), func(t *testing.T) {
			_, svc, student, id, _ := setup(t, status)
			_, err := svc.Generate(context.Background(), student, id)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
			assert.Equal(t, "Approved application not found or access denied", err.Error())
		})
	}

	t.Run("refused for another student", func(t *testing.T) {
		_, svc, student, id, _ := setup(t, models.StatusApproved)
		_, err := svc.Generate(context.Background(), auth.Student{ID: student.ID + 100}, id)
		require.Error(t, err)
		assert.Equal(t, "Approved application not found or access denied", err.Error())
	})
}
