package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uniadmit/admission/internal/app/auth"
	"github.com/uniadmit/admission/internal/app/models"
	"github.com/uniadmit/admission/internal/app/models/dto"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
	"github.com/uniadmit/admission/internal/pkg/document"
)

type applicationFixture struct {
	users   *fakeUserStore
	apps    *fakeApplicationStore
	svc     ApplicationService
	student auth.Student
}

func newApplicationFixture(t *testing.T) *applicationFixture {
	t.Helper()
	users := newFakeUserStore()
	apps := newFakeApplicationStore(users)
	u := users.add(models.User{Name: "Asha Rao", Email: "asha@example.com", Phone: "9876543210", Active: true}, models.RoleStudent)
	return &applicationFixture{
		users:   users,
		apps:    apps,
		svc:     NewApplicationService(apps, users, document.NewCodec(document.DefaultLimits()), testLogger),
		student: auth.Student{ID: u.ID},
	}
}

func completeFields() dto.ApplicationFields {
	return dto.ApplicationFields{
		CourseApplied:         "B.Sc Computer Science",
		TenthPercentage:       "91.5",
		TenthBoard:            "CBSE",
		TwelfthPercentage:     "88",
		TwelfthBoard:          "CBSE",
		PreviousQualification: "Higher Secondary",
		PreviousInstitution:   "City Public School",
		GraduationYear:        "2024",
		Address:               "12 Lake Road",
		Country:               "India",
		State:                 "Karnataka",
		District:              "Bengaluru",
		Pincode:               "560001",
	}
}

func bothDocuments() SubmittedDocuments {
	return SubmittedDocuments{
		DegreeCertificate: &DocumentInput{Payload: pdfPayload(400), Filename: "degree.pdf"},
		IDProof:           &DocumentInput{Payload: pdfPayload(300), Filename: "id.pdf"},
	}
}

func TestSaveDraft_CreatesWithPlaceholdersAndReadsBackBlanks(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()

	resp, created, err := f.svc.SaveDraft(ctx, f.student, dto.ApplicationFields{CourseApplied: "B.Com"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Draft saved successfully", resp.Message)
	assert.Equal(t, "draft", resp.Status)

	stored := f.apps.get(resp.ApplicationID)
	require.NotNil(t, stored)
	assert.Equal(t, "B.Com", stored.CourseApplied)
	assert.Equal(t, models.DraftTextPlaceholder, stored.TenthBoard)
	assert.Equal(t, models.DraftPincodePlaceholder, stored.Pincode)
	assert.Equal(t, models.DraftGraduationYearPlaceholder, stored.GraduationYear)
	assert.False(t, stored.DegreeCertificate.Present())

	draft, err := f.svc.GetDraft(ctx, f.student)
	require.NoError(t, err)
	assert.Equal(t, "B.Com", draft.Draft.CourseApplied)
	assert.Equal(t, "", draft.Draft.TenthBoard)
	assert.Equal(t, "", draft.Draft.TenthPercentage)
	assert.Equal(t, "", draft.Draft.GraduationYear)
	assert.Equal(t, "", draft.Draft.Pincode)
	assert.Equal(t, "", draft.Draft.Address)
}

func TestSaveDraft_MergesOnlyNonBlankFields(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()

	first, _, err := f.svc.SaveDraft(ctx, f.student, dto.ApplicationFields{CourseApplied: "B.Com", TenthPercentage: "72.5"})
	require.NoError(t, err)

	second, created, err := f.svc.SaveDraft(ctx, f.student, dto.ApplicationFields{CourseApplied: "  ", TenthBoard: "ICSE"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Draft updated successfully", second.Message)
	assert.Equal(t, first.ApplicationID, second.ApplicationID)

	stored := f.apps.get(first.ApplicationID)
	assert.Equal(t, "B.Com", stored.CourseApplied)
	assert.Equal(t, 72.5, stored.TenthPercentage)
	assert.Equal(t, "ICSE", stored.TenthBoard)
	assert.Equal(t, 1, f.apps.countFor(f.student.ID, models.StatusDraft))
}

func TestSaveDraft_NumericErrors(t *testing.T) {
	tests := []struct {
		name   string
		fields dto.ApplicationFields
		want   string
	}{
		{"tenth out of range", dto.ApplicationFields{TenthPercentage: "101"}, "Tenth percentage must be between 0 and 100"},
		{"tenth not a number", dto.ApplicationFields{TenthPercentage: "abc"}, "Invalid tenth percentage value"},
		{"twelfth out of range", dto.ApplicationFields{TwelfthPercentage: "-1"}, "Twelfth percentage must be between 0 and 100"},
		{"twelfth not a number", dto.ApplicationFields{TwelfthPercentage: "x"}, "Invalid twelfth percentage value"},
		{"year out of range", dto.ApplicationFields{GraduationYear: "1900"}, "Invalid graduation year"},
		{"year not a number", dto.ApplicationFields{GraduationYear: "soon"}, "Invalid graduation year value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newApplicationFixture(t)
			_, _, err := f.svc.SaveDraft(context.Background(), f.student, tt.fields)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
			assert.Equal(t, tt.want, err.Error())
			assert.Equal(t, 0, f.apps.countFor(f.student.ID, models.StatusDraft))
		})
	}
}

func TestSaveDraft_ConflictWhilePending(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.student, completeFields(), bothDocuments())
	require.NoError(t, err)

	_, _, err = f.svc.SaveDraft(ctx, f.student, dto.ApplicationFields{CourseApplied: "B.A"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	assert.Equal(t, "You already have a pending application", err.Error())
	assert.Equal(t, 0, f.apps.countFor(f.student.ID, models.StatusDraft))
}

func TestGetDraft_NotFound(t *testing.T) {
	f := newApplicationFixture(t)
	_, err := f.svc.GetDraft(context.Background(), f.student)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
	assert.Equal(t, "No draft found", err.Error())
}

func TestSubmit_ValidationOrder(t *testing.T) {
	with := func(mod func(f *dto.ApplicationFields)) dto.ApplicationFields {
		f := completeFields()
		mod(&f)
		return f
	}

	tests := []struct {
		name     string
		fields   dto.ApplicationFields
		docs     SubmittedDocuments
		sentinel error
		code     string
		message  string
		missing  []string
	}{
		{
			name:     "all missing fields reported in order",
			fields:   with(func(f *dto.ApplicationFields) { f.TenthBoard, f.Pincode, f.CourseApplied = "", " ", "" }),
			docs:     bothDocuments(),
			sentinel: apperrors.ErrValidationFailed,
			code:     apperrors.CodeMissingFields,
			message:  "Missing required fields",
			missing:  []string{"course_applied", "tenth_board", "pincode"},
		},
		{
			name:     "missing fields win over bad numbers",
			fields:   with(func(f *dto.ApplicationFields) { f.TenthPercentage, f.Address = "150", "" }),
			docs:     bothDocuments(),
			sentinel: apperrors.ErrValidationFailed,
			code:     apperrors.CodeMissingFields,
			message:  "Missing required fields",
			missing:  []string{"address"},
		},
		{
			name:     "non numeric",
			fields:   with(func(f *dto.ApplicationFields) { f.TwelfthPercentage = "eighty" }),
			docs:     bothDocuments(),
			sentinel: apperrors.ErrValidationFailed,
			code:     apperrors.CodeValidationFailed,
			message:  "Invalid numeric values for percentage or year",
		},
		{
			name:     "percentage out of range",
			fields:   with(func(f *dto.ApplicationFields) { f.TenthPercentage = "150" }),
			docs:     bothDocuments(),
			sentinel: apperrors.ErrValidationFailed,
			code:     apperrors.CodeValidationFailed,
			message:  "Percentages must be between 0 and 100",
		},
		{
			name:     "year out of range",
			fields:   with(func(f *dto.ApplicationFields) { f.GraduationYear = "2031" }),
			docs:     bothDocuments(),
			sentinel: apperrors.ErrValidationFailed,
			code:     apperrors.CodeValidationFailed,
			message:  "Invalid graduation year",
		},
		{
			name:     "documents checked after fields",
			fields:   completeFields(),
			docs:     SubmittedDocuments{DegreeCertificate: &DocumentInput{Payload: pdfPayload(200)}},
			sentinel: apperrors.ErrDocumentInvalid,
			code:     apperrors.CodeDocumentMissing,
			message:  "Both degree certificate and ID proof are required",
		},
		{
			name:   "unsupported file type",
			fields: completeFields(),
			docs: SubmittedDocuments{
				DegreeCertificate: &DocumentInput{Payload: document.Encode([]byte("GIF89a" + string(make([]byte, 200))))},
				IDProof:           &DocumentInput{Payload: pdfPayload(200)},
			},
			sentinel: apperrors.ErrDocumentInvalid,
			code:     apperrors.CodeUnsupportedFileType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newApplicationFixture(t)
			_, err := f.svc.Submit(context.Background(), f.student, tt.fields, tt.docs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel))
			assert.Equal(t, tt.code, apperrors.Code(err))
			if tt.message != "" {
				assert.Equal(t, tt.message, err.Error())
			}
			if tt.missing != nil {
				var ce *apperrors.CustomError
				require.True(t, errors.As(err, &ce))
				assert.Equal(t, tt.missing, ce.MissingFields)
			}
			assert.Equal(t, 0, f.apps.countFor(f.student.ID, models.StatusPending))
		})
	}
}

func TestSubmit_ConvertsDraftInPlace(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()

	draft, _, err := f.svc.SaveDraft(ctx, f.student, dto.ApplicationFields{CourseApplied: "B.Com"})
	require.NoError(t, err)

	resp, err := f.svc.Submit(ctx, f.student, completeFields(), bothDocuments())
	require.NoError(t, err)
	assert.Equal(t, "Application submitted successfully", resp.Message)
	assert.Equal(t, draft.ApplicationID, resp.ApplicationID)
	assert.Equal(t, "pending", resp.Status)

	stored := f.apps.get(resp.ApplicationID)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, "B.Sc Computer Science", stored.CourseApplied)
	assert.Equal(t, 91.5, stored.TenthPercentage)
	assert.Equal(t, pdfBytes(400), stored.DegreeCertificate.Data)
	assert.Equal(t, "degree.pdf", stored.DegreeCertificate.Filename)
	assert.Equal(t, 0, f.apps.countFor(f.student.ID, models.StatusDraft))
}

func TestSubmit_SecondSubmitConflicts(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.student, completeFields(), bothDocuments())
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, f.student, completeFields(), bothDocuments())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	assert.Equal(t, "You already have a pending application", err.Error())
	assert.Equal(t, 1, f.apps.countFor(f.student.ID, models.StatusPending))
}

func TestSubmit_FailedWriteLeavesDraftUntouched(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()

	draft, _, err := f.svc.SaveDraft(ctx, f.student, dto.ApplicationFields{CourseApplied: "B.Com"})
	require.NoError(t, err)

	f.apps.failUpdate = apperrors.NewStorageError("update application", errors.New("connection reset"))
	_, err = f.svc.Submit(ctx, f.student, completeFields(), bothDocuments())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStorage))

	stored := f.apps.get(draft.ApplicationID)
	assert.Equal(t, models.StatusDraft, stored.Status)
	assert.Equal(t, "B.Com", stored.CourseApplied)
	assert.False(t, stored.IDProof.Present())
}

func TestSubmit_ConcurrentSubmitsLeaveOnePending(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Submit(ctx, f.student, completeFields(), bothDocuments())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, apperrors.ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, 1, f.apps.countFor(f.student.ID, models.StatusPending))
}

func TestDraftWriteLosesToSubmitCommittedMeanwhile(t *testing.T) {
	tests := []struct {
		name  string
		write func(f *applicationFixture) error
	}{
		{"save draft", func(f *applicationFixture) error {
			_, _, err := f.svc.SaveDraft(context.Background(), f.student, dto.ApplicationFields{CourseApplied: "B.A History"})
			return err
		}},
		{"second submit", func(f *applicationFixture) error {
			fields := completeFields()
			fields.CourseApplied = "B.A History"
			_, err := f.svc.Submit(context.Background(), f.student, fields, bothDocuments())
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newApplicationFixture(t)
			draft, _, err := f.svc.SaveDraft(context.Background(), f.student, dto.ApplicationFields{CourseApplied: "B.Com"})
			require.NoError(t, err)

			// another submit commits after this transaction has read the draft
			submitted := f.apps.get(draft.ApplicationID)
			submitted.CourseApplied = "B.Sc Computer Science"
			submitted.Status = models.StatusPending
			submitted.DegreeCertificate = models.Document{Data: pdfBytes(400), Filename: "degree.pdf"}
			submitted.IDProof = models.Document{Data: pdfBytes(300), Filename: "id.pdf"}
			f.apps.beforeUpdate = func() {
				f.apps.beforeUpdate = nil
				f.apps.commitOutside(submitted)
			}

			err = tt.write(f)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrConflict))

			stored := f.apps.get(draft.ApplicationID)
			assert.Equal(t, models.StatusPending, stored.Status)
			assert.Equal(t, "B.Sc Computer Science", stored.CourseApplied)
			assert.Equal(t, pdfBytes(400), stored.DegreeCertificate.Data)
			assert.Equal(t, 0, f.apps.countFor(f.student.ID, models.StatusDraft))
		})
	}
}

func TestStatus(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()

	_, err := f.svc.Status(ctx, f.student)
	require.Error(t, err)
	assert.Equal(t, "No application found", err.Error())

	submitted, err := f.svc.Submit(ctx, f.student, completeFields(), bothDocuments())
	require.NoError(t, err)

	status, err := f.svc.Status(ctx, f.student)
	require.NoError(t, err)
	assert.Equal(t, submitted.ApplicationID, status.Application.ID)
	assert.Equal(t, "pending", status.Application.Status)
	assert.True(t, status.Application.HasDegreeCertificate)
	assert.True(t, status.Application.HasIDProof)
	assert.False(t, status.Application.OfferLetterAvailable)

	list, err := f.svc.ListMine(ctx, f.student)
	require.NoError(t, err)
	require.Len(t, list.Applications, 1)
}

func TestEditApplicantProfile(t *testing.T) {
	t.Run("free edit before submitting", func(t *testing.T) {
		f := newApplicationFixture(t)
		resp, err := f.svc.EditApplicantProfile(context.Background(), f.student, map[string]interface{}{
			"name": "Asha R", "state": "Kerala",
		})
		require.NoError(t, err)
		assert.Equal(t, "Asha R", resp.User.Name)
		assert.Equal(t, "Kerala", resp.User.State)
	})

	t.Run("only phone and address while pending", func(t *testing.T) {
		f := newApplicationFixture(t)
		ctx := context.Background()
		_, err := f.svc.Submit(ctx, f.student, completeFields(), bothDocuments())
		require.NoError(t, err)

		_, err = f.svc.EditApplicantProfile(ctx, f.student, map[string]interface{}{"name": "Other"})
		require.Error(t, err)
		assert.Equal(t, "Cannot modify name after submitting application", err.Error())

		resp, err := f.svc.EditApplicantProfile(ctx, f.student, map[string]interface{}{"address": "7 Hill St"})
		require.NoError(t, err)
		assert.Equal(t, "7 Hill St", resp.User.Address)
	})

	t.Run("phone must be unique and well formed", func(t *testing.T) {
		f := newApplicationFixture(t)
		f.users.add(models.User{Name: "Other", Email: "o@example.com", Phone: "9000000000", Active: true}, models.RoleStudent)

		_, err := f.svc.EditApplicantProfile(context.Background(), f.student, map[string]interface{}{"phone": "12345"})
		require.Error(t, err)
		assert.Equal(t, "Phone number must be exactly 10 digits", err.Error())

		_, err = f.svc.EditApplicantProfile(context.Background(), f.student, map[string]interface{}{"phone": "9000000000"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrConflict))
		assert.Equal(t, "Phone number already registered", err.Error())
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		f := newApplicationFixture(t)
		_, err := f.svc.EditApplicantProfile(context.Background(), f.student, map[string]interface{}{"email": "x@example.com"})
		require.Error(t, err)
		assert.Equal(t, "Field email cannot be modified", err.Error())
	})
}
