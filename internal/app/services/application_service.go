package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog"
	"github.com/uniadmit/admission/internal/app/auth"
	"github.com/uniadmit/admission/internal/app/models"
	"github.com/uniadmit/admission/internal/app/models/dto"
	"github.com/uniadmit/admission/internal/app/repositories"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
	"github.com/uniadmit/admission/internal/pkg/document"
	"github.com/uniadmit/admission/internal/pkg/validation"
)

// DocumentInput is one uploaded document, either a base64 payload or a
// multipart file.
type DocumentInput struct {
	Payload  string
	Filename string
	File     *multipart.FileHeader
}

func (d *DocumentInput) empty() bool {
	return d == nil || (d.File == nil && strings.TrimSpace(d.Payload) == "")
}

// SubmittedDocuments are the two documents a submission must carry.
type SubmittedDocuments struct {
	DegreeCertificate *DocumentInput
	IDProof           *DocumentInput
}

// ApplicationService defines the student side of the application lifecycle
type ApplicationService interface {
	SaveDraft(ctx context.Context, student auth.Student, fields dto.ApplicationFields) (*dto.ApplicationSavedResponse, bool, error)
	GetDraft(ctx context.Context, student auth.Student) (*dto.DraftResponse, error)
	Submit(ctx context.Context, student auth.Student, fields dto.ApplicationFields, docs SubmittedDocuments) (*dto.ApplicationSavedResponse, error)
	Status(ctx context.Context, student auth.Student) (*dto.ApplicationStatusResponse, error)
	ListMine(ctx context.Context, student auth.Student) (*dto.ApplicationListResponse, error)
	EditApplicantProfile(ctx context.Context, student auth.Student, req map[string]interface{}) (*dto.UserEnvelope, error)
}

// applicationServiceImpl implements ApplicationService
type applicationServiceImpl struct {
	apps   repositories.ApplicationStore
	users  repositories.UserStore
	codec  *document.Codec
	logger zerolog.Logger
}

// NewApplicationService creates a new ApplicationService
func NewApplicationService(apps repositories.ApplicationStore, users repositories.UserStore, codec *document.Codec, logger zerolog.Logger) ApplicationService {
	return &applicationServiceImpl{
		apps:   apps,
		users:  users,
		codec:  codec,
		logger: logger,
	}
}

const msgPendingExists = "You already have a pending application"

// draftNumbers holds the numeric fields of a draft that were provided.
type draftNumbers struct {
	tenth, twelfth *float64
	year           *int
}

func parseDraftPercentage(raw, which string) (*float64, error) {
	if validation.IsBlank(raw) {
		return nil, nil
	}
	v, err := validation.ParsePercentage(raw, false)
	switch {
	case errors.Is(err, validation.ErrOutOfRange):
		return nil, apperrors.NewValidationError(which + " percentage must be between 0 and 100")
	case err != nil:
		return nil, apperrors.NewValidationError("Invalid " + strings.ToLower(which) + " percentage value")
	}
	return &v, nil
}

func parseDraftNumbers(f dto.ApplicationFields) (draftNumbers, error) {
	var (
		n   draftNumbers
		err error
	)
	if n.tenth, err = parseDraftPercentage(f.TenthPercentage.String(), "Tenth"); err != nil {
		return n, err
	}
	if n.twelfth, err = parseDraftPercentage(f.TwelfthPercentage.String(), "Twelfth"); err != nil {
		return n, err
	}
	if raw := f.GraduationYear.String(); !validation.IsBlank(raw) {
		year, err := validation.ParseGraduationYear(raw, false)
		switch {
		case errors.Is(err, validation.ErrOutOfRange):
			return n, apperrors.NewValidationError("Invalid graduation year")
		case err != nil:
			return n, apperrors.NewValidationError("Invalid graduation year value")
		}
		n.year = &year
	}
	return n, nil
}

// mergeText overwrites dst only with a non-blank value.
func mergeText(dst *string, v dto.FlexString) {
	if s := strings.TrimSpace(v.String()); s != "" {
		*dst = s
	}
}

func mergeDraft(app *models.Application, f dto.ApplicationFields, n draftNumbers) {
	mergeText(&app.CourseApplied, f.CourseApplied)
	mergeText(&app.TenthBoard, f.TenthBoard)
	mergeText(&app.TwelfthBoard, f.TwelfthBoard)
	mergeText(&app.PreviousQualification, f.PreviousQualification)
	mergeText(&app.PreviousInstitution, f.PreviousInstitution)
	mergeText(&app.Address, f.Address)
	mergeText(&app.Country, f.Country)
	mergeText(&app.State, f.State)
	mergeText(&app.District, f.District)
	mergeText(&app.Pincode, f.Pincode)
	if n.tenth != nil {
		app.TenthPercentage = *n.tenth
	}
	if n.twelfth != nil {
		app.TwelfthPercentage = *n.twelfth
	}
	if n.year != nil {
		app.GraduationYear = *n.year
	}
}

// SaveDraft creates or merges the student's draft. The bool reports creation.
func (s *applicationServiceImpl) SaveDraft(ctx context.Context, student auth.Student, fields dto.ApplicationFields) (*dto.ApplicationSavedResponse, bool, error) {
	numbers, err := parseDraftNumbers(fields)
	if err != nil {
		return nil, false, err
	}

	var (
		id      int64
		created bool
	)
	err = s.apps.WithinTransaction(ctx, func(ctx context.Context, store repositories.ApplicationStore) error {
		pending, err := store.HasApplicationWithStatus(ctx, student.ID, models.StatusPending)
		if err != nil {
			return err
		}
		if pending {
			return apperrors.NewConflictError(msgPendingExists)
		}

		draft, err := store.FindByStudentAndStatus(ctx, student.ID, models.StatusDraft)
		if err != nil {
			return err
		}
		if draft == nil {
			draft = models.NewDraft(student.ID)
			mergeDraft(draft, fields, numbers)
			if err := store.Create(ctx, draft); err != nil {
				return err
			}
			id, created = draft.ID, true
			return nil
		}

		mergeDraft(draft, fields, numbers)
		if err := store.Update(ctx, draft); err != nil {
			return err
		}
		id = draft.ID
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	msg := "Draft updated successfully"
	if created {
		msg = "Draft saved successfully"
	}
	s.logger.Info().Int64("studentID", student.ID).Int64("applicationID", id).Bool("created", created).Msg("Draft saved")
	return &dto.ApplicationSavedResponse{Message: msg, ApplicationID: id, Status: string(models.StatusDraft)}, created, nil
}

// GetDraft returns the draft with placeholders shown as blanks.
func (s *applicationServiceImpl) GetDraft(ctx context.Context, student auth.Student) (*dto.DraftResponse, error) {
	draft, err := s.apps.FindByStudentAndStatus(ctx, student.ID, models.StatusDraft)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, apperrors.NewResourceNotFoundError("No draft found")
	}
	return &dto.DraftResponse{Draft: toDraftData(draft)}, nil
}

// submission is a fully validated set of fields.
type submission struct {
	values  map[string]string
	tenth   float64
	twelfth float64
	year    int
}

func validateSubmission(f dto.ApplicationFields) (*submission, error) {
	values := f.Values()
	if missing := validation.MissingFields(values, validation.ApplicationRequiredFields); len(missing) > 0 {
		return nil, apperrors.NewMissingFieldsError(missing)
	}

	tenth, errTenth := validation.ParsePercentage(values["tenth_percentage"], true)
	twelfth, errTwelfth := validation.ParsePercentage(values["twelfth_percentage"], true)
	year, errYear := validation.ParseGraduationYear(values["graduation_year"], true)

	for _, err := range []error{errTenth, errTwelfth, errYear} {
		if errors.Is(err, validation.ErrNotANumber) {
			return nil, apperrors.NewValidationError("Invalid numeric values for percentage or year")
		}
	}
	if errors.Is(errTenth, validation.ErrOutOfRange) || errors.Is(errTwelfth, validation.ErrOutOfRange) {
		return nil, apperrors.NewValidationError("Percentages must be between 0 and 100")
	}
	if errYear != nil {
		return nil, apperrors.NewValidationError("Invalid graduation year")
	}

	for k, v := range values {
		values[k] = strings.TrimSpace(v)
	}
	return &submission{values: values, tenth: tenth, twelfth: twelfth, year: year}, nil
}

func (s *applicationServiceImpl) decodeDocument(in *DocumentInput, field string) (*document.Decoded, error) {
	if in.File != nil {
		return s.codec.DecodeMultipart(in.File, field)
	}
	return s.codec.Decode(in.Payload, in.Filename, field)
}

func (sub *submission) applyTo(app *models.Application, degree, idProof *document.Decoded) {
	v := sub.values
	app.CourseApplied = v["course_applied"]
	app.TenthPercentage = sub.tenth
	app.TenthBoard = v["tenth_board"]
	app.TwelfthPercentage = sub.twelfth
	app.TwelfthBoard = v["twelfth_board"]
	app.PreviousQualification = v["previous_qualification"]
	app.PreviousInstitution = v["previous_institution"]
	app.GraduationYear = sub.year
	app.Address = v["address"]
	app.Country = v["country"]
	app.State = v["state"]
	app.District = v["district"]
	app.Pincode = v["pincode"]
	app.DegreeCertificate = models.Document{Data: degree.Data, Filename: degree.Filename}
	app.IDProof = models.Document{Data: idProof.Data, Filename: idProof.Filename}
	app.Status = models.StatusPending
}

// Submit validates everything before touching storage, then converts the
// draft in place or creates a pending application.
func (s *applicationServiceImpl) Submit(ctx context.Context, student auth.Student, fields dto.ApplicationFields, docs SubmittedDocuments) (*dto.ApplicationSavedResponse, error) {
	pending, err := s.apps.HasApplicationWithStatus(ctx, student.ID, models.StatusPending)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperrors.NewConflictError(msgPendingExists)
	}

	sub, err := validateSubmission(fields)
	if err != nil {
		return nil, err
	}

	if docs.DegreeCertificate.empty() || docs.IDProof.empty() {
		return nil, apperrors.NewDocumentError(apperrors.CodeDocumentMissing, "Both degree certificate and ID proof are required")
	}
	degree, err := s.decodeDocument(docs.DegreeCertificate, string(models.SlotDegreeCertificate))
	if err != nil {
		return nil, err
	}
	idProof, err := s.decodeDocument(docs.IDProof, string(models.SlotIDProof))
	if err != nil {
		return nil, err
	}

	var id int64
	err = s.apps.WithinTransaction(ctx, func(ctx context.Context, store repositories.ApplicationStore) error {
		// re-checked inside the unit of work; the open-application index
		// still arbitrates concurrent submits
		pending, err := store.HasApplicationWithStatus(ctx, student.ID, models.StatusPending)
		if err != nil {
			return err
		}
		if pending {
			return apperrors.NewConflictError(msgPendingExists)
		}

		draft, err := store.FindByStudentAndStatus(ctx, student.ID, models.StatusDraft)
		if err != nil {
			return err
		}
		if draft != nil {
			sub.applyTo(draft, degree, idProof)
			if err := store.Update(ctx, draft); err != nil {
				return err
			}
			id = draft.ID
			return nil
		}

		app := &models.Application{StudentID: student.ID}
		sub.applyTo(app, degree, idProof)
		if err := store.Create(ctx, app); err != nil {
			return err
		}
		id = app.ID
		return nil
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			s.logger.Warn().Int64("studentID", student.ID).Msg("Rejected submission while another is pending")
		}
		return nil, err
	}

	s.logger.Info().Int64("studentID", student.ID).Int64("applicationID", id).Msg("Application submitted")
	return &dto.ApplicationSavedResponse{
		Message:       "Application submitted successfully",
		ApplicationID: id,
		Status:        string(models.StatusPending),
	}, nil
}

// Status returns the student's most recent application.
func (s *applicationServiceImpl) Status(ctx context.Context, student auth.Student) (*dto.ApplicationStatusResponse, error) {
	rec, err := s.apps.LatestForStudent(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperrors.NewResourceNotFoundError("No application found")
	}
	return &dto.ApplicationStatusResponse{Application: toApplicationResponse(rec)}, nil
}

// ListMine returns all of the student's applications.
func (s *applicationServiceImpl) ListMine(ctx context.Context, student auth.Student) (*dto.ApplicationListResponse, error) {
	records, err := s.apps.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ApplicationResponse, 0, len(records))
	for i := range records {
		out = append(out, toApplicationResponse(&records[i]))
	}
	return &dto.ApplicationListResponse{Applications: out}, nil
}

// EditApplicantProfile edits the student's account. Once an application is
// pending only phone and address may change.
func (s *applicationServiceImpl) EditApplicantProfile(ctx context.Context, student auth.Student, req map[string]interface{}) (*dto.UserEnvelope, error) {
	if len(req) == 0 {
		return nil, apperrors.NewValidationError("No valid fields provided for update")
	}

	user, err := s.users.GetByID(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	pending, err := s.apps.HasApplicationWithStatus(ctx, student.ID, models.StatusPending)
	if err != nil {
		return nil, err
	}

	allowed := applicantProfileFields
	onDisallowed := func(field string) error {
		return apperrors.NewValidationError(fmt.Sprintf("Field %s cannot be modified", field))
	}
	if pending {
		allowed = applicantPendingFields
		onDisallowed = func(field string) error {
			return apperrors.NewValidationError(fmt.Sprintf("Cannot modify %s after submitting application", field)).
				WithDetails(map[string]interface{}{"allowed_fields": fieldNames(applicantPendingFields)})
		}
	}

	updated := *user
	applied, err := applyFields(&updated, req, allowed, onDisallowed)
	if err != nil {
		return nil, err
	}

	if containsField(applied, "phone") && updated.Phone != user.Phone {
		taken, err := s.users.PhoneExists(ctx, updated.Phone, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.NewConflictError("Phone number already registered")
		}
	}

	if err := s.users.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Strs("fields", applied).Bool("pending", pending).Msg("Applicant profile updated")
	return &dto.UserEnvelope{Message: "Profile updated successfully", User: toUserResponse(&updated)}, nil
}
