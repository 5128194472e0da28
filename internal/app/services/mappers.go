package services

import (
	"strconv"

	"github.com/uniadmit/admission/internal/app/models"
	"github.com/uniadmit/admission/internal/app/models/dto"
)

func toUserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		Address:     u.Address,
		Country:     u.Country,
		State:       u.State,
		District:    u.District,
		Pincode:     u.Pincode,
		Active:      u.Active,
		Roles:       u.RoleStrings(),
		DateCreated: u.DateCreated,
	}
}

func toUserResponses(users []models.User) []dto.UserResponse {
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	return out
}

func toApplicationResponse(rec *models.ApplicationRecord) dto.ApplicationResponse {
	a := rec.Application
	return dto.ApplicationResponse{
		ID:                        a.ID,
		CourseApplied:             a.CourseApplied,
		TenthPercentage:           a.TenthPercentage,
		TenthBoard:                a.TenthBoard,
		TwelfthPercentage:         a.TwelfthPercentage,
		TwelfthBoard:              a.TwelfthBoard,
		PreviousQualification:     a.PreviousQualification,
		PreviousInstitution:       a.PreviousInstitution,
		GraduationYear:            a.GraduationYear,
		Address:                   a.Address,
		Country:                   a.Country,
		State:                     a.State,
		District:                  a.District,
		Pincode:                   a.Pincode,
		Status:                    string(a.Status),
		ReviewComments:            a.ReviewComments,
		ReviewedAt:                a.ReviewedAt,
		ReviewedBy:                rec.ReviewerName,
		DateCreated:               a.DateCreated,
		HasDegreeCertificate:      rec.HasDegreeCertificate,
		HasIDProof:                rec.HasIDProof,
		DegreeCertificateFilename: a.DegreeCertificate.Filename,
		IDProofFilename:           a.IDProof.Filename,
		OfferLetterAvailable:      a.Status == models.StatusApproved,
	}
}

func toAdminApplicationResponse(rec *models.ApplicationRecord) dto.AdminApplicationResponse {
	resp := dto.AdminApplicationResponse{
		ApplicationResponse: toApplicationResponse(rec),
		Student: dto.StudentSummary{
			ID:    rec.StudentID,
			Name:  rec.StudentName,
			Email: rec.StudentEmail,
			Phone: rec.StudentPhone,
		},
	}
	if rec.ReviewerName != nil {
		resp.Reviewer = &dto.ReviewerSummary{Name: *rec.ReviewerName}
		if rec.ReviewerEmail != nil {
			resp.Reviewer.Email = *rec.ReviewerEmail
		}
	}
	return resp
}

func toAdminApplicationResponses(records []models.ApplicationRecord) []dto.AdminApplicationResponse {
	out := make([]dto.AdminApplicationResponse, 0, len(records))
	for i := range records {
		out = append(out, toAdminApplicationResponse(&records[i]))
	}
	return out
}

// blankIf renders a stored placeholder as an empty string.
func blankIf(value string, placeholders ...string) string {
	for _, p := range placeholders {
		if value == p {
			return ""
		}
	}
	return value
}

func toDraftData(a *models.Application) dto.DraftData {
	text := func(v string) string {
		return blankIf(v, models.DraftTextPlaceholder, models.DraftCoursePlaceholder)
	}
	pct := func(v float64) string {
		if v == models.DraftPercentagePlaceholder {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	year := ""
	if a.GraduationYear != models.DraftGraduationYearPlaceholder {
		year = strconv.Itoa(a.GraduationYear)
	}

	return dto.DraftData{
		ID:                    a.ID,
		CourseApplied:         text(a.CourseApplied),
		TenthPercentage:       pct(a.TenthPercentage),
		TenthBoard:            text(a.TenthBoard),
		TwelfthPercentage:     pct(a.TwelfthPercentage),
		TwelfthBoard:          text(a.TwelfthBoard),
		PreviousQualification: text(a.PreviousQualification),
		PreviousInstitution:   text(a.PreviousInstitution),
		GraduationYear:        year,
		Address:               text(a.Address),
		Country:               text(a.Country),
		State:                 text(a.State),
		District:              text(a.District),
		Pincode:               blankIf(a.Pincode, models.DraftPincodePlaceholder),
		Status:                string(a.Status),
		DateCreated:           a.DateCreated,
	}
}
