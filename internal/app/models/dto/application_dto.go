package dto

import (
	"bytes"
	"encoding/json"
	"time"
)

// ApplicationFields carries the academic and address fields of an
// application. Every field is optional at the transport level.
type ApplicationFields struct {
	CourseApplied         FlexString `json:"course_applied" example:"B.Sc Computer Science"`
	TenthPercentage       FlexString `json:"tenth_percentage" swaggertype:"string" example:"91.4"`
	TenthBoard            FlexString `json:"tenth_board" example:"CBSE"`
	TwelfthPercentage     FlexString `json:"twelfth_percentage" swaggertype:"string" example:"88"`
	TwelfthBoard          FlexString `json:"twelfth_board" example:"CBSE"`
	PreviousQualification FlexString `json:"previous_qualification" example:"Higher Secondary"`
	PreviousInstitution   FlexString `json:"previous_institution" example:"City Public School"`
	GraduationYear        FlexString `json:"graduation_year" swaggertype:"string" example:"2024"`
	Address               FlexString `json:"address" example:"12 Lake Road"`
	Country               FlexString `json:"country" example:"India"`
	State                 FlexString `json:"state" example:"Karnataka"`
	District              FlexString `json:"district" example:"Bengaluru"`
	Pincode               FlexString `json:"pincode" example:"560001"`
}

// Values returns the fields keyed by their wire names.
func (f ApplicationFields) Values() map[string]string {
	return map[string]string{
		"course_applied":         f.CourseApplied.String(),
		"tenth_percentage":       f.TenthPercentage.String(),
		"tenth_board":            f.TenthBoard.String(),
		"twelfth_percentage":     f.TwelfthPercentage.String(),
		"twelfth_board":          f.TwelfthBoard.String(),
		"previous_qualification": f.PreviousQualification.String(),
		"previous_institution":   f.PreviousInstitution.String(),
		"graduation_year":        f.GraduationYear.String(),
		"address":                f.Address.String(),
		"country":                f.Country.String(),
		"state":                  f.State.String(),
		"district":               f.District.String(),
		"pincode":                f.Pincode.String(),
	}
}

// ApplicationFieldsFromForm reads the fields from form values.
func ApplicationFieldsFromForm(get func(key string) string) ApplicationFields {
	return ApplicationFields{
		CourseApplied:         FlexString(get("course_applied")),
		TenthPercentage:       FlexString(get("tenth_percentage")),
		TenthBoard:            FlexString(get("tenth_board")),
		TwelfthPercentage:     FlexString(get("twelfth_percentage")),
		TwelfthBoard:          FlexString(get("twelfth_board")),
		PreviousQualification: FlexString(get("previous_qualification")),
		PreviousInstitution:   FlexString(get("previous_institution")),
		GraduationYear:        FlexString(get("graduation_year")),
		Address:               FlexString(get("address")),
		Country:               FlexString(get("country")),
		State:                 FlexString(get("state")),
		District:              FlexString(get("district")),
		Pincode:               FlexString(get("pincode")),
	}
}

// DocumentUpload is a base64 file payload. A bare JSON string is accepted
// as the data with no filename.
type DocumentUpload struct {
	Data     string `json:"data" example:"data:application/pdf;base64,JVBERi0xLjQK..."`
	Filename string `json:"filename" example:"degree.pdf"`
}

func (d *DocumentUpload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &d.Data)
	}
	type plain DocumentUpload
	return json.Unmarshal(data, (*plain)(d))
}

// SubmitApplicationRequest is the JSON form of a submission.
type SubmitApplicationRequest struct {
	ApplicationFields
	DegreeCertificate *DocumentUpload `json:"degree_certificate"`
	IDProof           *DocumentUpload `json:"id_proof"`
}

// ApplicationSavedResponse is returned by draft save and submit.
type ApplicationSavedResponse struct {
	Message       string `json:"message" example:"Draft saved successfully"`
	ApplicationID int64  `json:"application_id" example:"17"`
	Status        string `json:"status" example:"draft"`
}

// DraftData is a draft read back with placeholders shown as blanks.
type DraftData struct {
	ID                    int64     `json:"id"`
	CourseApplied         string    `json:"course_applied"`
	TenthPercentage       string    `json:"tenth_percentage"`
	TenthBoard            string    `json:"tenth_board"`
	TwelfthPercentage     string    `json:"twelfth_percentage"`
	TwelfthBoard          string    `json:"twelfth_board"`
	PreviousQualification string    `json:"previous_qualification"`
	PreviousInstitution   string    `json:"previous_institution"`
	GraduationYear        string    `json:"graduation_year"`
	Address               string    `json:"address"`
	Country               string    `json:"country"`
	State                 string    `json:"state"`
	District              string    `json:"district"`
	Pincode               string    `json:"pincode"`
	Status                string    `json:"status"`
	DateCreated           time.Time `json:"date_created"`
}

// DraftResponse wraps a draft.
type DraftResponse struct {
	Draft DraftData `json:"draft"`
}

// ApplicationResponse is the student-facing projection of an application.
type ApplicationResponse struct {
	ID                        int64      `json:"id"`
	CourseApplied             string     `json:"course_applied"`
	TenthPercentage           float64    `json:"tenth_percentage"`
	TenthBoard                string     `json:"tenth_board"`
	TwelfthPercentage         float64    `json:"twelfth_percentage"`
	TwelfthBoard              string     `json:"twelfth_board"`
	PreviousQualification     string     `json:"previous_qualification"`
	PreviousInstitution       string     `json:"previous_institution"`
	GraduationYear            int        `json:"graduation_year"`
	Address                   string     `json:"address"`
	Country                   string     `json:"country"`
	State                     string     `json:"state"`
	District                  string     `json:"district"`
	Pincode                   string     `json:"pincode"`
	Status                    string     `json:"status"`
	ReviewComments            *string    `json:"review_comments"`
	ReviewedAt                *time.Time `json:"reviewed_at"`
	ReviewedBy                *string    `json:"reviewed_by"`
	DateCreated               time.Time  `json:"date_created"`
	HasDegreeCertificate      bool       `json:"has_degree_certificate"`
	HasIDProof                bool       `json:"has_id_proof"`
	DegreeCertificateFilename string     `json:"degree_certificate_filename,omitempty"`
	IDProofFilename           string     `json:"id_proof_filename,omitempty"`
	OfferLetterAvailable      bool       `json:"offer_letter_available"`
}

// ApplicationStatusResponse wraps the student's current application.
type ApplicationStatusResponse struct {
	Application ApplicationResponse `json:"application"`
}

// ApplicationListResponse lists the student's own applications.
type ApplicationListResponse struct {
	Applications []ApplicationResponse `json:"applications"`
}

// StudentSummary identifies the applicant in admin views.
type StudentSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ReviewerSummary identifies the reviewing admin.
type ReviewerSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AdminApplicationResponse is the admin projection of an application.
type AdminApplicationResponse struct {
	ApplicationResponse
	Student  StudentSummary   `json:"student"`
	Reviewer *ReviewerSummary `json:"reviewer"`
}

// AdminApplicationListResponse is a page of admin projections.
type AdminApplicationListResponse struct {
	Applications []AdminApplicationResponse `json:"applications"`
	Pagination   PaginationInfo             `json:"pagination"`
}

// AdminApplicationDetailResponse wraps one admin projection.
type AdminApplicationDetailResponse struct {
	Application AdminApplicationResponse `json:"application"`
}

// ReviewRequest records an admin decision.
type ReviewRequest struct {
	Action   string `json:"action" example:"approve" enums:"approve,reject"`
	Comments string `json:"comments" example:"Meets all criteria"`
}

// ReviewedApplication is the state after a review.
type ReviewedApplication struct {
	ID             int64      `json:"id"`
	Status         string     `json:"status"`
	ReviewComments *string    `json:"review_comments"`
	ReviewedAt     *time.Time `json:"reviewed_at"`
}

// ReviewResponse is returned by single review.
type ReviewResponse struct {
	Message     string              `json:"message" example:"Application approved successfully"`
	Application ReviewedApplication `json:"application"`
}

// BulkActionRequest applies one action to many applications.
type BulkActionRequest struct {
	ApplicationIDs []int64 `json:"application_ids"`
	Action         string  `json:"action" enums:"approve,reject,delete"`
	Comments       string  `json:"comments"`
}

// BulkFailure explains why one item was skipped.
type BulkFailure struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// BulkUpdated reports one processed item.
type BulkUpdated struct {
	ID          int64  `json:"id"`
	StudentName string `json:"student_name,omitempty"`
	OldStatus   string `json:"old_status"`
	NewStatus   string `json:"new_status"`
}

// BulkActionResponse summarises a bulk action.
type BulkActionResponse struct {
	Message             string        `json:"message"`
	TotalProcessed      int           `json:"total_processed"`
	SuccessfulUpdates   int           `json:"successful_updates"`
	FailedCount         int           `json:"failed_count"`
	UpdatedApplications []BulkUpdated `json:"updated_applications"`
	FailedUpdates       []BulkFailure `json:"failed_updates"`
	ActionPerformed     string        `json:"action_performed"`
	CommentsAdded       string        `json:"comments_added"`
}

// DocumentBase64Response carries a document inline.
type DocumentBase64Response struct {
	Filename    string `json:"filename"`
	Data        string `json:"data"`
	ContentType string `json:"content_type"`
}

// AdminFileResponse is the admin download-file payload.
type AdminFileResponse struct {
	Filename string          `json:"filename"`
	FileData string          `json:"file_data"`
	FileType string          `json:"file_type"`
	Student  ReviewerSummary `json:"student"`
}

// ApplicantProfileUpdateRequest is a partial map of profile fields.
type ApplicantProfileUpdateRequest map[string]interface{}

// ApplicationSearchQuery holds the admin listing and search filters.
type ApplicationSearchQuery struct {
	Status        string   `form:"status" example:"pending"`
	Course        string   `form:"course" example:"Computer"`
	StudentName   string   `form:"student_name" example:"asha"`
	StartDate     string   `form:"start_date" example:"2025-01-01"`
	EndDate       string   `form:"end_date" example:"2025-12-31"`
	MinPercentage *float64 `form:"min_percentage" example:"60"`
	MaxPercentage *float64 `form:"max_percentage" example:"100"`
	// Page and PerPage are read leniently by the controller.
	Page          int      `form:"-"`
	PerPage       int      `form:"-"`
}
