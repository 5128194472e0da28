package models

import (
	"time"
)

// ApplicationStatus is the lifecycle state of an application.
type ApplicationStatus string

const (
	StatusDraft    ApplicationStatus = "draft"
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

// AllStatuses lists the statuses in lifecycle order.
var AllStatuses = []ApplicationStatus{StatusDraft, StatusPending, StatusApproved, StatusRejected}

// ParseStatus validates a status string.
func ParseStatus(s string) (ApplicationStatus, bool) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transition is expected.
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Placeholders stored for fields a draft has not filled in yet.
const (
	DraftCoursePlaceholder         = "Not Selected"
	DraftTextPlaceholder           = "Not Specified"
	DraftPincodePlaceholder        = "000000"
	DraftGraduationYearPlaceholder = 2024
	DraftPercentagePlaceholder     = 0.0
)

// DocumentSlot names one of the two uploaded documents.
type DocumentSlot string

const (
	SlotDegreeCertificate DocumentSlot = "degree_certificate"
	SlotIDProof           DocumentSlot = "id_proof"
)

// ParseDocumentSlot validates a document type path parameter.
func ParseDocumentSlot(s string) (DocumentSlot, bool) {
	switch DocumentSlot(s) {
	case SlotDegreeCertificate, SlotIDProof:
		return DocumentSlot(s), true
	}
	return "", false
}

// Document is a stored file blob.
type Document struct {
	Data     []byte
	Filename string
}

// Present reports whether the slot holds an actual upload.
func (d Document) Present() bool {
	return len(d.Data) > 0
}

// Application defines the application model based on the 'applications' table
type Application struct {
	ID                    int64             `db:"id"`
	StudentID             int64             `db:"student_id"`
	CourseApplied         string            `db:"course_applied"`
	TenthPercentage       float64           `db:"tenth_percentage"`
	TenthBoard            string            `db:"tenth_board"`
	TwelfthPercentage     float64           `db:"twelfth_percentage"`
	TwelfthBoard          string            `db:"twelfth_board"`
	PreviousQualification string            `db:"previous_qualification"`
	PreviousInstitution   string            `db:"previous_institution"`
	GraduationYear        int               `db:"graduation_year"`
	Address               string            `db:"address"`
	Country               string            `db:"country"`
	State                 string            `db:"state"`
	District              string            `db:"district"`
	Pincode               string            `db:"pincode"`
	DegreeCertificate     Document          `db:"-"`
	IDProof               Document          `db:"-"`
	Status                ApplicationStatus `db:"status"`
	ReviewedBy            *int64            `db:"reviewed_by"`
	ReviewComments        *string           `db:"review_comments"`
	ReviewedAt            *time.Time        `db:"reviewed_at"`
	AdmissionLetterPath   *string           `db:"admission_letter_path"`
	DateCreated           time.Time         `db:"date_created"`
}

// NewDraft returns a draft for studentID with every field at its placeholder.
func NewDraft(studentID int64) *Application {
	return &Application{
		StudentID:             studentID,
		CourseApplied:         DraftCoursePlaceholder,
		TenthPercentage:       DraftPercentagePlaceholder,
		TenthBoard:            DraftTextPlaceholder,
		TwelfthPercentage:     DraftPercentagePlaceholder,
		TwelfthBoard:          DraftTextPlaceholder,
		PreviousQualification: DraftTextPlaceholder,
		PreviousInstitution:   DraftTextPlaceholder,
		GraduationYear:        DraftGraduationYearPlaceholder,
		Address:               DraftTextPlaceholder,
		Country:               DraftTextPlaceholder,
		State:                 DraftTextPlaceholder,
		District:              DraftTextPlaceholder,
		Pincode:               DraftPincodePlaceholder,
		Status:                StatusDraft,
	}
}

// Document returns the blob stored in slot.
func (a *Application) Document(slot DocumentSlot) Document {
	if slot == SlotIDProof {
		return a.IDProof
	}
	return a.DegreeCertificate
}

// ApplicationRecord is an application joined with its student and reviewer,
// without document bytes.
type ApplicationRecord struct {
	Application
	StudentName          string
	StudentEmail         string
	StudentPhone         string
	ReviewerName         *string
	ReviewerEmail        *string
	HasDegreeCertificate bool
	HasIDProof           bool
}

// ApplicationFilter narrows admin listings and searches.
type ApplicationFilter struct {
	Status               ApplicationStatus
	Course               string
	StudentName          string
	StartDate            *time.Time
	EndDate              *time.Time
	MinTwelfthPercentage *float64
	MaxTwelfthPercentage *float64
	Page                 int
	PerPage              int
}

// ReviewDecision is the outcome an admin records.
type ReviewDecision struct {
	ApplicationID int64
	Status        ApplicationStatus
	ReviewerID    int64
	Comments      *string
	ReviewedAt    time.Time
}
