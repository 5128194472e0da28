package offerletter

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Institution is the letterhead identity.
type Institution struct {
	Name       string
	Office     string
	Address    string
	Phone      string
	Email      string
	Campus     string
	Signatures [2]Signatory
}

// Signatory signs the letter.
type Signatory struct {
	Name  string
	Title string
}

// DefaultInstitution is used when no letterhead is configured.
var DefaultInstitution = Institution{
	Name:    "UniAdmit University",
	Office:  "Office of Admissions",
	Address: "123 Education Avenue, Academic City, State 12345",
	Phone:   "+1-555-0123",
	Email:   "admissions@uniadmit.edu",
	Campus:  "Main Campus, Academic City",
	Signatures: [2]Signatory{
		{Name: "Dr. Sarah Johnson", Title: "Director of Admissions"},
		{Name: "Prof. Michael Chen", Title: "Registrar"},
	},
}

// Applicant holds the approved application facts printed on the letter.
type Applicant struct {
	ApplicationID         int64
	Name                  string
	Email                 string
	Phone                 string
	Course                string
	GraduationYear        int
	TenthPercentage       float64
	TenthBoard            string
	TwelfthPercentage     float64
	TwelfthBoard          string
	PreviousQualification string
	PreviousInstitution   string
}

// Row is a label/value line in a section table.
type Row struct {
	Label string
	Value string
}

// Letter is the composed content, independent of rendering.
type Letter struct {
	Institution Institution
	Reference   string
	Date        string
	Addressee   []string
	Subject     string
	Salutation  string

	Student      []Row
	Decision     string
	Program      []Row
	Academics    []Row
	Conditions   []string
	Deadlines    []Row
	Contact      []string
	Closing      string
	GeneratedAt  string
	Filename     string
	AcademicYear string
}

const dateLayout = "January 02, 2006"

// Reference formats the admission reference number.
func Reference(applicationID int64, issued time.Time) string {
	return fmt.Sprintf("ADM/%04d/%d", applicationID, issued.Year())
}

// Filename returns the download name for a student's letter.
func Filename(studentName string, applicationID int64) string {
	return fmt.Sprintf("offer_letter_%s_%d.pdf", strings.ReplaceAll(strings.TrimSpace(studentName), " ", "_"), applicationID)
}

func surname(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "Applicant"
	}
	return parts[len(parts)-1]
}

func percent(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".") + "%"
}

// Compose builds the letter content for an approved applicant issued at issued.
func Compose(inst Institution, a Applicant, issued time.Time) Letter {
	ref := Reference(a.ApplicationID, issued)
	year := fmt.Sprintf("%d-%d", a.GraduationYear, a.GraduationYear+1)

	return Letter{
		Institution:  inst,
		Reference:    ref,
		Date:         issued.Format(dateLayout),
		Addressee:    []string{a.Name, a.Email, a.Phone},
		Subject:      "Admission Approval for " + a.Course,
		Salutation:   "Dear Mr./Ms. " + surname(a.Name) + ",",
		AcademicYear: year,
		Student: []Row{
			{"Full Name:", a.Name},
			{"Email Address:", a.Email},
			{"Contact Number:", a.Phone},
			{"Application Reference:", ref},
		},
		Decision: fmt.Sprintf("We are pleased to inform you that your application for admission to %s for the academic year %s "+
			"has been APPROVED by our Admissions Committee. Your academic credentials and qualifications have been "+
			"thoroughly reviewed and found to meet our university's admission standards.", a.Course, year),
		Program: []Row{
			{"Program of Study:", a.Course},
			{"Academic Year:", year},
			{"Duration:", "As per program curriculum"},
			{"Campus:", inst.Campus},
		},
		Academics: []Row{
			{"10th Grade Results:", percent(a.TenthPercentage) + " from " + a.TenthBoard},
			{"12th Grade Results:", percent(a.TwelfthPercentage) + " from " + a.TwelfthBoard},
			{"Previous Qualification:", a.PreviousQualification},
			{"Previous Institution:", a.PreviousInstitution},
		},
		Conditions: []string{
			"a) Accept this admission offer through the student portal within 15 calendar days from the date of this letter.",
			"b) Complete the fee payment process as outlined in the Fee Structure document (to be provided separately).",
			"c) Submit original academic documents for verification to the Registrar's Office.",
			"d) Complete medical examination and submit health clearance certificate.",
			"e) Attend the mandatory orientation program scheduled before commencement of classes.",
			"f) Comply with all university policies and regulations as outlined in the Student Handbook.",
		},
		Deadlines: []Row{
			{"Acceptance Deadline:", issued.AddDate(0, 0, 15).Format(dateLayout)},
			{"Document Submission:", issued.AddDate(0, 0, 30).Format(dateLayout)},
			{"Fee Payment Deadline:", issued.AddDate(0, 0, 45).Format(dateLayout)},
			{"Orientation Date:", "To be announced separately"},
		},
		Contact: []string{
			"For any queries or assistance regarding your admission, please contact:",
			"Admissions Office",
			fmt.Sprintf("Phone: %s | Email: %s", inst.Phone, inst.Email),
			"Office Hours: Monday to Friday, 9:00 AM to 5:00 PM",
		},
		Closing: fmt.Sprintf("We congratulate you on this achievement and look forward to welcoming you to the %s community. "+
			"We are confident that you will make significant contributions to our academic environment.", inst.Name),
		GeneratedAt: issued.Format("January 02, 2006 at 03:04 PM"),
		Filename:    Filename(a.Name, a.ApplicationID),
	}
}

// Render lays the letter out as a single A4 PDF.
func Render(l Letter) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 15, 18)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle("Official Letter of Admission", true)
	pdf.SetAuthor(l.Institution.Name, true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	width, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	content := width - left - right

	// letterhead
	pdf.SetTextColor(20, 40, 90)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(content, 9, tr(strings.ToUpper(l.Institution.Name)), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(content, 6, tr(strings.ToUpper(l.Institution.Office)), "", 1, "C", false, 0, "")
	pdf.SetTextColor(90, 90, 90)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(content, 5, tr(l.Institution.Address), "", 1, "C", false, 0, "")
	pdf.CellFormat(content, 5, tr(fmt.Sprintf("Phone: %s | Email: %s", l.Institution.Phone, l.Institution.Email)), "", 1, "C", false, 0, "")
	pdf.SetDrawColor(20, 40, 90)
	pdf.SetLineWidth(0.8)
	y := pdf.GetY() + 2
	pdf.Line(left, y, width-right, y)
	pdf.SetY(y + 5)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(content, 8, "OFFICIAL LETTER OF ADMISSION", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(content/2, 6, tr("Reference No: "+l.Reference), "", 0, "L", false, 0, "")
	pdf.CellFormat(content/2, 6, tr("Date: "+l.Date), "", 1, "R", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(content, 5, "To:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range l.Addressee {
		pdf.CellFormat(content, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.MultiCell(content, 5, tr("Subject: "+l.Subject), "", "L", false)
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(content, 5, tr(l.Salutation), "", 1, "L", false, 0, "")

	section := func(title string) {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(20, 40, 90)
		pdf.CellFormat(content, 6, title, "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 10)
	}
	table := func(rows []Row, labelWidth float64) {
		pdf.SetDrawColor(210, 210, 210)
		pdf.SetLineWidth(0.2)
		for _, r := range rows {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(labelWidth, 6, tr(r.Label), "B", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.CellFormat(content-labelWidth, 6, tr(r.Value), "B", 1, "L", false, 0, "")
		}
	}

	section("1. STUDENT INFORMATION")
	table(l.Student, 45)

	section("2. ADMISSION DECISION")
	pdf.MultiCell(content, 5, tr(l.Decision), "", "J", false)

	section("3. PROGRAM DETAILS")
	table(l.Program, 45)

	section("4. ACADEMIC QUALIFICATIONS REVIEWED")
	table(l.Academics, 50)

	section("5. CONDITIONS AND NEXT STEPS")
	for _, c := range l.Conditions {
		pdf.SetX(left + 4)
		pdf.MultiCell(content-4, 5, tr(c), "", "L", false)
	}

	section("6. IMPORTANT DEADLINES")
	table(l.Deadlines, 55)

	section("7. CONTACT INFORMATION")
	for i, line := range l.Contact {
		if i == 1 {
			pdf.SetFont("Helvetica", "B", 10)
		} else {
			pdf.SetFont("Helvetica", "", 10)
		}
		pdf.CellFormat(content, 5, tr(line), "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	pdf.MultiCell(content, 5, tr(l.Closing), "", "J", false)
	pdf.Ln(2)
	pdf.CellFormat(content, 5, "Sincerely,", "", 1, "L", false, 0, "")
	pdf.Ln(10)

	half := content / 2
	for _, line := range []func(Signatory) string{
		func(Signatory) string { return "_________________________" },
		func(s Signatory) string { return s.Name },
		func(s Signatory) string { return s.Title },
		func(Signatory) string { return l.Institution.Name },
	} {
		pdf.CellFormat(half, 5, tr(line(l.Institution.Signatures[0])), "", 0, "C", false, 0, "")
		pdf.CellFormat(half, 5, tr(line(l.Institution.Signatures[1])), "", 1, "C", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(content, 4, tr(fmt.Sprintf("This is an official document from %s %s", l.Institution.Name, l.Institution.Office)), "", 1, "C", false, 0, "")
	pdf.CellFormat(content, 4, "Please retain this letter for your records", "", 1, "C", false, 0, "")
	pdf.CellFormat(content, 4, tr("Document Generated: "+l.GeneratedAt), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render offer letter: %w", err)
	}
	return buf.Bytes(), nil
}

// Generate composes and renders a letter in one step.
func Generate(inst Institution, a Applicant, issued time.Time) (Letter, []byte, error) {
	l := Compose(inst, a, issued)
	data, err := Render(l)
	return l, data, err
}
