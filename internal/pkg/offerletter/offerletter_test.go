package offerletter

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applicant() Applicant {
	return Applicant{
		ApplicationID:         7,
		Name:                  "Asha Devi Rao",
		Email:                 "asha@example.com",
		Phone:                 "9876543210",
		Course:                "B.Sc Physics",
		GraduationYear:        2024,
		TenthPercentage:       91.5,
		TenthBoard:            "CBSE",
		TwelfthPercentage:     88,
		TwelfthBoard:          "State Board",
		PreviousQualification: "Higher Secondary",
		PreviousInstitution:   "City College",
	}
}

func TestCompose(t *testing.T) {
	issued := time.Date(2025, 3, 1, 14, 5, 0, 0, time.UTC)
	l := Compose(DefaultInstitution, applicant(), issued)

	assert.Equal(t, "ADM/0007/2025", l.Reference)
	assert.Equal(t, "March 01, 2025", l.Date)
	assert.Equal(t, "Dear Mr./Ms. Rao,", l.Salutation)
	assert.Equal(t, "2024-2025", l.AcademicYear)
	assert.Equal(t, "offer_letter_Asha_Devi_Rao_7.pdf", l.Filename)
	assert.Equal(t, "91.5% from CBSE", l.Academics[0].Value)
	assert.Equal(t, "88% from State Board", l.Academics[1].Value)
	assert.Len(t, l.Conditions, 6)

	require.Len(t, l.Deadlines, 4)
	assert.Equal(t, "March 16, 2025", l.Deadlines[0].Value)
	assert.Equal(t, "March 31, 2025", l.Deadlines[1].Value)
	assert.Equal(t, "April 15, 2025", l.Deadlines[2].Value)
	assert.Equal(t, "March 01, 2025 at 02:05 PM", l.GeneratedAt)
}

func TestReferencePadding(t *testing.T) {
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "ADM/0042/2026", Reference(42, issued))
	assert.Equal(t, "ADM/12345/2026", Reference(12345, issued))
}

func TestSalutationWithoutName(t *testing.T) {
	a := applicant()
	a.Name = "  "
	assert.Equal(t, "Dear Mr./Ms. Applicant,", Compose(DefaultInstitution, a, time.Now()).Salutation)
}

func TestGenerate_ProducesPDF(t *testing.T) {
	l, data, err := Generate(DefaultInstitution, applicant(), time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "offer_letter_Asha_Devi_Rao_7.pdf", l.Filename)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Greater(t, len(data), 1000)
}
