package validation

import (
	"regexp"
	"strings"
)

// Validation rule patterns
var (
	EmailPattern   = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	PhonePattern   = `^[0-9]{10}$`
	PincodePattern = `^[0-9]+$`

	PasswordMinLength = 6
	NameMaxLength     = 100
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Email   *regexp.Regexp
	Phone   *regexp.Regexp
	Pincode *regexp.Regexp
}{
	Email:   regexp.MustCompile(EmailPattern),
	Phone:   regexp.MustCompile(PhonePattern),
	Pincode: regexp.MustCompile(PincodePattern),
}

// IsBlank reports a value that is absent for validation purposes.
func IsBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}

// ValidateEmail checks the local@domain.tld shape.
func ValidateEmail(email string) bool {
	return CompiledPatterns.Email.MatchString(email)
}

// ValidatePhone accepts exactly ten digits.
func ValidatePhone(phone string) bool {
	return CompiledPatterns.Phone.MatchString(phone)
}

// ValidatePincode accepts a non-empty run of digits.
func ValidatePincode(pincode string) bool {
	return CompiledPatterns.Pincode.MatchString(pincode)
}

// StringValidation is a small builder for length and pattern checks.
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

func NewStringValidation(value string) *StringValidation {
	return &StringValidation{Value: value, Required: true}
}

func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate performs validation. Length is measured in runes.
func (v *StringValidation) Validate() bool {
	if IsBlank(v.Value) {
		return !v.Required
	}

	n := len([]rune(v.Value))
	if v.MinLen > 0 && n < v.MinLen {
		return false
	}
	if v.MaxLen > 0 && n > v.MaxLen {
		return false
	}
	if v.Pattern != nil && !v.Pattern.MatchString(v.Value) {
		return false
	}
	return true
}
