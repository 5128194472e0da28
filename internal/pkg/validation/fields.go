package validation

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Failure reasons returned by the field parsers. Callers pick the user-facing
// message, which differs between draft and submit.
var (
	ErrBlank      = errors.New("value is blank")
	ErrNotANumber = errors.New("value is not a number")
	ErrOutOfRange = errors.New("value is out of range")
)

const (
	MinPercentage     = 0.0
	MaxPercentage     = 100.0
	MinGraduationYear = 1980
	MaxGraduationYear = 2030
)

// ParsePercentage parses a percentage in [0, 100]. A blank value is an error
// only when required; otherwise it yields 0.
func ParsePercentage(raw string, required bool) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return 0, ErrBlank
		}
		return 0, nil
	}

	if isHexLiteral(raw) {
		return 0, ErrNotANumber
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, ErrNotANumber
	}
	if math.IsNaN(v) || v < MinPercentage || v > MaxPercentage {
		return 0, ErrOutOfRange
	}
	return v, nil
}

// isHexLiteral reports a 0x prefix, which ParseFloat would otherwise accept.
func isHexLiteral(raw string) bool {
	raw = strings.TrimLeft(raw, "+-")
	return len(raw) > 1 && raw[0] == '0' && (raw[1] == 'x' || raw[1] == 'X')
}

// ParseGraduationYear parses an integer year in [1980, 2030] with the same
// blank rule as ParsePercentage.
func ParseGraduationYear(raw string, required bool) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return 0, ErrBlank
		}
		return 0, nil
	}

	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrNotANumber
	}
	if year < MinGraduationYear || year > MaxGraduationYear {
		return 0, ErrOutOfRange
	}
	return year, nil
}

// ApplicationRequiredFields lists, in reporting order, every field a
// submission must carry.
var ApplicationRequiredFields = []string{
	"course_applied",
	"tenth_percentage",
	"tenth_board",
	"twelfth_percentage",
	"twelfth_board",
	"previous_qualification",
	"previous_institution",
	"graduation_year",
	"address",
	"country",
	"state",
	"district",
	"pincode",
}

// MissingFields returns every name in required whose value is absent or
// blank, preserving the order of required.
func MissingFields(values map[string]string, required []string) []string {
	var missing []string
	for _, name := range required {
		if IsBlank(values[name]) {
			missing = append(missing, name)
		}
	}
	return missing
}
