package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/uniadmit/admission/internal/app/models"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
	"github.com/uniadmit/admission/internal/pkg/validation"
)

// fieldSetter validates one incoming value and writes it to the user.
type fieldSetter func(u *models.User, value string) error

func requiredText(label string, maxLen int, assign func(u *models.User, v string)) fieldSetter {
	return func(u *models.User, value string) error {
		v := strings.TrimSpace(value)
		if !validation.NewStringValidation(v).WithMinLength(1).Validate() {
			return apperrors.NewValidationError(label + " cannot be empty")
		}
		if maxLen > 0 && !validation.NewStringValidation(v).WithMaxLength(maxLen).Validate() {
			return apperrors.NewValidationError(fmt.Sprintf("%s must be at most %d characters", label, maxLen))
		}
		assign(u, v)
		return nil
	}
}

var (
	setName = requiredText("Name", validation.NameMaxLength, func(u *models.User, v string) { u.Name = v })

	setAddress  = requiredText("Address", 0, func(u *models.User, v string) { u.Address = v })
	setCountry  = requiredText("Country", 100, func(u *models.User, v string) { u.Country = v })
	setState    = requiredText("State", 100, func(u *models.User, v string) { u.State = v })
	setDistrict = requiredText("District", 100, func(u *models.User, v string) { u.District = v })

	setPincode fieldSetter = func(u *models.User, value string) error {
		v := strings.TrimSpace(value)
		if !validation.ValidatePincode(v) {
			return apperrors.NewValidationError("Pincode must contain only digits")
		}
		u.Pincode = v
		return nil
	}

	setPhone fieldSetter = func(u *models.User, value string) error {
		v := strings.TrimSpace(value)
		if !validation.ValidatePhone(v) {
			return apperrors.NewValidationError("Phone number must be exactly 10 digits")
		}
		u.Phone = v
		return nil
	}

	setEmail fieldSetter = func(u *models.User, value string) error {
		v := strings.ToLower(strings.TrimSpace(value))
		if !validation.ValidateEmail(v) {
			return apperrors.NewValidationError("Invalid email format")
		}
		u.Email = v
		return nil
	}
)

// Allow-lists per editing context.
var (
	selfProfileFields = map[string]fieldSetter{
		"name":     setName,
		"address":  setAddress,
		"country":  setCountry,
		"state":    setState,
		"district": setDistrict,
		"pincode":  setPincode,
	}
	selfProtectedFields = []string{"email", "phone"}

	applicantProfileFields = map[string]fieldSetter{
		"name":     setName,
		"phone":    setPhone,
		"address":  setAddress,
		"country":  setCountry,
		"state":    setState,
		"district": setDistrict,
		"pincode":  setPincode,
	}
	applicantPendingFields = map[string]fieldSetter{
		"phone":   setPhone,
		"address": setAddress,
	}

	adminUserFields = map[string]fieldSetter{
		"name":     setName,
		"email":    setEmail,
		"phone":    setPhone,
		"address":  setAddress,
		"country":  setCountry,
		"state":    setState,
		"district": setDistrict,
		"pincode":  setPincode,
	}
)

// fieldNames returns the keys of an allow-list in sorted order.
func fieldNames(fields map[string]fieldSetter) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func textValue(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	}
	return "", false
}

// applyFields writes every allowed key of req through its setter and returns
// the names applied. Keys are visited in sorted order so the first reported
// problem is stable. onDisallowed decides what an unknown key means; a nil
// result skips the key.
func applyFields(u *models.User, req map[string]interface{}, allowed map[string]fieldSetter, onDisallowed func(field string) error) ([]string, error) {
	keys := make([]string, 0, len(req))
	for k := range req {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var applied []string
	for _, key := range keys {
		set, ok := allowed[key]
		if !ok {
			if onDisallowed != nil {
				if err := onDisallowed(key); err != nil {
					return nil, err
				}
			}
			continue
		}
		value, ok := textValue(req[key])
		if !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("Invalid value for %s", key))
		}
		if err := set(u, value); err != nil {
			return nil, err
		}
		applied = append(applied, key)
	}

	if len(applied) == 0 {
		return nil, apperrors.NewValidationError("No valid fields provided for update")
	}
	return applied, nil
}

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}
