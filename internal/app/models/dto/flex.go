package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexString accepts a JSON string, number, boolean or null and keeps its
// textual form. Clients send percentages and years either way.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case 't', 'f':
		b, err := strconv.ParseBool(string(data))
		if err != nil {
			return fmt.Errorf("invalid value %s", data)
		}
		*f = FlexString(strconv.FormatBool(b))
	case '{', '[':
		return fmt.Errorf("expected a scalar value, got %s", data[:1])
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = FlexString(n.String())
	}
	return nil
}

// String returns the raw text.
func (f FlexString) String() string {
	return string(f)
}
