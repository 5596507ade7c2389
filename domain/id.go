package domain

import (
	"encoding/json"
	"strconv"
)

type UIDGenerator interface {
	NewUID() (string, error)
}

// FormatID renders a scalar identifier decoded from JSON. Numbers decoded as
// float64 are written without an exponent, so 1234567 stays "1234567".
// Anything that is not a string or a number is empty.
func FormatID(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	default:
		return ""
	}
}
