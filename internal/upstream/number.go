package upstream

import (
	"encoding/json"
	"strings"
)

// Number is a numeric field as an upstream sent it. Upstreams mix JSON
// numbers, numeric strings and nulls for the same field, so decoding never
// fails: anything that is not a number or a string decodes to "".
// Interpretation happens in normalization.
type Number string

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "" || s == "null":
		*n = ""
	case s[0] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			*n = ""
			return nil
		}
		*n = Number(strings.TrimSpace(str))
	case s[0] == '-' || (s[0] >= '0' && s[0] <= '9'):
		*n = Number(s)
	default:
		*n = ""
	}
	return nil
}

// String returns the raw textual value.
func (n Number) String() string {
	return string(n)
}
