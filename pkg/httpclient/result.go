package httpclient

import (
	"bytes"
	"encoding/json"
)

// Result is the raw JSON body of a successful call. An empty body is "null".
type Result json.RawMessage

func (r Result) Decode(v any) error {
	return json.Unmarshal(r, v)
}

func (r Result) IsNull() bool {
	trimmed := bytes.TrimSpace(r)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func (r Result) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r Result) String() string {
	return string(r)
}
