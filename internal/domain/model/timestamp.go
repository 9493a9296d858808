package model

import (
	"strconv"
	"time"
)

// Timestamp accepts both RFC 3339 and the naive "2006-01-02T15:04:05"
// datetimes the judge backend emits. Naive values are taken as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	raw := string(b)
	if raw == "null" || raw == `""` {
		t.Time = time.Time{}
		return nil
	}
	s, err := strconv.Unquote(raw)
	if err != nil {
		return &time.ParseError{Layout: time.RFC3339, Value: raw, Message: ": not a JSON string"}
	}
	var parseErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		parseErr = err
	}
	return parseErr
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.UTC().Format(time.RFC3339Nano))), nil
}

func Now() Timestamp {
	return Timestamp{Time: time.Now().UTC()}
}
