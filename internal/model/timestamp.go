package model

import (
	"encoding/json"
	"time"
)

// Timestamp is an instant that tolerates every representation the stored
// documents have accumulated over time: RFC3339 strings, plain date strings,
// Firestore-era {seconds, nanoseconds} records, unix numbers, or nothing at
// all. Missing or unparsable values normalize to "now" so a document always
// has a displayable timestamp; callers must not treat that as an error.
type Timestamp struct {
	time.Time
}

// nowFn is swapped out in tests.
var nowFn = time.Now

// NewTimestamp wraps a time value, normalized to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC()}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// secondsRecord matches the exported form of a native store timestamp.
type secondsRecord struct {
	Seconds     *int64 `json:"seconds"`
	Nanoseconds int64  `json:"nanoseconds"`
	Nanos       int64  `json:"nanos"`
}

// Normalize converts a raw JSON value into a Timestamp. It is total: any
// value it cannot make sense of becomes the current time.
func Normalize(raw json.RawMessage) Timestamp {
	if len(raw) == 0 || string(raw) == "null" {
		return NewTimestamp(nowFn())
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return NewTimestamp(t)
			}
		}
		return NewTimestamp(nowFn())
	}

	var rec secondsRecord
	if err := json.Unmarshal(raw, &rec); err == nil && rec.Seconds != nil {
		ns := rec.Nanoseconds
		if ns == 0 {
			ns = rec.Nanos
		}
		return NewTimestamp(time.Unix(*rec.Seconds, ns))
	}

	var unix int64
	if err := json.Unmarshal(raw, &unix); err == nil {
		// Values beyond year ~5000 in seconds are taken as milliseconds.
		if unix > 1e11 {
			return NewTimestamp(time.UnixMilli(unix))
		}
		return NewTimestamp(time.Unix(unix, 0))
	}

	return NewTimestamp(nowFn())
}

// MarshalJSON renders the canonical RFC3339 UTC form.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON never fails; see Normalize.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Normalize(data)
	return nil
}
