package timex

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the wall-clock layout used for ledger timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp is a local wall-clock time stored as "2006-01-02 15:04:05".
// Sub-second precision is dropped on encoding.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to whole seconds in the local zone.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Local().Truncate(time.Second)}
}

// String formats the timestamp with TimestampLayout.
func (t Timestamp) String() string {
	return t.Local().Format(TimestampLayout)
}

// ParseTimestamp parses s in TimestampLayout as local time.
func ParseTimestamp(s string) (Timestamp, error) {
	parsed, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return Timestamp{Time: parsed}, nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
