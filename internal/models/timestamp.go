package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Timestamp is a capture time in epoch milliseconds. Rows store it either
// as a number of milliseconds or as an ISO-8601 string; both decode to the
// same value, and unparsable strings decode to 0.
type Timestamp int64

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// TimestampFromTime converts t to a Timestamp.
func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Millis returns the value in epoch milliseconds.
func (t Timestamp) Millis() int64 { return int64(t) }

// Time returns the value as a UTC time.Time.
func (t Timestamp) Time() time.Time { return time.UnixMilli(int64(t)).UTC() }

// Scan implements sql.Scanner.
func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = 0
	case int64:
		*t = Timestamp(v)
	case float64:
		*t = Timestamp(int64(math.Round(v)))
	case time.Time:
		*t = TimestampFromTime(v)
	case []byte:
		*t = ParseTimestamp(string(v))
	case string:
		*t = ParseTimestamp(v)
	default:
		return fmt.Errorf("timestamp: unsupported type %T", src)
	}
	return nil
}

// UnmarshalJSON accepts a JSON number (milliseconds) or string.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*t = Timestamp(int64(math.Round(value)))
	case string:
		*t = ParseTimestamp(value)
	case nil:
		*t = 0
	default:
		return fmt.Errorf("timestamp: unsupported json value %v", v)
	}
	return nil
}

// MarshalJSON encodes milliseconds as a number.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(t), 10)), nil
}

// ParseTimestamp parses a numeric millisecond string or an ISO-8601 date.
// It returns 0 when s matches neither.
func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Timestamp(ms)
	}
	for _, layout := range isoLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return TimestampFromTime(parsed)
		}
	}
	return 0
}
