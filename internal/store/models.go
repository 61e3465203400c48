package store

import "time"

// TimestampLayout is the wall clock format recorded with every capture.
// Timestamps sort lexicographically in this layout, which the range queries
// rely on.
const TimestampLayout = "2006-01-02 15:04:05"

// Content is one stored capture.
type Content struct {
	ID          int64
	Image       string
	Description string
	Timestamp   string
	DeviceID    string
}

// Entry is the projection used when answering questions: just the timestamp
// and description of a capture.
type Entry struct {
	Timestamp   string
	Description string
}

// FormatTimestamp renders a time in the stored layout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a stored timestamp back into a local time.
func ParseTimestamp(value string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, value, time.Local)
}
