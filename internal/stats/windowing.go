package stats

import (
	"fmt"
	"math"
	"time"
)

const (
	BucketDay   = "day"
	BucketWeek  = "week"
	BucketMonth = "month"
)

// AnalysisWindow is a calendar range split into equal buckets.
type AnalysisWindow struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Bucket string    `json:"bucket"` // "day", "week", "month"
}

// NewAnalysisWindow snaps both ends to bucket boundaries.
func NewAnalysisWindow(start, end time.Time, bucket string) AnalysisWindow {
	if bucket == "" {
		bucket = BucketDay
	}
	return AnalysisWindow{
		Start:  SnapToStart(start, bucket),
		End:    SnapToEnd(end, bucket),
		Bucket: bucket,
	}
}

// TrailingMonths returns the window of the last n calendar months ending with the month of ref.
func TrailingMonths(ref time.Time, n int) AnalysisWindow {
	if n < 1 {
		n = 1
	}
	start := time.Date(ref.Year(), ref.Month()-time.Month(n-1), 1, 0, 0, 0, 0, ref.Location())
	return NewAnalysisWindow(start, ref, BucketMonth)
}

// TrailingWeeks returns the window of the last n ISO weeks ending with the week of ref.
func TrailingWeeks(ref time.Time, n int) AnalysisWindow {
	if n < 1 {
		n = 1
	}
	start := SnapToStart(ref, BucketWeek).AddDate(0, 0, -7*(n-1))
	return NewAnalysisWindow(start, ref, BucketWeek)
}

// SnapToStart normalizes a timestamp to the beginning of its bucket (0:00:00).
func SnapToStart(t time.Time, bucket string) time.Time {
	if t.IsZero() {
		return t
	}
	switch bucket {
	case BucketMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case BucketWeek:
		// Monday
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return time.Date(t.Year(), t.Month(), t.Day()-(weekday-1), 0, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}

// SnapToEnd normalizes a timestamp to the last nanosecond of its bucket.
func SnapToEnd(t time.Time, bucket string) time.Time {
	if t.IsZero() {
		return t
	}
	switch bucket {
	case BucketMonth:
		nextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
		return nextMonth.Add(-time.Nanosecond)
	case BucketWeek:
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return time.Date(t.Year(), t.Month(), t.Day()+(7-weekday), 23, 59, 59, 999999999, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
	}
}

// Subdivide returns the bucket start times within the window.
func (w AnalysisWindow) Subdivide() []time.Time {
	var buckets []time.Time
	current := w.Start

	for current.Before(w.End) {
		buckets = append(buckets, current)
		switch w.Bucket {
		case BucketMonth:
			current = current.AddDate(0, 1, 0)
		case BucketWeek:
			current = current.AddDate(0, 0, 7)
		default:
			current = current.AddDate(0, 0, 1)
		}
	}
	return buckets
}

// FindBucketIndex returns the index of the bucket containing t, or -1 when outside the window.
func (w AnalysisWindow) FindBucketIndex(t time.Time) int {
	t = t.In(w.Start.Location())
	tNorm := SnapToStart(t, w.Bucket)
	if tNorm.Before(w.Start) || tNorm.After(w.End) {
		return -1
	}

	switch w.Bucket {
	case BucketMonth:
		return (tNorm.Year()-w.Start.Year())*12 + int(tNorm.Month()-w.Start.Month())
	case BucketWeek:
		return int(math.Round(tNorm.Sub(w.Start).Hours() / (24 * 7)))
	default:
		return int(math.Round(tNorm.Sub(w.Start).Hours() / 24))
	}
}

// GenerateLabel returns a human-readable label for a bucket (e.g. "Jan 2024" or "2024-W01").
func (w AnalysisWindow) GenerateLabel(t time.Time) string {
	switch w.Bucket {
	case BucketMonth:
		return t.Format("Jan 2006")
	case BucketWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	default:
		return t.Format("2006-01-02")
	}
}

// MonthKey formats the calendar month of t as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
