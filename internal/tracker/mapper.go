package tracker

import (
	"slices"
	"strings"
	"time"
)

// NormalizeStatus lower-cases and trims a status label so lookups are vocabulary-insensitive.
func NormalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MapTask transforms a tracker DTO into a domain Task.
// A nil history leaves the task without intervals; callers mark fetch failures separately.
func MapTask(item TaskDTO, history *TimeInStatusDTO) Task {
	task := Task{
		ID:     item.ID,
		Name:   strings.TrimSpace(item.Name),
		Status: NormalizeStatus(item.Status.Status),
	}

	if t, err := ParseMillis(item.DateCreated); err == nil {
		task.CreatedAt = t
	}
	if item.DateClosed != "" {
		if t, err := ParseMillis(item.DateClosed); err == nil {
			task.ClosedAt = &t
		}
	}

	for _, tag := range item.Tags {
		if name := strings.TrimSpace(tag.Name); name != "" {
			task.Tags = append(task.Tags, name)
		}
	}

	if history != nil {
		task.History = MapHistory(history)
	}

	return task
}

// MapHistory converts a time-in-status response into chronologically ordered intervals.
// The current status is appended when the tracker reports it outside the history list.
func MapHistory(dto *TimeInStatusDTO) []StatusInterval {
	var intervals []StatusInterval
	seen := make(map[string]bool)

	add := func(st StatusTimeDTO) {
		iv := StatusInterval{
			Status:          NormalizeStatus(st.Status),
			DurationMinutes: max(st.TotalTime.ByMinute, 0),
		}
		if t, err := ParseMillis(st.TotalTime.Since); err == nil {
			iv.EnteredAt = t
		}
		key := iv.Status + "|" + st.TotalTime.Since
		if seen[key] {
			return
		}
		seen[key] = true
		intervals = append(intervals, iv)
	}

	for _, st := range dto.StatusHistory {
		add(st)
	}
	if dto.CurrentStatus != nil {
		add(*dto.CurrentStatus)
	}

	slices.SortStableFunc(intervals, func(a, b StatusInterval) int {
		return compareTime(a.EnteredAt, b.EnteredAt)
	})

	return intervals
}

func compareTime(a, b time.Time) int {
	// Unknown entry times keep their relative order at the front.
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return -1
	case b.IsZero():
		return 1
	}
	return a.Compare(b)
}
