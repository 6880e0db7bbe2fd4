package tracker

import (
	"fmt"
	"strconv"
	"time"
)

// TaskPage is one page of the list-tasks endpoint.
type TaskPage struct {
	Tasks    []TaskDTO `json:"tasks"`
	LastPage *bool     `json:"last_page,omitempty"`
}

// TaskDTO represents a single task in the list response.
type TaskDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status struct {
		Status string `json:"status"`
		Type   string `json:"type"`
	} `json:"status"`
	DateCreated string   `json:"date_created"`
	DateClosed  string   `json:"date_closed"`
	DateUpdated string   `json:"date_updated"`
	Tags        []TagDTO `json:"tags"`
}

// TagDTO is a task tag.
type TagDTO struct {
	Name string `json:"name"`
}

// TimeInStatusDTO is the response of the time-in-status endpoint.
type TimeInStatusDTO struct {
	CurrentStatus *StatusTimeDTO  `json:"current_status,omitempty"`
	StatusHistory []StatusTimeDTO `json:"status_history"`
}

// StatusTimeDTO is the time a task spent in one status.
type StatusTimeDTO struct {
	Status     string       `json:"status"`
	OrderIndex int          `json:"orderindex"`
	TotalTime  TotalTimeDTO `json:"total_time"`
}

// TotalTimeDTO carries the minutes spent and the millisecond timestamp the status was entered.
type TotalTimeDTO struct {
	ByMinute int64  `json:"by_minute"`
	Since    string `json:"since"`
}

// ParseMillis parses the tracker's millisecond epoch strings.
func ParseMillis(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid millisecond timestamp %q: %w", s, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}
