package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"flowcap/internal/capacity"
	"flowcap/internal/stats"
	"flowcap/internal/tracker"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// SnapshotInput are the arguments of capacity_snapshot.
type SnapshotInput struct {
	AsOf         string `json:"as_of,omitempty" jsonschema:"optional reference date (YYYY-MM-DD); defaults to now"`
	Refresh      bool   `json:"refresh,omitempty" jsonschema:"fetch fresh data from the tracker before analysing"`
	IncludeTasks bool   `json:"include_tasks,omitempty" jsonschema:"include the per-task classification list"`
}

// ForecastInput are the arguments of task_forecast.
type ForecastInput struct {
	TaskID string `json:"task_id,omitempty" jsonschema:"optional task ID to return a single estimate"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of estimates (default 10)"`
	AsOf   string `json:"as_of,omitempty" jsonschema:"optional reference date (YYYY-MM-DD)"`
}

// HistoryEntry is one status interval of an ad-hoc history.
type HistoryEntry struct {
	Status string  `json:"status" jsonschema:"status name as used in the tracker"`
	Days   float64 `json:"days" jsonschema:"days spent in the status"`
}

// ClassifyInput are the arguments of classify_history.
type ClassifyInput struct {
	TaskID  string         `json:"task_id,omitempty" jsonschema:"cached task to classify"`
	Status  string         `json:"status,omitempty" jsonschema:"current status of an ad-hoc task"`
	AgeDays int            `json:"age_days,omitempty" jsonschema:"age of an ad-hoc task in days; defaults to the history length"`
	History []HistoryEntry `json:"history,omitempty" jsonschema:"chronological status history of an ad-hoc task"`
}

// Response is the envelope every tool returns.
type Response struct {
	Data     any      `json:"data"`
	Warnings []string `json:"warnings,omitempty"`
	Guidance []string `json:"_guidance,omitempty"`
}

func (s *Server) handleCapacitySnapshot(ctx context.Context, _ *sdk.CallToolRequest, in SnapshotInput) (*sdk.CallToolResult, any, error) {
	ref, err := s.reference(in.AsOf)
	if err != nil {
		return nil, nil, err
	}

	if in.Refresh {
		if _, err := s.session.Refresh(ctx); err != nil {
			return nil, nil, fmt.Errorf("refresh failed: %w", err)
		}
	} else if err := s.session.Ensure(ctx); err != nil {
		return nil, nil, err
	}

	snap := s.session.Snapshot(ref)
	warnings := snapshotWarnings(snap)
	if !in.IncludeTasks {
		snap.Tasks = nil
	}

	resp := Response{Data: snap, Warnings: warnings}
	if snap.Indicators.Flow.Ratio == stats.FlowRatioSaturated {
		resp.Guidance = append(resp.Guidance, "Flow ratio 999 means nothing left the pipeline in the averaging window; do not read it as a percentage.")
	}
	for _, b := range snap.PhaseBenchmarks {
		if b.Fallback {
			resp.Guidance = append(resp.Guidance, "Some phase benchmarks use configured defaults because too few tasks have passed them.")
			break
		}
	}
	return wrap(resp)
}

func (s *Server) handleTaskForecast(ctx context.Context, _ *sdk.CallToolRequest, in ForecastInput) (*sdk.CallToolResult, any, error) {
	ref, err := s.reference(in.AsOf)
	if err != nil {
		return nil, nil, err
	}
	if err := s.session.Ensure(ctx); err != nil {
		return nil, nil, err
	}

	snap := s.session.Snapshot(ref)
	forecasts := snap.Forecasts

	if in.TaskID != "" {
		for _, f := range forecasts {
			if f.TaskID == in.TaskID {
				return wrap(Response{Data: f})
			}
		}
		return nil, nil, fmt.Errorf("task %s has no forecast: it is closed, excluded or outside the phase map", in.TaskID)
	}

	limit := in.Limit
	if limit <= 0 {
		limit = 10
	}
	if len(forecasts) > limit {
		forecasts = forecasts[:limit]
	}

	return wrap(Response{
		Data: map[string]any{
			"forecasts":        forecasts,
			"phase_benchmarks": snap.PhaseBenchmarks,
			"reference_date":   snap.ReferenceDate,
		},
		Warnings: snapshotWarnings(snap),
	})
}

func (s *Server) handleClassifyHistory(ctx context.Context, _ *sdk.CallToolRequest, in ClassifyInput) (*sdk.CallToolResult, any, error) {
	now := s.session.Now()
	wf := s.session.Workflow()

	var task tracker.Task
	switch {
	case in.TaskID != "":
		if err := s.session.Ensure(ctx); err != nil {
			return nil, nil, err
		}
		cached, ok := s.session.Task(in.TaskID)
		if !ok {
			return nil, nil, fmt.Errorf("task %s is not in the cache", in.TaskID)
		}
		task = cached
	case in.Status != "" || len(in.History) > 0:
		task = adHocTask(in, now)
	default:
		return nil, nil, fmt.Errorf("either task_id or status/history is required")
	}

	ct := stats.Classify(task, wf, now)

	var warnings []string
	if len(ct.UnmappedStatuses) > 0 {
		warnings = append(warnings, fmt.Sprintf("statuses outside the workflow map: %v", ct.UnmappedStatuses))
	}
	if ct.Task.HistoryUnavailable {
		warnings = append(warnings, "status history unavailable; the task is treated as not started")
	}
	if ct.HistoryExcessDays > 0 {
		warnings = append(warnings, fmt.Sprintf("status history runs %d day(s) past the task age", ct.HistoryExcessDays))
	}
	return wrap(Response{Data: ct, Warnings: warnings})
}

func adHocTask(in ClassifyInput, now time.Time) tracker.Task {
	var total time.Duration
	for _, h := range in.History {
		total += time.Duration(h.Days * 24 * float64(time.Hour))
	}
	age := time.Duration(in.AgeDays) * 24 * time.Hour
	start := now.Add(-max(total, age))

	task := tracker.Task{
		ID:        "ad-hoc",
		Name:      "ad-hoc",
		Status:    tracker.NormalizeStatus(in.Status),
		CreatedAt: start,
	}
	at := start
	for _, h := range in.History {
		d := time.Duration(h.Days * 24 * float64(time.Hour))
		task.History = append(task.History, tracker.StatusInterval{
			Status:          tracker.NormalizeStatus(h.Status),
			DurationMinutes: int64(d / time.Minute),
			EnteredAt:       at,
		})
		at = at.Add(d)
	}
	if task.Status == "" && len(task.History) > 0 {
		task.Status = task.History[len(task.History)-1].Status
	}
	return task
}

func (s *Server) reference(asOf string) (time.Time, error) {
	if asOf == "" {
		return time.Time{}, nil
	}
	return capacity.ParseReferenceDate(asOf)
}

func snapshotWarnings(snap stats.CapacitySnapshot) []string {
	var warnings []string
	if n := len(snap.UnavailableTasks); n > 0 {
		warnings = append(warnings, fmt.Sprintf("%d task(s) have no status history and count as not started", n))
	}
	if len(snap.UnmappedStatuses) > 0 {
		warnings = append(warnings, fmt.Sprintf("statuses outside the workflow map: %v", snap.UnmappedStatuses))
	}
	excess := 0
	for _, ct := range snap.Tasks {
		if ct.HistoryExcessDays > 0 {
			excess++
		}
	}
	if excess > 0 {
		warnings = append(warnings, fmt.Sprintf("%d task(s) have a status history longer than their age; age buckets use the creation date", excess))
	}
	for _, p := range snap.Monthly {
		if p.Outlier {
			warnings = append(warnings, fmt.Sprintf("%s flagged as outlier month (%d exits), excluded from averages", p.Label, p.Exited))
		}
	}
	return warnings
}

func wrap(resp Response) (*sdk.CallToolResult, any, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode tool response")
		return nil, nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: string(data)}},
	}, nil, nil
}
