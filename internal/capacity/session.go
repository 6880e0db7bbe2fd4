package capacity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flowcap/internal/ingest"
	"flowcap/internal/stats"
	"flowcap/internal/store"
	"flowcap/internal/tracker"
	"flowcap/internal/workflow"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrNoTracker is returned when a refresh is requested without a configured tracker list.
var ErrNoTracker = errors.New("no tracker list configured, set CLICKUP_TOKEN and CLICKUP_LIST_ID")

// Options wires a Session to its sources.
type Options struct {
	CacheDir     string
	PipelineList string
	TicketsList  string
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// Session ties the task cache, the optional tracker provider and the workflow into one analysis unit.
type Session struct {
	store    *store.TaskStore
	provider *ingest.Provider
	workflow *workflow.Workflow
	opts     Options
}

// NewSession creates a session. provider may be nil for offline analysis of the cache.
func NewSession(st *store.TaskStore, provider *ingest.Provider, wf *workflow.Workflow, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		store:    st,
		provider: provider,
		workflow: wf,
		opts:     opts,
	}
}

// Workflow returns the vocabulary the session classifies with.
func (s *Session) Workflow() *workflow.Workflow {
	return s.workflow
}

// Load reads the cached task sets.
func (s *Session) Load() error {
	if s.opts.CacheDir == "" {
		return nil
	}
	for _, set := range []string{store.TasksSet, store.TicketsSet} {
		if err := s.store.Load(s.opts.CacheDir, set); err != nil {
			return fmt.Errorf("failed to load %s cache: %w", set, err)
		}
	}
	return nil
}

// Refresh fetches both lists from the tracker, replacing the cached sets.
func (s *Session) Refresh(ctx context.Context) ([]ingest.Result, error) {
	if s.provider == nil || s.opts.PipelineList == "" {
		return nil, ErrNoTracker
	}
	return s.provider.FetchAll(ctx, s.opts.PipelineList, s.opts.TicketsList)
}

// Ensure loads the cache and fetches from the tracker only when the cache is empty.
func (s *Session) Ensure(ctx context.Context) error {
	if err := s.Load(); err != nil {
		return err
	}
	if s.store.Count(store.TasksSet) > 0 {
		return nil
	}
	if s.provider == nil || s.opts.PipelineList == "" {
		log.Warn().Msg("Task cache is empty and no tracker is configured")
		return nil
	}
	_, err := s.Refresh(ctx)
	return err
}

// Snapshot analyses the current task sets as of ref, or as of now when ref is zero.
func (s *Session) Snapshot(ref time.Time) stats.CapacitySnapshot {
	now := s.opts.Now().UTC()
	if ref.IsZero() {
		ref = now
	}

	snap := stats.Analyze(s.store.Get(store.TasksSet), s.store.Get(store.TicketsSet), s.workflow, ref)
	snap.RunID = uuid.NewString()
	snap.GeneratedAt = now

	log.Info().
		Str("run", snap.RunID).
		Time("reference", snap.ReferenceDate).
		Int("open", snap.WIP.Total).
		Str("overall", string(snap.Indicators.Overall)).
		Msg("Capacity snapshot computed")
	return snap
}

// Task looks up one task of the pipeline set.
func (s *Session) Task(id string) (tracker.Task, bool) {
	for _, t := range s.store.Get(store.TasksSet) {
		if t.ID == id {
			return t, true
		}
	}
	return tracker.Task{}, false
}

// Now returns the session clock.
func (s *Session) Now() time.Time {
	return s.opts.Now().UTC()
}

// ParseReferenceDate parses a YYYY-MM-DD or RFC 3339 value. A bare date means the end of that day in UTC.
func ParseReferenceDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reference date %q, expected YYYY-MM-DD", value)
	}
	return day.Add(24*time.Hour - time.Second), nil
}
