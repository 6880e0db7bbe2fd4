package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flowcap/internal/store"
	"flowcap/internal/tracker"
	"flowcap/internal/workflow"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultPageSize is the number of tasks the tracker returns per full page.
const DefaultPageSize = 100

// Options tunes the request pacing of a Provider.
type Options struct {
	PageDelay time.Duration
	TaskDelay time.Duration
	MaxPages  int
	PageSize  int
}

// Result reports what one list fetch produced.
type Result struct {
	Set         string `json:"set"`
	ListID      string `json:"list_id"`
	Pages       int    `json:"pages"`
	Tasks       int    `json:"tasks"`
	Histories   int    `json:"histories"`
	Unavailable int    `json:"unavailable"`
	Truncated   bool   `json:"truncated"`
}

// Provider pulls task lists from the tracker into the task store.
type Provider struct {
	client   tracker.Client
	store    *store.TaskStore
	workflow *workflow.Workflow
	cacheDir string
	opts     Options
}

func NewProvider(client tracker.Client, st *store.TaskStore, wf *workflow.Workflow, cacheDir string, opts Options) *Provider {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 1
	}
	return &Provider{
		client:   client,
		store:    st,
		workflow: wf,
		cacheDir: cacheDir,
		opts:     opts,
	}
}

// Fetch reads every page of a list and replaces the named set in the store.
// With withHistory, open tasks outside the excluded statuses also get their time-in-status history.
// A failed history request marks the task as unavailable and the fetch continues.
func (p *Provider) Fetch(ctx context.Context, set, listID string, withHistory bool) (Result, error) {
	res := Result{Set: set, ListID: listID}
	var tasks []tracker.Task

	log.Info().Str("set", set).Str("list", listID).Bool("history", withHistory).Msg("Starting list fetch")

	for page := 0; ; page++ {
		if page >= p.opts.MaxPages {
			res.Truncated = true
			log.Warn().Str("list", listID).Int("max_pages", p.opts.MaxPages).Msg("Page limit reached, list may be incomplete")
			break
		}
		if page > 0 {
			if err := sleep(ctx, p.opts.PageDelay); err != nil {
				return res, err
			}
		}

		resp, err := p.client.ListTasks(ctx, listID, page)
		if err != nil {
			return res, fmt.Errorf("fetch of list %s failed at page %d: %w", listID, page, err)
		}
		res.Pages++

		for _, dto := range resp.Tasks {
			tasks = append(tasks, tracker.MapTask(dto, nil))
		}
		log.Debug().Str("list", listID).Int("page", page).Int("count", len(resp.Tasks)).Msg("Page fetched")

		if len(resp.Tasks) < p.opts.PageSize || (resp.LastPage != nil && *resp.LastPage) {
			break
		}
	}

	if withHistory {
		if err := p.hydrateHistory(ctx, tasks, &res); err != nil {
			return res, err
		}
	}

	res.Tasks = len(tasks)
	p.store.Replace(set, tasks)

	if p.cacheDir != "" {
		if err := p.store.Save(p.cacheDir, set); err != nil {
			log.Warn().Err(err).Str("set", set).Msg("Failed to save task cache")
		}
	}

	log.Info().
		Str("set", set).
		Int("pages", res.Pages).
		Int("tasks", res.Tasks).
		Int("histories", res.Histories).
		Int("unavailable", res.Unavailable).
		Msg("List fetch complete")
	return res, nil
}

func (p *Provider) hydrateHistory(ctx context.Context, tasks []tracker.Task, res *Result) error {
	first := true
	for i := range tasks {
		t := &tasks[i]
		if t.IsClosed() || p.workflow.IsExcluded(t.Status) {
			continue
		}
		if !first {
			if err := sleep(ctx, p.opts.TaskDelay); err != nil {
				return err
			}
		}
		first = false

		dto, err := p.client.GetTimeInStatus(ctx, t.ID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, tracker.ErrUnauthorized) {
				return fmt.Errorf("history of task %s: %w", t.ID, err)
			}
			t.HistoryUnavailable = true
			res.Unavailable++
			log.Warn().Err(err).Str("task", t.ID).Msg("Time-in-status unavailable, task degrades to no history")
			continue
		}
		t.History = tracker.MapHistory(dto)
		res.Histories++
	}
	return nil
}

// FetchAll fetches the pipeline list and, when configured, the ticket list concurrently.
// Tickets only feed monthly counts, so their histories are skipped.
func (p *Provider) FetchAll(ctx context.Context, pipelineList, ticketsList string) ([]Result, error) {
	results := make([]Result, 2)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r, err := p.Fetch(gctx, store.TasksSet, pipelineList, true)
		results[0] = r
		return err
	})
	if ticketsList != "" {
		g.Go(func() error {
			r, err := p.Fetch(gctx, store.TicketsSet, ticketsList, false)
			results[1] = r
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ticketsList == "" {
		return results[:1], nil
	}
	return results, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
