package store

import (
	"bufio"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"flowcap/internal/stats"
	"flowcap/internal/tracker"

	"github.com/rs/zerolog/log"
)

const (
	// TasksSet holds the pipeline list.
	TasksSet = "tasks"
	// TicketsSet holds the optional ticket-request list.
	TicketsSet = "tickets"

	SnapshotFile = "capacity.json"
)

// TaskStore keeps fetched task sets in memory, keyed by set name, and mirrors them to JSONL files.
type TaskStore struct {
	mu   sync.RWMutex
	sets map[string][]tracker.Task
}

// NewTaskStore creates an empty store.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		sets: make(map[string][]tracker.Task),
	}
}

// Put merges tasks into a set. A task already present is replaced by the newer copy.
func (s *TaskStore) Put(set string, tasks []tracker.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[set] = merge(s.sets[set], tasks)
}

// Replace swaps the whole set, dropping tasks that are no longer listed.
func (s *TaskStore) Replace(set string, tasks []tracker.Task) {
	merged := merge(nil, tasks)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[set] = merged
}

func merge(base, tasks []tracker.Task) []tracker.Task {
	merged := slices.Clone(base)
	byID := make(map[string]int, len(merged))
	for i, t := range merged {
		byID[t.ID] = i
	}
	for _, t := range tasks {
		if i, ok := byID[t.ID]; ok {
			merged[i] = t
			continue
		}
		byID[t.ID] = len(merged)
		merged = append(merged, t)
	}

	slices.SortStableFunc(merged, func(a, b tracker.Task) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return merged
}

// Get returns a copy of the tasks in a set, ordered by creation.
func (s *TaskStore) Get(set string) []tracker.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.sets[set])
}

// Count returns the number of tasks in a set.
func (s *TaskStore) Count(set string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sets[set])
}

// Load reads a set from <dir>/<set>.jsonl. A missing file is not an error.
func (s *TaskStore) Load(dir, set string) error {
	path := filepath.Join(dir, set+".jsonl")
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open task cache: %w", err)
	}
	defer file.Close()

	var tasks []tracker.Task
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var t tracker.Task
		if err := json.Unmarshal(scanner.Bytes(), &t); err != nil {
			log.Warn().Err(err).Str("set", set).Int("line", line).Msg("Skipping invalid JSON line in task cache")
			continue
		}
		tasks = append(tasks, t)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading task cache: %w", err)
	}

	log.Info().Str("set", set).Int("count", len(tasks)).Msg("Loaded tasks from cache")
	s.Put(set, tasks)
	return nil
}

// Save writes a set to <dir>/<set>.jsonl through a temp file and rename.
func (s *TaskStore) Save(dir, set string) error {
	tasks := s.Get(set)

	err := writeAtomic(filepath.Join(dir, set+".jsonl"), func(w *bufio.Writer) error {
		enc := json.NewEncoder(w)
		for _, t := range tasks {
			if err := enc.Encode(t); err != nil {
				return fmt.Errorf("failed to encode task %s: %w", t.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("set", set).Int("count", len(tasks)).Msg("Task cache saved")
	return nil
}

// SaveSnapshot writes the snapshot as indented JSON to <dir>/capacity.json.
func SaveSnapshot(dir string, snap stats.CapacitySnapshot) error {
	return writeAtomic(filepath.Join(dir, SnapshotFile), func(w *bufio.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
		return nil
	})
}

// LoadSnapshot reads <dir>/capacity.json.
func LoadSnapshot(dir string) (*stats.CapacitySnapshot, error) {
	data, err := os.ReadFile(filepath.Join(dir, SnapshotFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snap stats.CapacitySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &snap, nil
}

func writeAtomic(path string, write func(w *bufio.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	writer := bufio.NewWriter(file)
	if err := write(writer); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
