package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"flowcap/internal/dashboard"
	"flowcap/internal/stats"
	"flowcap/internal/store"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DashboardFile = "dashboard.html"
	MarkdownFile  = "report.md"
)

// Writer renders every output of a snapshot into one directory.
type Writer struct {
	OutputDir string
	Charts    bool
	Dashboard dashboard.Options
}

// Outputs lists the files written.
type Outputs struct {
	Snapshot  string `json:"snapshot"`
	Dashboard string `json:"dashboard"`
	Markdown  string `json:"markdown"`
}

// WriteAll writes capacity.json, dashboard.html and report.md concurrently.
func (w Writer) WriteAll(ctx context.Context, snap stats.CapacitySnapshot) (Outputs, error) {
	if err := os.MkdirAll(w.OutputDir, 0o755); err != nil {
		return Outputs{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	out := Outputs{
		Snapshot:  filepath.Join(w.OutputDir, store.SnapshotFile),
		Dashboard: filepath.Join(w.OutputDir, DashboardFile),
		Markdown:  filepath.Join(w.OutputDir, MarkdownFile),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return store.SaveSnapshot(w.OutputDir, snap)
	})
	g.Go(func() error {
		var buf bytes.Buffer
		if err := dashboard.Render(&buf, snap, w.Dashboard); err != nil {
			return err
		}
		if err := gctx.Err(); err != nil {
			return err
		}
		return writeFile(out.Dashboard, buf.Bytes())
	})
	g.Go(func() error {
		return writeFile(out.Markdown, []byte(Markdown(snap, w.Charts)))
	})

	if err := g.Wait(); err != nil {
		return Outputs{}, err
	}

	log.Info().Str("dir", w.OutputDir).Msg("Reports written")
	return out, nil
}

// RenderOnly rewrites the dashboard and markdown from an existing snapshot without touching capacity.json.
func (w Writer) RenderOnly(ctx context.Context, snap stats.CapacitySnapshot) (Outputs, error) {
	out := Outputs{
		Dashboard: filepath.Join(w.OutputDir, DashboardFile),
		Markdown:  filepath.Join(w.OutputDir, MarkdownFile),
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var buf bytes.Buffer
		if err := dashboard.Render(&buf, snap, w.Dashboard); err != nil {
			return err
		}
		return writeFile(out.Dashboard, buf.Bytes())
	})
	g.Go(func() error {
		return writeFile(out.Markdown, []byte(Markdown(snap, w.Charts)))
	})

	if err := g.Wait(); err != nil {
		return Outputs{}, err
	}
	return out, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
