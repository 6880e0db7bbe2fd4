package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DATA_PATH", filepath.Join(dir, "data"))
	t.Setenv("CLICKUP_TOKEN", "pk_1")
	t.Setenv("CLICKUP_LIST_ID", "900")
	t.Setenv("CLICKUP_URL", "")
	t.Setenv("LOGS_FOLDER", "")
	t.Setenv("WORKFLOW_FILE", "")
	t.Setenv("CLICKUP_PAGE_DELAY_MS", "")
	t.Setenv("CLICKUP_TASK_DELAY_MS", "")
	t.Setenv("CLICKUP_MAX_PAGES", "")
	t.Setenv("ENABLE_MERMAID_CHARTS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Tracker.BaseURL != "https://api.clickup.com/api/v2" {
		t.Errorf("BaseURL = %q", cfg.Tracker.BaseURL)
	}
	if cfg.Tracker.Token != "pk_1" || cfg.PipelineListID != "900" {
		t.Errorf("Token/ListID = %q/%q", cfg.Tracker.Token, cfg.PipelineListID)
	}
	if cfg.PageDelay != 300*time.Millisecond || cfg.TaskDelay != 150*time.Millisecond {
		t.Errorf("delays = %v/%v, want 300ms/150ms", cfg.PageDelay, cfg.TaskDelay)
	}
	if cfg.MaxPages != 20 {
		t.Errorf("MaxPages = %d, want 20", cfg.MaxPages)
	}
	if cfg.WorkflowFile != filepath.Join(dir, "data", "workflow.yaml") {
		t.Errorf("WorkflowFile = %q", cfg.WorkflowFile)
	}
	if !cfg.EnableMermaidCharts {
		t.Error("EnableMermaidCharts should default to true")
	}
}

func TestLoad_Overrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DATA_PATH", dir)
	t.Setenv("CLICKUP_PAGE_DELAY_MS", "0")
	t.Setenv("CLICKUP_MAX_PAGES", "not-a-number")
	t.Setenv("ENABLE_MERMAID_CHARTS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PageDelay != 0 {
		t.Errorf("PageDelay = %v, want 0", cfg.PageDelay)
	}
	if cfg.MaxPages != 20 {
		t.Errorf("MaxPages = %d, want fallback 20", cfg.MaxPages)
	}
	if cfg.EnableMermaidCharts {
		t.Error("EnableMermaidCharts = true, want false")
	}
}
