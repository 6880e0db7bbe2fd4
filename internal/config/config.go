package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"flowcap/internal/tracker"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Tracker tracker.Config

	PipelineListID string
	TicketsListID  string

	PageDelay time.Duration
	TaskDelay time.Duration
	MaxPages  int

	DataPath            string
	LogDir              string
	OutputDir           string
	WorkflowFile        string
	EnableMermaidCharts bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Binary directory first, so an installed MCP server finds its own .env
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Working directory
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables")
	}

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = "data"
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))
	outputDir := filepath.Join(dataPath, "output")

	for _, dir := range []string{dataPath, logDir, outputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Warn().Err(err).Str("path", dir).Msg("Failed to create directory")
		}
	}

	taskDelay := time.Duration(getEnvInt("CLICKUP_TASK_DELAY_MS", 150)) * time.Millisecond

	cfg := &AppConfig{
		Tracker: tracker.Config{
			BaseURL: getEnv("CLICKUP_URL", "https://api.clickup.com/api/v2"),
			Token:   getEnv("CLICKUP_TOKEN", ""),
			// Both lists share one client, so the throttle spaces every request.
			RequestDelay: taskDelay,
		},
		PipelineListID:      getEnv("CLICKUP_LIST_ID", ""),
		TicketsListID:       getEnv("CLICKUP_TICKETS_LIST_ID", ""),
		PageDelay:           time.Duration(getEnvInt("CLICKUP_PAGE_DELAY_MS", 300)) * time.Millisecond,
		TaskDelay:           taskDelay,
		MaxPages:            getEnvInt("CLICKUP_MAX_PAGES", 20),
		DataPath:            dataPath,
		LogDir:              logDir,
		OutputDir:           outputDir,
		WorkflowFile:        getEnv("WORKFLOW_FILE", filepath.Join(dataPath, "workflow.yaml")),
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", true),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil && intVal >= 0 {
			return intVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid integer setting")
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
