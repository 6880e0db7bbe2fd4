package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"flowcap/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, blocked, migration")
	distribution := flag.String("distribution", "uniform", "Distribution to use: uniform, weibull")
	outDir := flag.String("out", "./data", "Output directory for the task caches")
	count := flag.Int("count", 200, "Number of pipeline tasks to generate")
	tickets := flag.Int("tickets", 150, "Number of side-list tickets to generate")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:     *scenario,
		Distribution: *distribution,
		Count:        *count,
		Tickets:      *tickets,
		Seed:         *seed,
		Now:          time.Now().UTC(),
	}

	fmt.Printf("Generating scenario '%s' (Distribution: %s, Count: %d) to %s...\n", cfg.Scenario, cfg.Distribution, cfg.Count, *outDir)

	ds := engine.Generate(cfg)
	if err := engine.Save(*outDir, ds); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}
	if !ds.MigrationDay.IsZero() {
		fmt.Printf("Bulk closure on %s\n", ds.MigrationDay.Format("2006-01-02"))
	}

	fmt.Println("Done.")
}
