package config_test

import (
	"fmt"

	"github.com/wonny/loanqa/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Input: %s/%s + %s\n", cfg.Quality.InputDir, cfg.Quality.OrigFile, cfg.Quality.PerfFile)
	fmt.Printf("Reports: %s\n", cfg.Quality.ReportDir)
	fmt.Printf("Cutoff year: %d\n", cfg.Quality.CutoffYear)
	fmt.Printf("Persistence: %v\n", cfg.PersistenceEnabled())
}
