package logger_test

import (
	"errors"

	"github.com/wonny/loanqa/pkg/config"
	"github.com/wonny/loanqa/pkg/logger"
)

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	log := logger.New(&config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	})

	log.WithRun("0b9c6a52-5d0e-4c1e-9a55-3f0a3a7f4c11").
		WithDimension("Consistency").
		WithFields(map[string]interface{}{
			"score":   0.997,
			"removed": 12,
		}).Info("Dimension scored")

	log.WithError(errors.New("open sample_svcg.txt: no such file")).
		Error("Failed to load performance file")
}
