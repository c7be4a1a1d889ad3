package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wonny/loanqa/internal/dataset"
	"github.com/wonny/loanqa/internal/loader"
	"github.com/wonny/loanqa/internal/quality"
	"github.com/wonny/loanqa/internal/report"
	"github.com/wonny/loanqa/internal/rules"
	"github.com/wonny/loanqa/internal/scheduler/jobs"
	"github.com/wonny/loanqa/pkg/config"
	"github.com/wonny/loanqa/pkg/database"
	"github.com/wonny/loanqa/pkg/logger"
	"github.com/wonny/loanqa/pkg/redis"
)

const cachePrefix = "loanqa"

// loadConfig applies the global flags and reads configuration
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		// godotenv never overrides variables that are already set
		if err := godotenv.Load(configFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", configFile, err)
		}
	}
	if env != "" {
		os.Setenv("ENV", env)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// loadRules returns the rule file named in config, or the built-in set
func loadRules(cfg *config.Config) (rules.Set, error) {
	if cfg.Quality.RulesFile == "" {
		return rules.Default(), nil
	}
	set, err := rules.Load(cfg.Quality.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("rules %s: %w", cfg.Quality.RulesFile, err)
	}
	return set, nil
}

// newPipeline builds the pipeline from config
func newPipeline(cfg *config.Config, log *logger.Logger) (*quality.Pipeline, error) {
	set, err := loadRules(cfg)
	if err != nil {
		return nil, err
	}

	opts := quality.DefaultOptions()
	opts.Rules = set
	opts.CutoffYear = cfg.Quality.CutoffYear

	return quality.NewPipeline(opts, log), nil
}

// withReports attaches a report writer for cfg.Quality.ReportDir
func withReports(p *quality.Pipeline, cfg *config.Config, log *logger.Logger) (*report.Writer, error) {
	w, err := report.NewWriter(cfg.Quality.ReportDir, log)
	if err != nil {
		return nil, err
	}
	p.WithSink(w)
	return w, nil
}

// newRegistry returns a registry with runtime collectors, or nil when metrics are off
func newRegistry(cfg *config.Config) *prometheus.Registry {
	if !cfg.MetricsEnabled {
		return nil
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// pairLoader reads the configured input files
func pairLoader(cfg *config.Config) jobs.PairLoader {
	return func(ctx context.Context) (dataset.Pair, error) {
		return loader.LoadPair(cfg.Quality.InputDir, cfg.Quality.OrigFile, cfg.Quality.PerfFile)
	}
}

// openRepository connects to PostgreSQL and ensures the schema.
// Returns (nil, nil, nil) when persistence is not configured.
func openRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (*quality.Repository, *database.DB, error) {
	db, err := database.New(cfg)
	if errors.Is(err, database.ErrNotConfigured) {
		log.Info("DATABASE_URL not set, runs are not persisted")
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	repo := quality.NewRepository(db.Pool)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}

	log.Info("Connected to database")
	return repo, db, nil
}

// openCache connects to Redis. A disabled or unreachable Redis yields a nil cache.
func openCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (*redis.Cache, *redis.Client) {
	client, err := redis.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		return nil, nil
	}
	if !client.Enabled() {
		return nil, client
	}
	return redis.NewCache(client, cachePrefix), client
}
