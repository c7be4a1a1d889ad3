package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/wonny/loanqa/internal/api"
	"github.com/wonny/loanqa/internal/api/handlers"
	"github.com/wonny/loanqa/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `저장된 품질 실행 결과를 조회하는 REST API 서버를 시작합니다.
DATABASE_URL이 필요하며, REDIS_ENABLED=true이면 조회 결과를 캐시합니다.

Endpoints:
  GET  /health                   - Health check
  GET  /api/quality/latest       - 최신 실행 결과
  GET  /api/quality/runs         - 실행 목록 (?limit=20)
  GET  /api/quality/runs/{id}    - 특정 실행 결과
  GET  /api/scheduler/jobs       - 스케줄 작업 상태 (--with-scheduler)
  GET  /api/scheduler/jobs/{name}/history - 작업 실행 이력 (--with-scheduler)
  GET  /metrics                  - Prometheus 메트릭 (METRICS_ENABLED)

Example:
  go run ./cmd/loanqa api
  go run ./cmd/loanqa api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "같은 프로세스에서 스케줄러 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== loanqa API Server ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := handlers.NewHealthHandler("loanqa-api", cfg.API.HealthTimeout, log)

	// 3. Connect to database
	repo, db, err := openRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	if repo == nil {
		return fmt.Errorf("api requires DATABASE_URL")
	}
	defer db.Close()
	health.Register("database", func(ctx context.Context) (interface{}, error) {
		return db.HealthCheck(ctx)
	})

	// 4. Cache (optional)
	var cache handlers.SnapshotCache
	if c, client := openCache(ctx, cfg, log); c != nil {
		defer client.Close()
		cache = c
		health.Register("redis", func(ctx context.Context) (interface{}, error) {
			return nil, client.HealthCheck(ctx)
		})
	}

	// 5. Metrics
	var gatherer prometheus.Gatherer
	reg := newRegistry(cfg)
	if reg != nil {
		gatherer = reg
	}

	h := api.Handlers{
		Health:  health,
		Quality: handlers.NewQualityHandler(repo, cache, log),
	}

	// 6. Scheduler in the same process (optional)
	if apiWithScheduler {
		var registerer prometheus.Registerer
		if reg != nil {
			registerer = reg
		}
		sched, cleanup, err := initScheduler(cfg, log, registerer)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		defer cleanup()
		sched.Start()
		defer sched.Stop()
		h.Scheduler = handlers.NewSchedulerHandler(sched, log)
	}

	// 7. Router + server
	server := api.New(cfg, log, api.NewRouter(h, gatherer, log))

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	for _, route := range server.Routes() {
		fmt.Printf("  %s\n", route)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// blocks until Ctrl+C, then drains within API_SHUTDOWN_TIMEOUT
	if err := server.Run(ctx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
