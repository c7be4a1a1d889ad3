package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/wonny/loanqa/internal/quality"
	"github.com/wonny/loanqa/internal/scheduler"
	"github.com/wonny/loanqa/internal/scheduler/jobs"
	"github.com/wonny/loanqa/pkg/config"
	"github.com/wonny/loanqa/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `품질 파이프라인을 cron 스케줄로 반복 실행합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (완료까지 대기)

Example:
  go run ./cmd/loanqa scheduler start
  go run ./cmd/loanqa scheduler list
  go run ./cmd/loanqa scheduler run data_quality`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- data_quality: QUALITY_SCHEDULE (기본 매일 오전 6시)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== loanqa Scheduler ===")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	sched, cleanup, err := initScheduler(cfg, log, nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sched, cleanup, err := initScheduler(cfg, logger.New(cfg), nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sched, cleanup, err := initScheduler(cfg, logger.New(cfg), nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Printf("Running job: %s\n", jobName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := sched.RunJob(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	if !result.Success {
		PrintError(fmt.Sprintf("Job %s failed after %s: %s", jobName, result.Duration, result.Error))
		return fmt.Errorf("job %s failed", jobName)
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %s (attempts: %d)", jobName, result.Duration.Round(time.Millisecond), result.Attempts))
	PrintHeader("Run", [][2]string{
		{"Run ID", result.RunID},
		{"Scored dimensions", fmt.Sprintf("%d", result.DefinedDims)},
		{"Removed loans", fmt.Sprintf("%d", result.RemovedLoans)},
	})
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	widths := []int{16, 16, 20, 6}
	fmt.Println()
	PrintTableHeader([]string{"Job", "Schedule", "Next Run", "Runs"}, widths)
	for _, jobName := range sched.GetAllJobs() {
		st := stats[jobName]
		next := "-"
		if st.NextRun != nil {
			next = st.NextRun.Local().Format("2006-01-02 15:04:05")
		}
		PrintTableRow([]string{jobName, st.Schedule, next, fmt.Sprintf("%d", st.TotalRuns)}, widths)
	}
}

// initScheduler wires the quality job. reg may be nil.
// cleanup releases the database and redis connections.
func initScheduler(cfg *config.Config, log *logger.Logger, reg prometheus.Registerer) (*scheduler.Scheduler, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// 1. Pipeline
	pipeline, err := newPipeline(cfg, log)
	if err != nil {
		return nil, cleanup, err
	}
	if _, err := withReports(pipeline, cfg, log); err != nil {
		return nil, cleanup, err
	}
	if reg != nil {
		pipeline.WithMetrics(quality.NewMetrics(reg))
	}

	job := jobs.NewQualityJob(pairLoader(cfg), pipeline, cfg.Quality.Schedule, log)

	// 2. Persistence (optional)
	repo, db, err := openRepository(context.Background(), cfg, log)
	if err != nil {
		return nil, cleanup, err
	}
	if repo != nil {
		closers = append(closers, db.Close)
		job.WithStore(repo)
	}

	// 3. Cache (optional)
	cache, client := openCache(context.Background(), cfg, log)
	if client != nil {
		closers = append(closers, func() { client.Close() })
	}
	if cache != nil {
		job.WithCache(cache)
	}

	// 4. Scheduler
	sched := scheduler.New(log, scheduler.WithRetry(2, time.Minute))
	if err := sched.AddJob(job); err != nil {
		cleanup()
		return nil, func() {}, err
	}

	return sched, cleanup, nil
}
