package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/loanqa/internal/scheduler/jobs"
	"github.com/wonny/loanqa/pkg/logger"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "품질 파이프라인 1회 실행",
	Long: `origination / performance 파일을 읽어 6개 품질 차원을 평가하고
리포트 CSV를 출력 디렉터리에 씁니다.

실행 순서:
  Accuracy → Completeness → Consistency → Uniqueness → Outliers → Representativeness

Completeness와 Consistency 단계에서 제거된 대출은 이후 단계에서 제외됩니다.

Example:
  go run ./cmd/loanqa run
  go run ./cmd/loanqa run --input Inputs --orig sample_orig_2010.txt --perf sample_svcg_2010.txt
  go run ./cmd/loanqa run --persist`,
	RunE: runPipeline,
}

var (
	runInputDir  string
	runOrigFile  string
	runPerfFile  string
	runReportDir string
	runRulesFile string
	runCutoff    int
	runPersist   bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runInputDir, "input", "", "입력 디렉터리 (QUALITY_INPUT_DIR)")
	runCmd.Flags().StringVar(&runOrigFile, "orig", "", "origination 파일명 (QUALITY_ORIG_FILE)")
	runCmd.Flags().StringVar(&runPerfFile, "perf", "", "performance 파일명 (QUALITY_PERF_FILE)")
	runCmd.Flags().StringVar(&runReportDir, "out", "", "리포트 출력 디렉터리 (QUALITY_REPORT_DIR)")
	runCmd.Flags().StringVar(&runRulesFile, "rules", "", "규칙 YAML 파일 (QUALITY_RULES_FILE)")
	runCmd.Flags().IntVar(&runCutoff, "cutoff", -1, "첫 보고 연도 컷오프, 0이면 비활성 (QUALITY_CUTOFF_YEAR)")
	runCmd.Flags().BoolVar(&runPersist, "persist", false, "결과를 PostgreSQL에 저장하고 Redis 캐시 갱신")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override from flags
	if runInputDir != "" {
		cfg.Quality.InputDir = runInputDir
	}
	if runOrigFile != "" {
		cfg.Quality.OrigFile = runOrigFile
	}
	if runPerfFile != "" {
		cfg.Quality.PerfFile = runPerfFile
	}
	if runReportDir != "" {
		cfg.Quality.ReportDir = runReportDir
	}
	if runRulesFile != "" {
		cfg.Quality.RulesFile = runRulesFile
	}
	if runCutoff >= 0 {
		cfg.Quality.CutoffYear = runCutoff
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	PrintHeader("Data Quality Run", [][2]string{
		{"Input", cfg.Quality.InputDir},
		{"Orig", cfg.Quality.OrigFile},
		{"Perf", cfg.Quality.PerfFile},
		{"Reports", cfg.Quality.ReportDir},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Build pipeline + report writer
	pipeline, err := newPipeline(cfg, log)
	if err != nil {
		return err
	}
	if _, err := withReports(pipeline, cfg, log); err != nil {
		return err
	}

	job := jobs.NewQualityJob(pairLoader(cfg), pipeline, cfg.Quality.Schedule, log).WithSource("cli")

	// 4. Optional persistence
	if runPersist {
		repo, db, err := openRepository(ctx, cfg, log)
		if err != nil {
			return err
		}
		if repo == nil {
			PrintWarning("--persist ignored: DATABASE_URL is not set")
		} else {
			defer db.Close()
			job.WithStore(repo)
		}

		cache, client := openCache(ctx, cfg, log)
		if client != nil {
			defer client.Close()
		}
		if cache != nil {
			job.WithCache(cache)
		}
	}

	// 5. Run
	snap, err := job.Execute(ctx)
	if err != nil {
		PrintError(err.Error())
		return fmt.Errorf("run pipeline: %w", err)
	}

	PrintSummary(snap)
	fmt.Println()
	PrintSuccess(fmt.Sprintf("Reports written to %s", cfg.Quality.ReportDir))
	return nil
}
