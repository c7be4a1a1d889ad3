package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/loanqa/internal/loader"
	"github.com/wonny/loanqa/pkg/httputil"
	"github.com/wonny/loanqa/pkg/logger"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [file...]",
	Short: "원격 소스 파일 다운로드",
	Long: `QUALITY_SOURCE_URL 아래의 파일을 입력 디렉터리로 내려받습니다.
파일을 지정하지 않으면 QUALITY_ORIG_FILE / QUALITY_PERF_FILE을 받습니다.
요청 속도는 QUALITY_FETCH_RATE(초당 요청 수)로 제한됩니다.

Example:
  go run ./cmd/loanqa fetch
  go run ./cmd/loanqa fetch sample_orig_2010.txt sample_svcg_2010.txt --source https://example.org/sfld`,
	RunE: runFetch,
}

var (
	fetchSource  string
	fetchNoRetry bool
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchSource, "source", "", "원격 base URL (QUALITY_SOURCE_URL)")
	fetchCmd.Flags().BoolVar(&fetchNoRetry, "no-retry", false, "5xx/429 응답 재시도 안 함")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if fetchSource != "" {
		cfg.Quality.SourceBaseURL = fetchSource
	}

	log := logger.New(cfg)

	names := args
	if len(names) == 0 {
		names = []string{cfg.Quality.OrigFile, cfg.Quality.PerfFile}
	}

	PrintHeader("Fetch Source Files", [][2]string{
		{"Source", cfg.Quality.SourceBaseURL},
		{"Target", cfg.Quality.InputDir},
		{"Files", fmt.Sprintf("%d", len(names))},
		{"Timeout", cfg.Quality.FetchTimeout.String()},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := httputil.NewWithTimeout(cfg, log, cfg.Quality.FetchTimeout)
	if fetchNoRetry {
		client.DisableRetry()
	}
	fetcher := loader.NewFetcher(client, cfg.Quality.SourceBaseURL, log)

	paths, err := fetcher.FetchAll(ctx, cfg.Quality.InputDir, names...)
	for _, p := range paths {
		PrintSuccess(p)
	}
	if err != nil {
		PrintError(err.Error())
		return err
	}
	return nil
}
