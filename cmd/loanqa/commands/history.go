package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wonny/loanqa/internal/quality"
	"github.com/wonny/loanqa/pkg/logger"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [run_id]",
	Short: "저장된 실행 이력 조회",
	Long: `PostgreSQL에 저장된 품질 실행 결과를 조회합니다.
run_id를 지정하면 해당 실행의 차원별 점수를 출력합니다.

Example:
  go run ./cmd/loanqa history
  go run ./cmd/loanqa history --limit 5
  go run ./cmd/loanqa history 3f2b0c9e-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "조회할 실행 수")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, db, err := openRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	if repo == nil {
		PrintWarning("DATABASE_URL is not set, no history available")
		return nil
	}
	defer db.Close()

	if len(args) == 1 {
		runID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", args[0], err)
		}
		snap, err := repo.GetByRunID(ctx, runID)
		if errors.Is(err, quality.ErrNotFound) {
			PrintError(fmt.Sprintf("run %s not found", runID))
			return err
		}
		if err != nil {
			return err
		}

		PrintHeader("Quality Run", [][2]string{
			{"Started", snap.StartedAt.Format("2006-01-02 15:04:05")},
			{"Source", snap.Source},
		})
		PrintSummary(snap)
		return nil
	}

	snaps, err := repo.List(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		PrintInfo("No runs stored yet")
		return nil
	}

	widths := []int{36, 19, 10, 8, 8}
	fmt.Println()
	PrintTableHeader([]string{"Run ID", "Started", "Source", "Scored", "Removed"}, widths)
	for _, s := range snaps {
		PrintTableRow([]string{
			s.RunID.String(),
			s.StartedAt.Format("2006-01-02 15:04:05"),
			s.Source,
			fmt.Sprintf("%d/%d", s.DefinedCount(), len(s.Dimensions)),
			fmt.Sprintf("%d", s.RemovedCount()),
		}, widths)
	}
	return nil
}
