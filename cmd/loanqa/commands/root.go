package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "loanqa",
	Short: "loanqa - 대출 데이터 품질 프레임워크",
	Long: `loanqa Unified CLI

Freddie Mac 단일가구 대출 데이터(origination + performance)에 대해
6개 품질 차원(Accuracy, Completeness, Consistency, Uniqueness,
Outliers, Representativeness)을 순서대로 평가합니다.

Usage:
  go run ./cmd/loanqa [command]

Examples:
  go run ./cmd/loanqa run
  go run ./cmd/loanqa run --persist
  go run ./cmd/loanqa rules --print
  go run ./cmd/loanqa fetch
  go run ./cmd/loanqa api
  go run ./cmd/loanqa history`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file loaded before .env")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment (development|staging|production), overrides ENV")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
