package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/loanqa/internal/rules"
)

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules [file]",
	Short: "규칙 파일 검증 / 출력",
	Long: `Accuracy 규칙 파일(YAML)을 검증하고 규칙 목록을 출력합니다.
파일을 지정하지 않으면 QUALITY_RULES_FILE, 그것도 없으면 내장 규칙을 사용합니다.

Example:
  go run ./cmd/loanqa rules
  go run ./cmd/loanqa rules configs/rules.yaml
  go run ./cmd/loanqa rules --print > configs/rules.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRules,
}

var rulesPrint bool

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().BoolVar(&rulesPrint, "print", false, "규칙을 YAML로 출력")
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Quality.RulesFile = args[0]
	}

	set, err := loadRules(cfg)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	if rulesPrint {
		data, err := rules.Marshal(set)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	}

	source := cfg.Quality.RulesFile
	if source == "" {
		source = "built-in"
	}
	PrintHeader("Rule Set", [][2]string{
		{"Source", source},
		{"Datasets", strings.Join(set.Names(), ", ")},
		{"Rules", fmt.Sprintf("%d", set.Count())},
	})

	widths := []int{6, 26, 10, 40}
	fmt.Println()
	PrintTableHeader([]string{"Data", "Column", "Kind", "Description"}, widths)
	for _, name := range set.Names() {
		for _, r := range set[name] {
			PrintTableRow([]string{name, r.Column, string(r.Kind), r.Description}, widths)
		}
	}
	fmt.Println()
	PrintSuccess("Rule set is valid")
	return nil
}
