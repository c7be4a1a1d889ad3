package main

import (
	"os"

	"github.com/wonny/loanqa/cmd/loanqa/commands"
)

// main is the entry point for the loanqa CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/loanqa [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
