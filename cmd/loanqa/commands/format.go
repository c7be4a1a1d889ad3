package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/loanqa/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a formatted command header
func PrintHeader(title string, fields [][2]string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
	for _, f := range fields {
		fmt.Printf("  %-10s: %s\n", f[0], f[1])
	}
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// FormatScore renders a dimension score; undefined scores print as n/a
func FormatScore(s contracts.Score) string {
	if s.Undefined() {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", float64(s))
}

// PrintSummary prints the dimension table of a snapshot
func PrintSummary(snap *contracts.QualitySnapshot) {
	widths := []int{20, 8, 8}
	fmt.Println()
	PrintTableHeader([]string{"Dimension", "Score", "Removed"}, widths)
	for _, d := range snap.Dimensions {
		PrintTableRow([]string{
			d.Dimension,
			FormatScore(d.Score),
			fmt.Sprintf("%d", len(snap.Removed[d.Dimension])),
		}, widths)
	}
	fmt.Println()
	PrintKeyValue("Run ID", snap.RunID.String(), 12)
	PrintKeyValue("Orig rows", fmt.Sprintf("%d → %d", snap.InputOrigRows, snap.CleanOrigRows), 12)
	PrintKeyValue("Perf rows", fmt.Sprintf("%d → %d", snap.InputPerfRows, snap.CleanPerfRows), 12)
	PrintKeyValue("Duration", (time.Duration(snap.DurationMS) * time.Millisecond).String(), 12)
}
