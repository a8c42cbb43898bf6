package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ── Terminal display helpers ───────────────────────────────────────

func printSection(w io.Writer, title string) {
	lineLen := max(46-utf8.RuneCountInString(title)-1, 3)
	fmt.Fprintf(w, "  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(w io.Writer, label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-utf8.RuneCountInString(label)-len(numStr), 3)
	fmt.Fprintf(w, "  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(w io.Writer, msg string) {
	fmt.Fprintf(w, "  \033[32m✓\033[0m %s\n", msg)
}

func printWarn(w io.Writer, msg string) {
	fmt.Fprintf(w, "  \033[33m!\033[0m %s\n", msg)
}

func printLine(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  "+format+"\n", args...)
}
