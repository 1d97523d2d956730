package main

import (
	"fmt"
	"os"
)

// All human-facing chatter goes to stderr so stdout stays machine-readable
// (ask --json output pipes cleanly).

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

func paint(code, s string) string {
	if noColor {
		return s
	}
	return code + s + ansiReset
}

func emit(code, glyph, format string, args ...any) {
	fmt.Fprintln(os.Stderr, paint(code, glyph+" "+fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) { emit(ansiGreen, "✓", format, args...) }
func printError(format string, args ...any)   { emit(ansiRed, "✗", format, args...) }
func printWarning(format string, args ...any) { emit(ansiYellow, "⚠", format, args...) }
func printStep(format string, args ...any)    { emit(ansiCyan, "→", format, args...) }

// printStatus renders one aligned "Label: value" line; the width fits the
// longest label the status and config commands print.
func printStatus(label string, format string, args ...any) {
	padded := fmt.Sprintf("%-20s", label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", paint(ansiBold, padded), fmt.Sprintf(format, args...))
}
