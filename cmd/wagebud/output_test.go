package main

import (
	"strings"
	"testing"
)

func TestPaint(t *testing.T) {
	orig := noColor
	defer func() { noColor = orig }()

	noColor = false
	got := paint(ansiGreen, "ready")
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Errorf("paint() = %q, want wrapped in color codes", got)
	}
	if !strings.Contains(got, "ready") {
		t.Errorf("paint() = %q, want it to contain the text", got)
	}

	noColor = true
	if got := paint(ansiGreen, "ready"); got != "ready" {
		t.Errorf("paint() with --no-color = %q, want bare text", got)
	}
}
