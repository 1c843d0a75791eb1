package main

import (
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"
)

func TestRenderTaskTableLayout(t *testing.T) {
	rendered := renderTaskTable([]table.Row{
		{"abc12345", "video-1", "import", "pending", "-", "2026-08-23 10:00:00"},
	})
	for _, want := range []string{"ID", "Subject", "Type", "Status", "Progress", "Created", "video-1"} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("rendered table missing %q:\n%s", want, rendered)
		}
	}
}

func TestRenderCountTableAlignsCounts(t *testing.T) {
	rendered := renderCountTable([]table.Row{
		{"pending", 2},
		{"total", 12},
	})

	var pendingLine, totalLine string
	for _, line := range strings.Split(rendered, "\n") {
		if strings.Contains(line, "pending") {
			pendingLine = line
		}
		if strings.Contains(line, "total") {
			totalLine = line
		}
	}
	if pendingLine == "" || totalLine == "" {
		t.Fatalf("missing summary rows:\n%s", rendered)
	}
	// Right alignment lines up the final digits of both counts.
	if strings.LastIndex(pendingLine, "2") != strings.LastIndex(totalLine, "2") {
		t.Fatalf("counts not right-aligned:\n%s", rendered)
	}
}
