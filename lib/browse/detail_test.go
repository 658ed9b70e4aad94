// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package browse

import (
	"errors"
	"strings"
	"testing"
)

func TestDetailPaneEmpty(t *testing.T) {
	pane := NewDetailPane(DefaultTheme)
	pane.SetSize(60, 20)

	view := pane.View(false)
	if !strings.Contains(view, "Select a dataset") {
		t.Error("empty pane should show the placeholder")
	}
}

func TestDetailPaneLoading(t *testing.T) {
	pane := NewDetailPane(DefaultTheme)
	pane.SetSize(60, 20)
	pane.SetLoading("ghcnd-daily")

	if pane.Key() != "ghcnd-daily" {
		t.Errorf("Key() = %s, want ghcnd-daily", pane.Key())
	}
	if pane.HasHistory() {
		t.Error("loading pane should not report history")
	}

	view := pane.View(false)
	if !strings.Contains(view, "ghcnd-daily") {
		t.Error("loading pane should show the dataset key")
	}
	if !strings.Contains(view, "loading history") {
		t.Error("loading pane should show the loading status")
	}
}

func TestDetailPaneHistory(t *testing.T) {
	pane := NewDetailPane(DefaultTheme)
	pane.SetSize(60, 20)

	history := testHistory("era5/precipitation-hourly", 3)
	pane.SetHistory(history)

	if !pane.HasHistory() {
		t.Fatal("pane should report history after SetHistory")
	}

	view := pane.View(true)
	if !strings.Contains(view, "era5/precipitation-hourly") {
		t.Error("view should show the dataset key")
	}
	if !strings.Contains(view, "ptr/era5/precipitation-hourly") {
		t.Error("view should show the pointer")
	}
	if !strings.Contains(view, "3 versions") {
		t.Error("view should show the version count")
	}
	if !strings.Contains(view, "●") {
		t.Error("view should mark the head snapshot")
	}
	if !strings.Contains(view, "○") {
		t.Error("view should mark older snapshots")
	}
	if !strings.Contains(view, "Version 3 of") {
		t.Error("view should render the head description")
	}
}

func TestDetailPaneViewHeight(t *testing.T) {
	pane := NewDetailPane(DefaultTheme)
	pane.SetSize(60, 20)
	pane.SetHistory(testHistory("ghcnd-daily", 2))

	view := pane.View(false)
	lines := strings.Split(view, "\n")
	if len(lines) != 20 {
		t.Errorf("view should be exactly 20 lines, got %d", len(lines))
	}
}

func TestDetailPaneError(t *testing.T) {
	pane := NewDetailPane(DefaultTheme)
	pane.SetSize(60, 20)
	pane.SetError("ghcnd-daily", errors.New("pointer resolution failed"))

	if pane.HasHistory() {
		t.Error("error pane should not report history")
	}

	view := pane.View(false)
	if !strings.Contains(view, "pointer resolution failed") {
		t.Error("view should show the load error")
	}
}

func TestDetailPaneClear(t *testing.T) {
	pane := NewDetailPane(DefaultTheme)
	pane.SetSize(60, 20)
	pane.SetHistory(testHistory("ghcnd-daily", 1))

	pane.Clear()
	if pane.Key() != "" {
		t.Errorf("Key() after Clear = %s, want empty", pane.Key())
	}
	if pane.HasHistory() {
		t.Error("cleared pane should not report history")
	}
	if !strings.Contains(pane.View(false), "Select a dataset") {
		t.Error("cleared pane should show the placeholder")
	}
}

func TestDetailPaneTruncatedChain(t *testing.T) {
	pane := NewDetailPane(DefaultTheme)
	pane.SetSize(60, 24)

	// Drop the root snapshot so the oldest loaded one still links to
	// a predecessor, as a limit-capped walk would produce.
	history := testHistory("era5/precipitation-hourly", 3)
	history.Snapshots = history.Snapshots[:2]
	pane.SetHistory(history)

	view := pane.View(false)
	if !strings.Contains(view, "2+ versions") {
		t.Errorf("truncated chain should show an open-ended count, got:\n%s", view)
	}
	if !strings.Contains(view, "older versions not loaded") {
		t.Error("truncated chain should note the cutoff")
	}
}

func TestHistoryTruncated(t *testing.T) {
	full := testHistory("ghcnd-daily", 2)
	if historyTruncated(full) {
		t.Error("chain ending at the root should not be truncated")
	}

	cut := testHistory("ghcnd-daily", 3)
	cut.Snapshots = cut.Snapshots[:1]
	if !historyTruncated(cut) {
		t.Error("chain cut before the root should be truncated")
	}

	if historyTruncated(History{}) {
		t.Error("empty history should not be truncated")
	}
}

func TestFormatPayloadSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}
	for _, tt := range tests {
		if got := formatPayloadSize(tt.bytes); got != tt.want {
			t.Errorf("formatPayloadSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
