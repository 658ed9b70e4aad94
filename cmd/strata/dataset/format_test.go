// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"strings"
	"testing"
	"time"

	"github.com/strata-data/strata/lib/dataset"
)

func TestParseAsOfTimestamps(t *testing.T) {
	tests := []struct {
		value string
		want  time.Time
	}{
		{"2026-03-01T12:00:00Z", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		{"2026-03-01T12:00:00+02:00", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2026-03-01", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := parseAsOf(tt.value)
		if err != nil {
			t.Errorf("parseAsOf(%q) error: %v", tt.value, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseAsOf(%q) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestParseAsOfDurations(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"1h", time.Hour},
		{"30m", 30 * time.Minute},
		{"7d", 7 * 24 * time.Hour},
	}

	for _, tt := range tests {
		before := time.Now()
		got, err := parseAsOf(tt.value)
		if err != nil {
			t.Errorf("parseAsOf(%q) error: %v", tt.value, err)
			continue
		}
		// The result should be roughly now minus the duration; allow a
		// second of slack for the wall clock moving during the test.
		want := before.Add(-tt.want)
		if diff := got.Sub(want); diff < 0 || diff > time.Second {
			t.Errorf("parseAsOf(%q) = %s, want within 1s after %s", tt.value, got, want)
		}
	}
}

func TestParseAsOfRejectsGarbage(t *testing.T) {
	for _, value := range []string{"", "yesterday", "12:00", "-3d", "2026-13-45"} {
		if _, err := parseAsOf(value); err == nil {
			t.Errorf("parseAsOf(%q) = nil error, want failure", value)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "-"},
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
		{5 << 30, "5.0 GB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.bytes); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		value     string
		maxLength int
		want      string
	}{
		{"short", 10, "short"},
		{"exactly ten..", 13, "exactly ten.."},
		{"a description that runs long", 10, "a descr..."},
		{"abc", 2, "ab"},
	}

	for _, tt := range tests {
		if got := truncate(tt.value, tt.maxLength); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.value, tt.maxLength, got, tt.want)
		}
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"single line", "single line"},
		{"# Title\n\nBody text", "# Title"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := firstLine(tt.value); got != tt.want {
			t.Errorf("firstLine(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestViewOfFlattensPredecessor(t *testing.T) {
	previous := dataset.ContentIDFor([]byte("older snapshot"))
	snapshot := &dataset.VersionSnapshot{
		ID:        dataset.ContentIDFor([]byte("snapshot")),
		Dataset:   "ds/ocean-temp",
		CreatedAt: dataset.NewTimestamp(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		Links:     []dataset.Link{{Rel: "previous", Target: previous}},
		Payload:   dataset.ContentIDFor([]byte("payload")),
		Size:      2048,
	}

	view := viewOf(snapshot)
	if view.Previous != previous.String() {
		t.Errorf("view.Previous = %q, want %q", view.Previous, previous)
	}
	if view.ID != snapshot.ID {
		t.Errorf("view.ID = %s, want %s", view.ID, snapshot.ID)
	}
	if !strings.HasPrefix(view.CreatedAt.String(), "2026-03-01") {
		t.Errorf("view.CreatedAt = %s, want the snapshot's creation day", view.CreatedAt)
	}
}

func TestViewOfRootSnapshot(t *testing.T) {
	snapshot := &dataset.VersionSnapshot{
		ID:        dataset.ContentIDFor([]byte("root")),
		CreatedAt: dataset.NewTimestamp(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		Payload:   dataset.ContentIDFor([]byte("payload")),
	}

	if view := viewOf(snapshot); view.Previous != "" {
		t.Errorf("view.Previous = %q, want empty for a root snapshot", view.Previous)
	}
}
