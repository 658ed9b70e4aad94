// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/strata-data/strata/lib/dataset"
)

// snapshotView is the output shape shared by the snapshot display
// commands. It flattens the predecessor link and omits what the
// producer left unset.
type snapshotView struct {
	ID          dataset.ContentID `json:"id"`
	Dataset     string            `json:"dataset,omitempty"`
	CreatedAt   dataset.Timestamp `json:"created_at"`
	Payload     dataset.ContentID `json:"payload"`
	Size        int64             `json:"size,omitempty"`
	Description string            `json:"description,omitempty"`
	Previous    string            `json:"previous,omitempty"`
}

func viewOf(snapshot *dataset.VersionSnapshot) snapshotView {
	view := snapshotView{
		ID:          snapshot.ID,
		Dataset:     snapshot.Dataset,
		CreatedAt:   snapshot.CreatedAt,
		Payload:     snapshot.Payload,
		Size:        snapshot.Size,
		Description: snapshot.Description,
	}
	if previous, ok := snapshot.Previous(); ok {
		view.Previous = previous.String()
	}
	return view
}

// parseAsOf parses the --as-of flag value. Accepts three formats:
//   - Go duration strings: "1h", "30m" — resolved relative to now
//   - Day suffixes: "7d", "30d" — shorthand for multiples of 24h
//   - Timestamps: RFC3339 ("2026-03-01T12:00:00Z") or date-only
//     ("2026-03-01", midnight UTC)
//
// Duration-based values are subtracted from the current time, so
// "24h" means "as of a day ago".
func parseAsOf(value string) (time.Time, error) {
	// Day suffix first: not handled by time.ParseDuration.
	if strings.HasSuffix(value, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(value, "d"))
		if err == nil && days > 0 {
			return time.Now().Add(-time.Duration(days) * 24 * time.Hour), nil
		}
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return time.Now().Add(-duration), nil
	}
	if timestamp, err := time.Parse(time.RFC3339, value); err == nil {
		return timestamp, nil
	}
	if timestamp, err := time.Parse("2006-01-02", value); err == nil {
		return timestamp, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q: expected duration (1h, 7d), RFC3339 timestamp, or date (2006-01-02)", value)
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(1<<10))
	case bytes > 0:
		return fmt.Sprintf("%d B", bytes)
	default:
		return "-"
	}
}

// truncate shortens a string to maxLength, appending "..." if truncated.
func truncate(value string, maxLength int) string {
	if len(value) <= maxLength {
		return value
	}
	if maxLength <= 3 {
		return value[:maxLength]
	}
	return value[:maxLength-3] + "..."
}

// firstLine returns the first line of a possibly multi-line string.
// Descriptions are markdown documents; tables show only their opening
// line.
func firstLine(value string) string {
	for index, r := range value {
		if r == '\n' {
			return value[:index]
		}
	}
	return value
}
