// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package browse

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/strata-data/strata/lib/dataset"
)

// ListRenderer handles row rendering for the dataset list pane within
// a given width.
type ListRenderer struct {
	theme Theme
	width int
}

// NewListRenderer creates a ListRenderer for the given width.
func NewListRenderer(theme Theme, width int) ListRenderer {
	return ListRenderer{theme: theme, width: width}
}

// RenderRow renders a single dataset key as a list row. The selected
// flag controls highlight styling. matchPositions contains rune
// indices in the key that matched the current fuzzy filter query;
// when non-empty, those characters get the match background (or
// bold+underline on the selected row, where a background tint would
// disappear against the selection color).
func (renderer ListRenderer) RenderRow(key dataset.Key, selected bool, matchPositions []int) string {
	// Reserve one leading space and one trailing before the scrollbar.
	available := renderer.width - 2
	if available < 4 {
		available = 4
	}

	text := string(key)
	if lipgloss.Width(text) > available {
		text = truncateString(text, available-1) + "…"
	}

	if selected {
		baseStyle := lipgloss.NewStyle().
			Background(renderer.theme.SelectedBackground).
			Foreground(renderer.theme.SelectedForeground)
		highlightStyle := baseStyle.Bold(true).Underline(true)
		row := " " + highlightRunes(text, matchPositions, baseStyle, highlightStyle)
		return baseStyle.Width(renderer.width).MaxWidth(renderer.width).Render(row)
	}

	baseStyle := lipgloss.NewStyle().Foreground(renderer.theme.NormalText)
	highlightStyle := lipgloss.NewStyle().
		Foreground(renderer.theme.NormalText).
		Background(renderer.theme.MatchBackground)
	row := " " + highlightRunes(text, matchPositions, baseStyle, highlightStyle)
	return lipgloss.NewStyle().Width(renderer.width).MaxWidth(renderer.width).Render(row)
}

// highlightRunes renders text with character-level highlighting at the
// given rune positions. Positions past the end of text (truncated
// away) are ignored. Consecutive runs of same-style characters are
// batched into a single Render call to keep ANSI output compact.
func highlightRunes(text string, positions []int, baseStyle, highlightStyle lipgloss.Style) string {
	if len(positions) == 0 {
		return baseStyle.Render(text)
	}

	positionSet := make(map[int]bool, len(positions))
	for _, position := range positions {
		positionSet[position] = true
	}

	runes := []rune(text)
	var result strings.Builder
	runStart := 0
	isHighlighted := positionSet[0]

	for index := 1; index <= len(runes); index++ {
		currentHighlighted := index < len(runes) && positionSet[index]
		if currentHighlighted != isHighlighted || index == len(runes) {
			chunk := string(runes[runStart:index])
			if isHighlighted {
				result.WriteString(highlightStyle.Render(chunk))
			} else {
				result.WriteString(baseStyle.Render(chunk))
			}
			runStart = index
			isHighlighted = currentHighlighted
		}
	}

	return result.String()
}

// truncateString truncates a string to maxWidth visual characters.
// Handles multi-byte characters via lipgloss width measurement.
func truncateString(text string, maxWidth int) string {
	if lipgloss.Width(text) <= maxWidth {
		return text
	}
	runes := []rune(text)
	for length := len(runes) - 1; length >= 0; length-- {
		candidate := string(runes[:length])
		if lipgloss.Width(candidate) <= maxWidth {
			return candidate
		}
	}
	return ""
}
