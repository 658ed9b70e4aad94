// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package browse

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/junegunn/fzf/src/util"

	"github.com/strata-data/strata/lib/dataset"
)

// FilterModel implements fzf-style fuzzy matching over dataset keys.
// The filter narrows the list client-side without round-tripping to
// the registry.
type FilterModel struct {
	// Input is the current filter query text.
	Input string

	// Active is true when the filter input has keyboard focus
	// (the user pressed / to start typing).
	Active bool
}

// KeyMatch pairs a dataset key with its fuzzy match score and the
// matched rune positions within the key text. Positions feed the
// list renderer's character-level match highlighting.
type KeyMatch struct {
	Key       dataset.Key
	Score     int
	Positions []int
}

// ApplyFuzzy scores every key against the current filter text and
// returns the matches sorted by descending score, ties keeping their
// input order. An empty filter matches every key with a zero score
// and no positions.
func (filter *FilterModel) ApplyFuzzy(keys []dataset.Key) []KeyMatch {
	if filter.Input == "" {
		matches := make([]KeyMatch, len(keys))
		for index, key := range keys {
			matches[index] = KeyMatch{Key: key}
		}
		return matches
	}

	pattern := []rune(filter.Input)
	slab := util.MakeSlab(slab16Size, slab32Size)

	var matches []KeyMatch
	for _, key := range keys {
		result := fuzzyMatch(string(key), pattern, slab)
		if result.Score <= 0 {
			continue
		}
		matches = append(matches, KeyMatch{
			Key:       key,
			Score:     result.Score,
			Positions: result.Positions,
		})
	}

	slices.SortStableFunc(matches, func(a, b KeyMatch) int {
		return b.Score - a.Score
	})
	return matches
}

// HandleRune processes a character typed while the filter is active.
// Returns true if the input changed.
func (filter *FilterModel) HandleRune(character rune) bool {
	filter.Input += string(character)
	return true
}

// HandleBackspace removes the last character from the filter input.
// Returns true if the input changed.
func (filter *FilterModel) HandleBackspace() bool {
	if len(filter.Input) == 0 {
		return false
	}
	runes := []rune(filter.Input)
	filter.Input = string(runes[:len(runes)-1])
	return true
}

// Clear resets the filter input and deactivates it.
func (filter *FilterModel) Clear() {
	filter.Input = ""
	filter.Active = false
}

// View renders the filter bar. When active, shows the input with a
// cursor. When inactive with text, shows the filter text. When
// inactive with no text, returns empty string (hidden).
func (filter *FilterModel) View(theme Theme, width int) string {
	if !filter.Active && filter.Input == "" {
		return ""
	}

	style := lipgloss.NewStyle().
		Foreground(theme.NormalText).
		Width(width)

	if filter.Active {
		cursor := lipgloss.NewStyle().
			Foreground(theme.HeaderForeground).
			Bold(true).
			Render("▎")
		return style.Render(" / " + filter.Input + cursor)
	}

	// Inactive but has text — show the filter as a subtle indicator.
	dimStyle := lipgloss.NewStyle().
		Foreground(theme.FaintText).
		Width(width)
	return dimStyle.Render(" filter: " + filter.Input)
}
