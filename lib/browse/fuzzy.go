// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package browse

import (
	"unicode"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// Slab sizes for fzf's scratch allocator, matching the sizes fzf
// itself uses. One slab serves a whole matching pass over the list.
const (
	slab16Size = 100 * 1024
	slab32Size = 2048
)

func init() {
	// FuzzyMatchV2 consults character-class tables that Init builds;
	// without this, any text with uppercase runes scores zero.
	if !algo.Init("default") {
		panic("browse: initializing fzf matcher scheme")
	}
}

// FuzzyResult is the outcome of matching a pattern against one text.
// A zero Score means no match; Positions holds the matched rune
// indices in the text when the match succeeded.
type FuzzyResult struct {
	Score     int
	Positions []int
}

// fuzzyMatch scores pattern against text using fzf's FuzzyMatchV2.
// Matching is case-insensitive: the pattern is lowercased here and
// the algorithm folds the text. Pass a shared slab when matching many
// candidates in a loop; nil allocates per call.
func fuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{}
	}

	lowered := make([]rune, len(pattern))
	for index, character := range pattern {
		lowered[index] = unicode.ToLower(character)
	}

	chars := util.ToChars([]byte(text))
	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, lowered, true, slab)
	if result.Score <= 0 {
		return FuzzyResult{}
	}

	match := FuzzyResult{Score: result.Score}
	if positions != nil {
		match.Positions = *positions
	}
	return match
}
