// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package browse

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for the dataset browser. All colors
// use lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Accent for focused chrome: the scrollbar thumb of whichever
	// pane owns keyboard input.
	FocusAccent lipgloss.Color

	// Version markers in the history pane. The head snapshot gets the
	// head accent; its predecessors get the chain accent.
	HeadAccent  lipgloss.Color
	ChainAccent lipgloss.Color

	// Filter match highlighting: background tint for matched
	// characters in the dataset list.
	MatchBackground lipgloss.Color

	// Failed loads (registry unreachable, broken chain).
	ErrorText lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme. Designed
// for 256-color terminals with a dark background.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	FocusAccent: lipgloss.Color("220"), // amber

	HeadAccent:  lipgloss.Color("114"), // green
	ChainAccent: lipgloss.Color("245"), // gray

	MatchBackground: lipgloss.Color("58"), // dark amber

	ErrorText: lipgloss.Color("196"), // bright red
}
