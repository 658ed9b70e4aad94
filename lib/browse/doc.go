// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package browse implements a terminal user interface for exploring
// datasets and their version chains. Built on bubbletea (Elm
// architecture), it provides a split-pane view with a fuzzy-filterable
// dataset list on the left and a scrollable version history on the
// right, connected to the resolution stack via the [Source] interface.
//
// The Source abstraction decouples the TUI from the data backend:
// [ChainSource] wires the registry resolver, gateway client, and chain
// walker together for live use, while tests substitute an in-memory
// fake. Both the dataset list and each version history load
// asynchronously through bubbletea commands, so a slow registry or
// gateway never blocks keystrokes.
//
// Data flow:
//
//	[registry / gateway]
//	        | (Source interface)
//	    [Model] <- bubbletea event loop
//	        |
//	  [terminal output]
package browse
