// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package browse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/strata-data/strata/lib/dataset"
)

// FocusRegion identifies which pane has keyboard focus.
type FocusRegion int

const (
	// FocusList means navigation keys move the dataset list cursor.
	FocusList FocusRegion = iota
	// FocusDetail means navigation keys scroll the history viewport.
	FocusDetail
	// FocusFilter means keystrokes go to the filter input.
	FocusFilter
)

// Split ratio bounds and step size.
const (
	splitRatioMin     = 0.20
	splitRatioMax     = 0.80
	splitRatioStep    = 0.05
	splitRatioDefault = 0.40
)

// defaultHistoryLimit caps how many snapshots one detail load walks.
// Long chains show the newest versions plus a truncation note.
const defaultHistoryLimit = 50

// sourceTimeout bounds each source call issued from the event loop.
// The UI stays responsive while a fetch runs; this only prevents an
// unreachable gateway from pinning a load forever.
const sourceTimeout = 30 * time.Second

// datasetsMsg delivers the registry listing (or its failure) to the
// event loop.
type datasetsMsg struct {
	keys []dataset.Key
	err  error
}

// historyMsg delivers one dataset's version history (or its failure).
// key identifies which request this answers: responses for a dataset
// the user has already moved away from are dropped.
type historyMsg struct {
	key     dataset.Key
	history History
	err     error
}

// Model is the bubbletea model for the dataset browser: a fuzzy-
// filterable dataset list on the left and the selected dataset's
// version history on the right.
type Model struct {
	source Source
	theme  Theme
	keys   KeyMap

	width  int
	height int
	ready  bool

	// loading covers the initial registry listing; loadErr holds the
	// most recent listing failure (initial or refresh).
	loading bool
	loadErr error

	// datasets is the full registry listing; visible is the filtered
	// view of it the list pane shows. highlights carries the fuzzy
	// match positions for each visible key.
	datasets   []dataset.Key
	visible    []dataset.Key
	highlights map[dataset.Key][]int

	filter       FilterModel
	cursor       int
	scrollOffset int

	// selectedKey survives refilters and refreshes: restoreSelection
	// moves the cursor back to it when it is still visible.
	selectedKey dataset.Key

	focusRegion FocusRegion
	priorFocus  FocusRegion

	splitRatio float64
	detailPane DetailPane

	historyLimit int
}

// NewModel creates a browser over source. The caller runs it with
// tea.NewProgram.
func NewModel(source Source) Model {
	theme := DefaultTheme
	return Model{
		source:       source,
		theme:        theme,
		keys:         DefaultKeyMap,
		loading:      true,
		splitRatio:   splitRatioDefault,
		detailPane:   NewDetailPane(theme),
		historyLimit: defaultHistoryLimit,
	}
}

// SetHistoryLimit overrides how many snapshots a detail load walks.
// Values below 1 keep the default.
func (model *Model) SetHistoryLimit(limit int) {
	if limit >= 1 {
		model.historyLimit = limit
	}
}

// Init implements tea.Model. Kicks off the registry listing.
func (model Model) Init() tea.Cmd {
	return model.loadDatasets()
}

// loadDatasets returns a tea.Cmd that lists the registry off the
// event loop.
func (model Model) loadDatasets() tea.Cmd {
	source := model.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sourceTimeout)
		defer cancel()
		keys, err := source.Datasets(ctx)
		return datasetsMsg{keys: keys, err: err}
	}
}

// loadHistory returns a tea.Cmd that fetches one dataset's version
// history off the event loop.
func (model Model) loadHistory(key dataset.Key) tea.Cmd {
	source := model.source
	limit := model.historyLimit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sourceTimeout)
		defer cancel()
		history, err := source.History(ctx, key, limit)
		return historyMsg{key: key, history: history, err: err}
	}
}

// Update implements tea.Model. Routes keyboard events based on the
// current focus region and handles layout changes.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		// When filter is active, route all input to the filter first,
		// except for Esc (clear) and Enter (confirm and return to list).
		if model.focusRegion == FocusFilter {
			return model.handleFilterKeys(message)
		}

		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit

		case key.Matches(message, model.keys.FocusToggle):
			if model.focusRegion == FocusList {
				model.focusRegion = FocusDetail
			} else {
				model.focusRegion = FocusList
			}

		case key.Matches(message, model.keys.SplitGrow):
			model.splitRatio += splitRatioStep
			if model.splitRatio > splitRatioMax {
				model.splitRatio = splitRatioMax
			}
			model.updatePaneSizes()

		case key.Matches(message, model.keys.SplitShrink):
			model.splitRatio -= splitRatioStep
			if model.splitRatio < splitRatioMin {
				model.splitRatio = splitRatioMin
			}
			model.updatePaneSizes()

		case key.Matches(message, model.keys.FilterActivate):
			model.priorFocus = model.focusRegion
			model.focusRegion = FocusFilter
			model.filter.Active = true
			// Reset list position to the top so the user sees
			// results from the beginning as they type.
			model.cursor = 0
			model.scrollOffset = 0
			command := model.syncDetail()
			return model, command

		case key.Matches(message, model.keys.FilterClear):
			if model.filter.Input != "" {
				model.filter.Clear()
				command := model.applyFilter()
				return model, command
			}

		case key.Matches(message, model.keys.Refresh):
			command := model.refresh()
			return model, command

		default:
			if model.focusRegion == FocusList {
				command := model.handleListKeys(message)
				return model, command
			}
			model.handleDetailKeys(message)
		}

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.updatePaneSizes()
		model.ensureCursorVisible()

	case datasetsMsg:
		command := model.handleDatasets(message)
		return model, command

	case historyMsg:
		model.handleHistory(message)
	}
	return model, nil
}

// handleFilterKeys processes keystrokes while the filter input has
// focus.
func (model Model) handleFilterKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		// ctrl+c always quits, even in filter mode.
		if message.Type == tea.KeyCtrlC {
			return model, tea.Quit
		}
		// 'q' is a regular character in filter mode.
		model.filter.HandleRune('q')
		command := model.applyFilter()
		return model, command

	case key.Matches(message, model.keys.FilterClear):
		// Esc: if there's filter text, clear it; if already empty,
		// exit filter mode.
		if model.filter.Input != "" {
			model.filter.Clear()
			command := model.applyFilter()
			return model, command
		}
		model.filter.Active = false
		model.focusRegion = model.priorFocus
		return model, nil

	case message.Type == tea.KeyEnter:
		// Confirm filter and return focus to the list.
		model.filter.Active = false
		model.focusRegion = FocusList
		return model, nil

	case message.Type == tea.KeyBackspace:
		if model.filter.HandleBackspace() {
			command := model.applyFilter()
			return model, command
		}
		return model, nil

	case message.Type == tea.KeyRunes || message.Type == tea.KeySpace:
		for _, character := range message.Runes {
			model.filter.HandleRune(character)
		}
		command := model.applyFilter()
		return model, command
	}

	return model, nil
}

// handleListKeys processes navigation keys when the list has focus.
// Returns a history fetch command when the selection changed.
func (model *Model) handleListKeys(message tea.KeyMsg) tea.Cmd {
	previousCursor := model.cursor

	switch {
	case key.Matches(message, model.keys.Up):
		if model.cursor > 0 {
			model.cursor--
		}

	case key.Matches(message, model.keys.Down):
		if model.cursor < len(model.visible)-1 {
			model.cursor++
		}

	case key.Matches(message, model.keys.PageUp):
		target := model.cursor - model.visibleHeight()
		if target < 0 {
			target = 0
		}
		model.cursor = model.clampedIndex(target)

	case key.Matches(message, model.keys.PageDown):
		target := model.cursor + model.visibleHeight()
		if len(model.visible) > 0 && target >= len(model.visible) {
			target = len(model.visible) - 1
		}
		model.cursor = model.clampedIndex(target)

	case key.Matches(message, model.keys.Home):
		model.cursor = 0

	case key.Matches(message, model.keys.End):
		if len(model.visible) > 0 {
			model.cursor = len(model.visible) - 1
		}
	}

	model.ensureCursorVisible()

	if model.cursor != previousCursor {
		return model.syncDetail()
	}
	return nil
}

// handleDetailKeys processes navigation keys when the detail pane has
// focus.
func (model *Model) handleDetailKeys(message tea.KeyMsg) {
	switch {
	case key.Matches(message, model.keys.Up):
		model.detailPane.viewport.LineUp(1)
	case key.Matches(message, model.keys.Down):
		model.detailPane.viewport.LineDown(1)
	case key.Matches(message, model.keys.PageUp):
		model.detailPane.ScrollUp()
	case key.Matches(message, model.keys.PageDown):
		model.detailPane.ScrollDown()
	case key.Matches(message, model.keys.Home):
		model.detailPane.viewport.GotoTop()
	case key.Matches(message, model.keys.End):
		model.detailPane.viewport.GotoBottom()
	}
}

// refresh reloads the registry listing and, when a dataset is on
// display, refetches its history.
func (model *Model) refresh() tea.Cmd {
	commands := []tea.Cmd{model.loadDatasets()}
	if model.selectedKey != "" {
		model.detailPane.SetLoading(model.selectedKey)
		commands = append(commands, model.loadHistory(model.selectedKey))
	}
	return tea.Batch(commands...)
}

// handleDatasets installs a fresh registry listing. A refresh failure
// keeps the previous listing and surfaces the error in the help bar.
func (model *Model) handleDatasets(message datasetsMsg) tea.Cmd {
	model.loading = false
	if message.err != nil {
		model.loadErr = message.err
		return nil
	}
	model.loadErr = nil
	model.datasets = message.keys
	return model.applyFilter()
}

// handleHistory installs a loaded history in the detail pane, dropping
// responses for datasets the user has already moved away from.
func (model *Model) handleHistory(message historyMsg) {
	if message.key != model.selectedKey {
		return
	}
	if message.err != nil {
		model.detailPane.SetError(message.key, message.err)
		return
	}
	model.detailPane.SetHistory(message.history)
}

// applyFilter recomputes the visible list from the full listing and
// the current filter text.
func (model *Model) applyFilter() tea.Cmd {
	if model.filter.Input != "" {
		matches := model.filter.ApplyFuzzy(model.datasets)
		model.visible = make([]dataset.Key, len(matches))
		model.highlights = make(map[dataset.Key][]int, len(matches))
		for index, match := range matches {
			model.visible[index] = match.Key
			if len(match.Positions) > 0 {
				model.highlights[match.Key] = match.Positions
			}
		}
	} else {
		model.visible = model.datasets
		model.highlights = nil
	}

	// When actively filtering, snap to the top of the list so the
	// highest-scored matches are visible as the user types. Otherwise
	// keep the cursor on the previously selected dataset.
	if model.filter.Input != "" {
		model.cursor = 0
		model.scrollOffset = 0
	} else {
		model.restoreSelection()
	}
	model.ensureCursorVisible()
	return model.syncDetail()
}

// restoreSelection moves the cursor back to the selected dataset, or
// clamps it when the dataset is no longer visible.
func (model *Model) restoreSelection() {
	if model.selectedKey == "" {
		model.cursor = 0
		return
	}
	for index, key := range model.visible {
		if key == model.selectedKey {
			model.cursor = index
			return
		}
	}
	model.cursor = model.clampedIndex(model.cursor)
}

// clampedIndex returns position clamped to valid list bounds.
func (model *Model) clampedIndex(position int) int {
	if len(model.visible) == 0 {
		return 0
	}
	if position < 0 {
		return 0
	}
	if position >= len(model.visible) {
		return len(model.visible) - 1
	}
	return position
}

// syncDetail points the detail pane at the dataset under the cursor,
// returning a fetch command when its history is not already on
// display or in flight.
func (model *Model) syncDetail() tea.Cmd {
	if model.cursor < 0 || model.cursor >= len(model.visible) {
		model.selectedKey = ""
		model.detailPane.Clear()
		return nil
	}

	key := model.visible[model.cursor]
	model.selectedKey = key
	if model.detailPane.Key() == key {
		return nil
	}
	model.detailPane.SetLoading(key)
	return model.loadHistory(key)
}

// contentStartY returns the Y coordinate where the content area
// begins. The top chrome line is always exactly 1 row: either the
// header bar (normal) or the filter bar (when filter is active). The
// filter bar replaces the header bar rather than pushing content down.
func (model Model) contentStartY() int {
	return 1
}

// visibleHeight returns the number of list rows that fit between the
// chrome elements: the top chrome line plus the bottom separator (1)
// and help bar (1).
func (model Model) visibleHeight() int {
	return model.height - model.contentStartY() - 2
}

// listWidth returns the width of the list pane in columns.
func (model Model) listWidth() int {
	return int(float64(model.width) * model.splitRatio)
}

// updatePaneSizes recalculates pane dimensions after a resize or
// split ratio change.
func (model *Model) updatePaneSizes() {
	contentHeight := model.visibleHeight()
	// 1 column for the vertical divider between panes.
	detailWidth := model.width - model.listWidth() - 1
	if detailWidth < 10 {
		detailWidth = 10
	}
	model.detailPane.SetSize(detailWidth, contentHeight)
}

// ensureCursorVisible adjusts scrollOffset so the cursor is within
// the visible window.
func (model *Model) ensureCursorVisible() {
	visible := model.visibleHeight()
	if visible <= 0 {
		return
	}

	// Clamp scrollOffset so we never scroll past the end of the list.
	// This handles refilters where the new list is shorter than the
	// old scrollOffset.
	maxOffset := len(model.visible) - visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if model.scrollOffset > maxOffset {
		model.scrollOffset = maxOffset
	}

	if model.cursor < model.scrollOffset {
		model.scrollOffset = model.cursor
	}
	if model.cursor >= model.scrollOffset+visible {
		model.scrollOffset = model.cursor - visible + 1
	}
}

// View implements tea.Model. Renders the full frame with two panes.
func (model Model) View() string {
	if !model.ready {
		return "Loading..."
	}

	if len(model.visible) == 0 && model.filter.Input == "" {
		return model.renderEmpty()
	}

	var sections []string

	// Top chrome line: either the header bar or the filter bar. The
	// filter bar replaces the header bar so the layout doesn't shift.
	filterView := model.filter.View(model.theme, model.width)
	if filterView != "" {
		sections = append(sections, filterView)
	} else {
		sections = append(sections, model.renderHeader())
	}

	// Two-pane content area with vertical divider.
	listView := model.renderListPane()
	divider := model.renderDivider()
	detailFocused := model.focusRegion == FocusDetail
	detailView := model.detailPane.View(detailFocused)
	contentArea := lipgloss.JoinHorizontal(lipgloss.Top, listView, divider, detailView)
	sections = append(sections, contentArea)

	// Bottom separator.
	separator := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.Repeat("─", model.width))
	sections = append(sections, separator)

	sections = append(sections, model.renderHelp())

	return strings.Join(sections, "\n")
}

// renderEmpty renders the full-screen state before any datasets are
// on display: still loading, listing failed, or the registry is empty.
func (model Model) renderEmpty() string {
	var text string
	style := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	switch {
	case model.loading:
		text = "Loading datasets..."
	case model.loadErr != nil:
		style = lipgloss.NewStyle().Foreground(model.theme.ErrorText)
		text = "Error: " + model.loadErr.Error()
	default:
		text = "No datasets in the registry."
	}

	return lipgloss.Place(
		model.width, model.height,
		lipgloss.Center, lipgloss.Center,
		style.Render(text),
	)
}

// renderHeader renders the top chrome as a single line in the btop
// style: the pane label embedded in a horizontal rule with the
// dataset count on the right.
//
// Example: ─── datasets ──────────────────────────── 12 datasets ─
func (model Model) renderHeader() string {
	separatorStyle := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor)
	labelStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(model.theme.HeaderForeground)
	statsStyle := lipgloss.NewStyle().
		Foreground(model.theme.FaintText)

	sep := separatorStyle.Render("─")

	label := "datasets"
	leftParts := sep + sep + sep + " " + labelStyle.Render(label) + " " + sep
	cursor := 3 + 1 + lipgloss.Width(label) + 1 + 1

	count := len(model.datasets)
	statsText := fmt.Sprintf("%d dataset", count)
	if count != 1 {
		statsText += "s"
	}
	statsWidth := lipgloss.Width(statsText)

	// Fill the gap between the label and the count with separator
	// chars, leaving 1 space on each side of the count.
	rightPortion := " " + statsStyle.Render(statsText) + " " + sep
	rightWidth := 1 + statsWidth + 1 + 1

	fillCount := model.width - cursor - rightWidth
	if fillCount < 1 {
		fillCount = 1
	}
	fill := strings.Repeat("─", fillCount)

	return leftParts + separatorStyle.Render(fill) + rightPortion
}

// renderListPane renders the dataset list column with its scrollbar.
func (model Model) renderListPane() string {
	listWidth := model.listWidth()

	// Reserve 1 column for the scrollbar so content stays at a fixed
	// position regardless of scroll state.
	focused := model.focusRegion == FocusList
	rowWidth := listWidth - 1

	renderer := NewListRenderer(model.theme, rowWidth)

	visible := model.visibleHeight()
	if visible < 0 {
		visible = 0
	}

	var rows []string
	for index := model.scrollOffset; index < model.scrollOffset+visible && index < len(model.visible); index++ {
		key := model.visible[index]
		rows = append(rows, renderer.RenderRow(key, index == model.cursor, model.highlights[key]))
	}

	// Pad empty rows.
	rendered := len(rows)
	if rendered < visible {
		emptyStyle := lipgloss.NewStyle().Width(rowWidth)
		for padding := rendered; padding < visible; padding++ {
			rows = append(rows, emptyStyle.Render(""))
		}
	}

	scrollbar := renderScrollbar(
		model.theme, visible,
		len(model.visible), visible, model.scrollOffset,
		focused,
	)

	contentStyle := lipgloss.NewStyle().
		Width(rowWidth).
		Height(visible)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		contentStyle.Render(strings.Join(rows, "\n")),
		scrollbar,
	)
}

// renderDivider renders the single-column vertical divider between
// the list and detail panes.
func (model Model) renderDivider() string {
	visible := model.visibleHeight()
	if visible < 0 {
		visible = 0
	}

	dividerStyle := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor)

	lines := make([]string, visible)
	for index := range lines {
		lines[index] = "│"
	}

	return dividerStyle.Width(1).Height(visible).Render(strings.Join(lines, "\n"))
}

// renderHelp renders the bottom help bar with key hints and position.
func (model Model) renderHelp() string {
	style := lipgloss.NewStyle().Foreground(model.theme.HelpText)

	focusIndicator := "LIST"
	switch model.focusRegion {
	case FocusDetail:
		focusIndicator = "DETAIL"
	case FocusFilter:
		focusIndicator = "FILTER"
	}

	help := fmt.Sprintf(" [%s] q quit  ↑↓ navigate  Tab focus  ]/[ resize  / filter  r refresh",
		focusIndicator)

	if len(model.visible) > model.visibleHeight() {
		position := ""
		if model.scrollOffset == 0 {
			position = "top"
		} else if model.scrollOffset+model.visibleHeight() >= len(model.visible) {
			position = "bottom"
		} else {
			percent := float64(model.scrollOffset) / float64(len(model.visible)-model.visibleHeight()) * 100
			position = fmt.Sprintf("%d%%", int(percent))
		}
		help += fmt.Sprintf("  [%s] %d/%d", position, model.cursor+1, len(model.visible))
	} else if len(model.visible) > 0 {
		help += fmt.Sprintf("  %d/%d", model.cursor+1, len(model.visible))
	}

	// Surface a refresh failure without leaving the browser.
	if model.loadErr != nil && len(model.datasets) > 0 {
		errorStyle := lipgloss.NewStyle().
			Foreground(model.theme.ErrorText).
			Bold(true)
		help += "  " + errorStyle.Render("Error: "+model.loadErr.Error())
	}

	return style.Render(help)
}
