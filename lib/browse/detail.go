// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package browse

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/strata-data/strata/lib/dataset"
)

// detailHeaderLines is the fixed number of lines consumed by the
// detail pane header: dataset key, pointer, status, and a separator.
const detailHeaderLines = 4

// DetailPane wraps a bubbles viewport for scrollable version history.
// A fixed header ([detailHeaderLines] tall) sits above the viewport;
// the snapshot chain scrolls below it.
type DetailPane struct {
	viewport viewport.Model
	theme    Theme
	width    int
	height   int

	// Displayed state. key is set as soon as a dataset is selected;
	// history and loadErr arrive later from the source. Retained for
	// re-rendering when the pane width changes.
	key     dataset.Key
	history *History
	loadErr error
	loading bool

	// Pre-rendered header, rebuilt whenever state or width changes.
	header string
}

// NewDetailPane creates an empty detail pane.
func NewDetailPane(theme Theme) DetailPane {
	return DetailPane{theme: theme}
}

// Key returns the dataset key the pane currently shows (or is loading).
func (pane DetailPane) Key() dataset.Key {
	return pane.key
}

// HasHistory reports whether loaded history is on display, as opposed
// to a loading placeholder, an error, or nothing.
func (pane DetailPane) HasHistory() bool {
	return pane.history != nil
}

// bodyHeight returns the number of lines available for the scrollable
// viewport body.
func (pane DetailPane) bodyHeight() int {
	result := pane.height - detailHeaderLines
	if result < 1 {
		result = 1
	}
	return result
}

// contentWidth returns the usable width for text content (total width
// minus the left padding column and right scrollbar column).
func (pane DetailPane) contentWidth() int {
	return pane.width - 2
}

// SetSize updates the pane dimensions. A width change re-renders the
// displayed content so markdown wrapping follows the splitter.
func (pane *DetailPane) SetSize(width, height int) {
	previousWidth := pane.width
	pane.width = width
	pane.height = height
	pane.viewport.Width = pane.contentWidth()
	pane.viewport.Height = pane.bodyHeight()

	if pane.key != "" && width != previousWidth {
		pane.rerender()
	}
}

// SetLoading switches the pane to a loading placeholder for key. The
// pointer and history are not known yet.
func (pane *DetailPane) SetLoading(key dataset.Key) {
	pane.key = key
	pane.history = nil
	pane.loadErr = nil
	pane.loading = true
	pane.render()
	pane.viewport.GotoTop()
}

// SetHistory displays a loaded version history.
func (pane *DetailPane) SetHistory(history History) {
	pane.key = history.Key
	pane.history = &history
	pane.loadErr = nil
	pane.loading = false
	pane.render()
	pane.viewport.GotoTop()
}

// SetError displays a load failure for key.
func (pane *DetailPane) SetError(key dataset.Key, err error) {
	pane.key = key
	pane.history = nil
	pane.loadErr = err
	pane.loading = false
	pane.render()
	pane.viewport.GotoTop()
}

// Clear removes the pane content.
func (pane *DetailPane) Clear() {
	pane.key = ""
	pane.history = nil
	pane.loadErr = nil
	pane.loading = false
	pane.header = ""
	pane.viewport.SetContent("")
}

// ScrollUp scrolls the body up by half a page.
func (pane *DetailPane) ScrollUp() {
	pane.viewport.HalfViewUp()
}

// ScrollDown scrolls the body down by half a page.
func (pane *DetailPane) ScrollDown() {
	pane.viewport.HalfViewDown()
}

// render rebuilds the header and viewport content from current state.
func (pane *DetailPane) render() {
	renderer := newHistoryRenderer(pane.theme, pane.contentWidth())
	pane.header = renderer.renderHeader(pane.key, pane.history, pane.loading, pane.loadErr)

	body := renderer.renderBody(pane.history, pane.loadErr)
	// Constrain every body line to the viewport width; markdown is
	// already wrapped, but meta lines could exceed a narrow pane.
	if body != "" {
		body = lipgloss.NewStyle().Width(pane.contentWidth()).Render(body)
	}
	pane.viewport.SetContent(body)
}

// rerender regenerates the content at the current width, preserving
// the scroll position as closely as possible.
func (pane *DetailPane) rerender() {
	previousOffset := pane.viewport.YOffset
	pane.render()

	maxOffset := pane.viewport.TotalLineCount() - pane.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if previousOffset > maxOffset {
		previousOffset = maxOffset
	}
	pane.viewport.SetYOffset(previousOffset)
}

// View renders the pane as a docked panel: fixed header, scrollable
// body, left padding column, and a right scrollbar that covers only
// the body rows it scrolls.
func (pane DetailPane) View(focused bool) string {
	contentWidth := pane.contentWidth()

	if pane.key == "" {
		emptyStyle := lipgloss.NewStyle().
			Foreground(pane.theme.FaintText)

		contentStyle := lipgloss.NewStyle().
			PaddingLeft(1).
			Width(pane.width - 1).
			Height(pane.height)

		content := contentStyle.Render(
			lipgloss.Place(
				contentWidth, pane.height,
				lipgloss.Center, lipgloss.Center,
				emptyStyle.Render("Select a dataset to view its history"),
			),
		)

		scrollbar := renderScrollbar(
			pane.theme, pane.height,
			0, pane.height, 0,
			focused,
		)
		return lipgloss.JoinHorizontal(lipgloss.Top, content, scrollbar)
	}

	paddingStyle := lipgloss.NewStyle().
		PaddingLeft(1).
		Width(pane.width - 1)

	headerView := paddingStyle.Height(detailHeaderLines).Render(pane.header)
	bodyView := paddingStyle.Height(pane.bodyHeight()).Render(pane.viewport.View())
	content := headerView + "\n" + bodyView

	// Blank column beside the header so the scrollbar spans exactly
	// the region it scrolls.
	headerColumn := lipgloss.NewStyle().
		Width(1).
		Height(detailHeaderLines).
		Render("")
	bodyScrollbar := renderScrollbar(
		pane.theme, pane.bodyHeight(),
		pane.viewport.TotalLineCount(), pane.viewport.Height, pane.viewport.YOffset,
		focused,
	)
	scrollColumn := headerColumn + "\n" + bodyScrollbar

	return lipgloss.JoinHorizontal(lipgloss.Top, content, scrollColumn)
}

// historyRenderer renders the detail header and the snapshot chain
// body at a fixed width.
type historyRenderer struct {
	theme Theme
	width int
}

func newHistoryRenderer(theme Theme, width int) historyRenderer {
	if width < 10 {
		width = 10
	}
	return historyRenderer{theme: theme, width: width}
}

// renderHeader produces exactly [detailHeaderLines] lines: the dataset
// key, the pointer it resolves through, a status line, and a rule.
func (renderer historyRenderer) renderHeader(key dataset.Key, history *History, loading bool, loadErr error) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(renderer.theme.HeaderForeground)
	faint := lipgloss.NewStyle().Foreground(renderer.theme.FaintText)

	title := titleStyle.Render(truncateString(string(key), renderer.width))

	pointer := ""
	if history != nil {
		pointer = faint.Render(truncateString(string(history.Pointer), renderer.width))
	}

	var status string
	switch {
	case loading:
		status = faint.Render("loading history...")
	case loadErr != nil:
		errorStyle := lipgloss.NewStyle().Foreground(renderer.theme.ErrorText)
		status = errorStyle.Render(truncateString(loadErr.Error(), renderer.width))
	case history != nil:
		status = renderer.renderStatus(*history)
	}

	rule := lipgloss.NewStyle().
		Foreground(renderer.theme.BorderColor).
		Render(strings.Repeat("─", renderer.width))

	return strings.Join([]string{title, pointer, status, rule}, "\n")
}

// renderStatus summarizes a loaded history: version count (with a "+"
// when the chain was cut off at the walk limit) and the head snapshot
// time.
func (renderer historyRenderer) renderStatus(history History) string {
	normal := lipgloss.NewStyle().Foreground(renderer.theme.NormalText)
	faint := lipgloss.NewStyle().Foreground(renderer.theme.FaintText)

	count := len(history.Snapshots)
	if count == 0 {
		return faint.Render("no published versions")
	}

	countText := fmt.Sprintf("%d version", count)
	if count != 1 {
		countText += "s"
	}
	if historyTruncated(history) {
		countText = fmt.Sprintf("%d+ versions", count)
	}

	return normal.Render(countText) +
		faint.Render("  ·  head "+history.Head().CreatedAt.String())
}

// renderBody produces the scrollable chain: one section per snapshot,
// newest first, each with a marker line, a payload line, and the
// version's markdown description.
func (renderer historyRenderer) renderBody(history *History, loadErr error) string {
	if loadErr != nil {
		errorStyle := lipgloss.NewStyle().Foreground(renderer.theme.ErrorText)
		return errorStyle.Width(renderer.width).Render(loadErr.Error())
	}
	if history == nil {
		return ""
	}

	faint := lipgloss.NewStyle().Foreground(renderer.theme.FaintText)
	if len(history.Snapshots) == 0 {
		return faint.Render("This pointer has no published head snapshot.")
	}

	var sections []string
	for index, snapshot := range history.Snapshots {
		sections = append(sections, renderer.renderSnapshot(snapshot, index == 0))
	}
	if historyTruncated(*history) {
		sections = append(sections, faint.Render("… older versions not loaded"))
	}
	return strings.Join(sections, "\n\n")
}

// renderSnapshot renders one version section. The head snapshot gets a
// filled marker in the head accent color; older versions a hollow one.
func (renderer historyRenderer) renderSnapshot(snapshot *dataset.VersionSnapshot, head bool) string {
	normal := lipgloss.NewStyle().Foreground(renderer.theme.NormalText)
	faint := lipgloss.NewStyle().Foreground(renderer.theme.FaintText)

	marker := lipgloss.NewStyle().Foreground(renderer.theme.ChainAccent).Render("○")
	if head {
		marker = lipgloss.NewStyle().Foreground(renderer.theme.HeadAccent).Render("●")
	}

	metaLine := marker + " " +
		normal.Bold(true).Render(snapshot.ID.Short()) +
		faint.Render("  "+snapshot.CreatedAt.String())

	payload := "payload " + snapshot.Payload.Short()
	if snapshot.Size > 0 {
		payload += " · " + formatPayloadSize(snapshot.Size)
	}
	payloadLine := "  " + faint.Render(payload)

	section := metaLine + "\n" + payloadLine
	if description := strings.TrimSpace(snapshot.Description); description != "" {
		section += "\n\n" + renderMarkdown(description, renderer.theme, renderer.width)
	}
	return section
}

// historyTruncated reports whether the oldest loaded snapshot still
// links to a predecessor, meaning the walk stopped at its limit rather
// than at the chain root.
func historyTruncated(history History) bool {
	if len(history.Snapshots) == 0 {
		return false
	}
	oldest := history.Snapshots[len(history.Snapshots)-1]
	_, more := oldest.Previous()
	return more
}

// formatPayloadSize formats a byte count for the payload line.
func formatPayloadSize(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
