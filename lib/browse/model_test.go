// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package browse

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/strata-data/strata/lib/dataset"
)

// fakeSource is an in-memory Source with injectable failures.
type fakeSource struct {
	keys      []dataset.Key
	histories map[dataset.Key]History

	listErr    error
	historyErr error

	historyCalls int
}

func (source *fakeSource) Datasets(ctx context.Context) ([]dataset.Key, error) {
	if source.listErr != nil {
		return nil, source.listErr
	}
	return source.keys, nil
}

func (source *fakeSource) History(ctx context.Context, key dataset.Key, limit int) (History, error) {
	source.historyCalls++
	if source.historyErr != nil {
		return History{}, source.historyErr
	}
	history, ok := source.histories[key]
	if !ok {
		return History{}, fmt.Errorf("no history for %s", key)
	}
	return history, nil
}

// testHistory builds a linked chain of versions snapshots, newest
// first, with distinct content ids and day-apart creation times.
func testHistory(key dataset.Key, versions int) History {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	var snapshots []*dataset.VersionSnapshot
	var previousID dataset.ContentID
	for index := 0; index < versions; index++ {
		snapshot := &dataset.VersionSnapshot{
			ID:          dataset.ContentIDFor([]byte(fmt.Sprintf("%s-v%d", key, index))),
			Dataset:     string(key),
			CreatedAt:   dataset.NewTimestamp(base.AddDate(0, 0, index)),
			Payload:     dataset.ContentIDFor([]byte(fmt.Sprintf("%s-payload-%d", key, index))),
			Size:        int64(1024 * (index + 1)),
			Description: fmt.Sprintf("Version %d of %s.", index+1, key),
		}
		if index > 0 {
			snapshot.Links = []dataset.Link{{Rel: "previous", Target: previousID}}
		}
		previousID = snapshot.ID
		snapshots = append(snapshots, snapshot)
	}
	slices.Reverse(snapshots)

	return History{
		Key:       key,
		Pointer:   dataset.Pointer("ptr/" + string(key)),
		Snapshots: snapshots,
	}
}

// newTestSource creates a fake source over the standard test keys,
// with 3 versions for the first key and 1 for the rest.
func newTestSource() *fakeSource {
	keys := testDatasetKeys()
	histories := make(map[dataset.Key]History, len(keys))
	for index, key := range keys {
		versions := 1
		if index == 0 {
			versions = 3
		}
		histories[key] = testHistory(key, versions)
	}
	return &fakeSource{keys: keys, histories: histories}
}

// loadModel drives a fresh model through the window size handshake,
// the registry listing, and the first history fetch — the same message
// sequence bubbletea delivers at startup.
func loadModel(t *testing.T, source Source, width, height int) Model {
	t.Helper()

	model := NewModel(source)
	updated, _ := model.Update(tea.WindowSizeMsg{Width: width, Height: height})
	model = updated.(Model)

	listing := model.Init()()
	updated, command := model.Update(listing)
	model = updated.(Model)

	if command != nil {
		updated, _ = model.Update(command())
		model = updated.(Model)
	}
	return model
}

func TestModelInitialLoad(t *testing.T) {
	source := newTestSource()
	model := loadModel(t, source, 160, 30)

	if len(model.visible) != 4 {
		t.Fatalf("expected 4 visible datasets, got %d", len(model.visible))
	}
	if model.cursor != 0 {
		t.Errorf("initial cursor should be 0, got %d", model.cursor)
	}
	if model.selectedKey != "era5/precipitation-hourly" {
		t.Errorf("initial selection should be the first key, got %s", model.selectedKey)
	}
	if !model.detailPane.HasHistory() {
		t.Error("detail pane should have loaded history after startup")
	}
	if model.detailPane.Key() != "era5/precipitation-hourly" {
		t.Errorf("detail pane should show the first key, got %s", model.detailPane.Key())
	}
}

func TestModelViewBeforeReady(t *testing.T) {
	model := NewModel(newTestSource())

	// Before receiving WindowSizeMsg, View returns loading text.
	if view := model.View(); view != "Loading..." {
		t.Errorf("expected 'Loading...' before WindowSizeMsg, got %q", view)
	}
}

func TestModelLoadingState(t *testing.T) {
	model := NewModel(newTestSource())
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model = updated.(Model)

	// Listing has not arrived yet.
	if view := model.View(); !strings.Contains(view, "Loading datasets") {
		t.Errorf("view before listing should show the loading state, got %q", view)
	}
}

func TestModelEmptyRegistry(t *testing.T) {
	source := &fakeSource{}
	model := loadModel(t, source, 80, 24)

	view := model.View()
	if !strings.Contains(view, "No datasets in the registry") {
		t.Error("empty registry view should say so")
	}
}

func TestModelListError(t *testing.T) {
	source := &fakeSource{listErr: errors.New("registry fetch failed")}
	model := loadModel(t, source, 80, 24)

	view := model.View()
	if !strings.Contains(view, "registry fetch failed") {
		t.Errorf("view should surface the listing error, got %q", view)
	}
}

func TestModelView(t *testing.T) {
	source := newTestSource()
	model := loadModel(t, source, 160, 30)

	view := model.View()
	if !strings.Contains(view, "datasets") {
		t.Error("view should contain the header label")
	}
	if !strings.Contains(view, "4 datasets") {
		t.Error("view should contain the dataset count")
	}
	if !strings.Contains(view, "era5/precipitation-hourly") {
		t.Error("view should contain the first dataset key")
	}
	if !strings.Contains(view, "ghcnd-daily") {
		t.Error("view should contain the third dataset key")
	}
	if !strings.Contains(view, "q quit") {
		t.Error("view should contain help text")
	}
	if !strings.Contains(view, "3 versions") {
		t.Error("view should contain the selected dataset's version count")
	}
	if !strings.Contains(view, "Version 3 of") {
		t.Error("view should contain the head snapshot description")
	}
}

func TestModelNavigation(t *testing.T) {
	source := newTestSource()
	model := loadModel(t, source, 160, 30)

	// Move down: selection follows and a history fetch is issued.
	updated, command := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	model = updated.(Model)
	if model.cursor != 1 {
		t.Errorf("cursor after j should be 1, got %d", model.cursor)
	}
	if model.selectedKey != "era5/temperature-hourly" {
		t.Errorf("selection after j should be the second key, got %s", model.selectedKey)
	}
	if command == nil {
		t.Fatal("selection change should issue a history fetch")
	}
	updated, _ = model.Update(command())
	model = updated.(Model)
	if model.detailPane.Key() != "era5/temperature-hourly" {
		t.Errorf("detail pane should follow the selection, got %s", model.detailPane.Key())
	}

	// End jumps to the last item.
	updated, command = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'G'}})
	model = updated.(Model)
	if model.cursor != 3 {
		t.Errorf("cursor after G should be 3, got %d", model.cursor)
	}
	if command != nil {
		updated, _ = model.Update(command())
		model = updated.(Model)
	}

	// Down at the end stays put.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	model = updated.(Model)
	if model.cursor != 3 {
		t.Errorf("cursor after j at the end should stay at 3, got %d", model.cursor)
	}

	// Home jumps back to the top.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	model = updated.(Model)
	if model.cursor != 0 {
		t.Errorf("cursor after g should be 0, got %d", model.cursor)
	}

	// Up at the top stays put.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	model = updated.(Model)
	if model.cursor != 0 {
		t.Errorf("cursor after k at the top should stay at 0, got %d", model.cursor)
	}
}

func TestModelQuit(t *testing.T) {
	source := newTestSource()
	model := loadModel(t, source, 160, 30)

	_, command := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if command == nil {
		t.Fatal("q key should return a command")
	}
	if _, isQuit := command().(tea.QuitMsg); !isQuit {
		t.Error("expected QuitMsg from the q key")
	}
}

func TestModelFilter(t *testing.T) {
	source := newTestSource()
	model := loadModel(t, source, 160, 30)

	// Activate filter (/).
	updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	model = updated.(Model)
	if model.focusRegion != FocusFilter {
		t.Errorf("after pressing /, focus should be FocusFilter, got %d", model.focusRegion)
	}

	// Type "era".
	for _, character := range "era" {
		updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{character}})
		model = updated.(Model)
	}
	if len(model.visible) != 2 {
		t.Errorf("filter 'era' should match 2 datasets, got %d", len(model.visible))
	}
	if model.cursor != 0 {
		t.Errorf("filtering should snap the cursor to the top, got %d", model.cursor)
	}

	// Enter confirms the filter and returns focus to the list.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model = updated.(Model)
	if model.focusRegion != FocusList {
		t.Errorf("after Enter, focus should be FocusList, got %d", model.focusRegion)
	}
	if len(model.visible) != 2 {
		t.Errorf("confirmed filter should keep 2 datasets visible, got %d", len(model.visible))
	}

	// Esc clears the filter text.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyEscape})
	model = updated.(Model)
	if model.filter.Input != "" {
		t.Errorf("Esc should clear filter text, got %q", model.filter.Input)
	}
	if len(model.visible) != 4 {
		t.Errorf("after clearing filter, should see 4 datasets, got %d", len(model.visible))
	}
}

func TestModelFilterQIsCharacter(t *testing.T) {
	source := newTestSource()
	model := loadModel(t, source, 160, 30)

	updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	model = updated.(Model)

	// 'q' is filter input, not quit.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	model = updated.(Model)
	if model.filter.Input != "q" {
		t.Errorf("q in filter mode should be input, got %q", model.filter.Input)
	}
	if model.focusRegion != FocusFilter {
		t.Error("q in filter mode should not leave filter focus")
	}

	// Esc with empty text exits filter mode back to the prior focus.
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyEscape})
	model = updated.(Model)
	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyEscape})
	model = updated.(Model)
	if model.focusRegion != FocusList {
		t.Errorf("Esc on empty filter should restore list focus, got %d", model.focusRegion)
	}
}

func TestModelStaleHistoryDropped(t *testing.T) {
	source := newTestSource()
	model := loadModel(t, source, 160, 30)

	// Move to the second dataset but do not deliver its history yet.
	updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	model = updated.(Model)
	if model.detailPane.HasHistory() {
		t.Fatal("detail pane should be in the loading state after moving")
	}

	// A late response for the previously selected dataset is dropped.
	stale := historyMsg{
		key:     "era5/precipitation-hourly",
		history: source.histories["era5/precipitation-hourly"],
	}
	updated, _ = model.Update(stale)
	model = updated.(Model)
	if model.detailPane.HasHistory() {
		t.Error("stale history response should be dropped")
	}
	if model.detailPane.Key() != "era5/temperature-hourly" {
		t.Errorf("detail pane should still point at the selection, got %s", model.detailPane.Key())
	}

	// The matching response lands.
	fresh := historyMsg{
		key:     "era5/temperature-hourly",
		history: source.histories["era5/temperature-hourly"],
	}
	updated, _ = model.Update(fresh)
	model = updated.(Model)
	if !model.detailPane.HasHistory() {
		t.Error("matching history response should be installed")
	}
}

func TestModelHistoryError(t *testing.T) {
	source := newTestSource()
	model := loadModel(t, source, 160, 30)

	failure := historyMsg{
		key: model.selectedKey,
		err: errors.New("gateway unreachable"),
	}
	updated, _ := model.Update(failure)
	model = updated.(Model)

	view := model.View()
	if !strings.Contains(view, "gateway unreachable") {
		t.Error("view should surface the history load error")
	}
}

func TestModelFocusToggle(t *testing.T) {
	source := newTestSource()
	model := loadModel(t, source, 160, 30)

	updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyTab})
	model = updated.(Model)
	if model.focusRegion != FocusDetail {
		t.Errorf("Tab should focus the detail pane, got %d", model.focusRegion)
	}
	if !strings.Contains(model.View(), "[DETAIL]") {
		t.Error("help bar should show the detail focus indicator")
	}

	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyTab})
	model = updated.(Model)
	if model.focusRegion != FocusList {
		t.Errorf("Tab again should focus the list, got %d", model.focusRegion)
	}
}

func TestModelSplitClamp(t *testing.T) {
	source := newTestSource()
	model := loadModel(t, source, 160, 30)

	for range 20 {
		updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'['}})
		model = updated.(Model)
	}
	if model.splitRatio != splitRatioMin {
		t.Errorf("splitRatio should clamp at %v, got %v", splitRatioMin, model.splitRatio)
	}

	for range 20 {
		updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{']'}})
		model = updated.(Model)
	}
	if model.splitRatio != splitRatioMax {
		t.Errorf("splitRatio should clamp at %v, got %v", splitRatioMax, model.splitRatio)
	}
}

func TestModelRefresh(t *testing.T) {
	source := newTestSource()
	model := loadModel(t, source, 160, 30)

	updated, command := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	model = updated.(Model)
	if command == nil {
		t.Fatal("r should issue refresh commands")
	}
	// The displayed history is refetched, so the pane returns to the
	// loading state until the response arrives.
	if model.detailPane.HasHistory() {
		t.Error("refresh should put the detail pane back into loading")
	}
	if model.detailPane.Key() != model.selectedKey {
		t.Errorf("refresh should keep the pane on the selection, got %s", model.detailPane.Key())
	}
}
