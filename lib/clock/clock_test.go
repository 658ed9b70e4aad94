// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestRealClockAdvances(t *testing.T) {
	c := Real()
	first := c.Now()
	second := c.Now()
	if second.Before(first) {
		t.Errorf("real clock went backwards: %v then %v", first, second)
	}
}

func TestFakeClock(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c := Fake(start)

	if got := c.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}

	// Time does not move on its own.
	if got := c.Now(); !got.Equal(start) {
		t.Errorf("Now() drifted without Advance: %v", got)
	}

	c.Advance(90 * time.Second)
	want := start.Add(90 * time.Second)
	if got := c.Now(); !got.Equal(want) {
		t.Errorf("after Advance: Now() = %v, want %v", got, want)
	}

	pinned := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	c.Set(pinned)
	if got := c.Now(); !got.Equal(pinned) {
		t.Errorf("after Set: Now() = %v, want %v", got, pinned)
	}
}
