// SPDX-License-Identifier: MPL-2.0

package clock

import (
	"testing"
	"time"
)

func TestFake_DefaultsToReferenceTime(t *testing.T) {
	t.Parallel()

	c := NewFake(time.Time{})
	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := c.Now(); !got.Equal(want) {
		t.Errorf("Now() = %v, want %v", got, want)
	}
}

func TestFake_AdvanceAndSince(t *testing.T) {
	t.Parallel()

	c := NewFake(time.Time{})
	start := c.Now()
	c.Advance(90 * time.Second)

	if got := c.Since(start); got != 90*time.Second {
		t.Errorf("Since() = %v, want 90s", got)
	}

	later := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	c.Set(later)
	if got := c.Now(); !got.Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", got, later)
	}
}

func TestOrReal(t *testing.T) {
	t.Parallel()

	if _, ok := OrReal(nil).(Real); !ok {
		t.Error("OrReal(nil) should return Real")
	}

	fake := NewFake(time.Time{})
	if OrReal(fake) != Clock(fake) {
		t.Error("OrReal should pass through a non-nil clock")
	}
}
