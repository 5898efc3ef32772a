package core

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	t.Parallel()

	clock := NewRealClock()
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Error("RealClock.Now() returned unexpected time")
	}
}

func TestFakeClock_Now(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	if !clock.Now().Equal(start) {
		t.Errorf("Expected %v, got %v", start, clock.Now())
	}
}

func TestFakeClock_Advance(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	clock.Advance(1 * time.Hour)

	expected := start.Add(1 * time.Hour)
	if !clock.Now().Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, clock.Now())
	}
}

func TestFakeClock_After(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	ch := clock.After(time.Minute)
	if clock.WaiterCount() != 1 {
		t.Fatalf("Expected 1 waiter, got %d", clock.WaiterCount())
	}

	clock.Advance(30 * time.Second)
	select {
	case <-ch:
		t.Fatal("After fired too early")
	default:
	}

	clock.Advance(30 * time.Second)
	select {
	case got := <-ch:
		if !got.Equal(start.Add(time.Minute)) {
			t.Errorf("Expected %v, got %v", start.Add(time.Minute), got)
		}
	default:
		t.Fatal("After did not fire")
	}

	if clock.WaiterCount() != 0 {
		t.Errorf("Expected no waiters, got %d", clock.WaiterCount())
	}
}

func TestFakeClock_AfterNonPositive(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Now())
	select {
	case <-clock.After(0):
	default:
		t.Fatal("After(0) should fire immediately")
	}
}

func TestFakeClock_Sleep(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Now())
	done := make(chan struct{})
	go func() {
		clock.Sleep(time.Second)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for clock.WaiterCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Sleep never registered")
		}
		time.Sleep(time.Millisecond)
	}
	clock.Advance(time.Second)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Sleep did not return")
	}
}

func TestDefaultClock(t *testing.T) {
	prev := GetDefaultClock()
	t.Cleanup(func() { SetDefaultClock(prev) })

	fake := NewFakeClock(time.Unix(0, 0))
	SetDefaultClock(fake)
	if GetDefaultClock() != fake {
		t.Error("SetDefaultClock did not replace the default clock")
	}
}
