package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/flightpath-dev/vehiclecore/internal/geo"
)

func TestStateCurrentStartsEmpty(t *testing.T) {
	s := NewState()
	snap := s.Current()
	if snap.Generation != 0 {
		t.Fatalf("expected generation 0, got %d", snap.Generation)
	}
	if snap.HavePosition {
		t.Fatalf("expected no position on a fresh state")
	}
}

func TestStateMutateBumpsGeneration(t *testing.T) {
	s := NewState()
	s.Mutate(func(snap *Snapshot) {
		snap.HavePosition = true
		snap.Position = geo.Coordinate{Latitude: 1, Longitude: 2, Altitude: 3}
	})
	snap := s.Current()
	if snap.Generation != 1 {
		t.Fatalf("expected generation 1, got %d", snap.Generation)
	}
	if !snap.HavePosition || snap.Position.Latitude != 1 {
		t.Fatalf("position not applied: %+v", snap)
	}
}

func TestWaitUntilSatisfiedImmediately(t *testing.T) {
	s := NewState()
	s.Mutate(func(snap *Snapshot) { snap.HaveArmed = true; snap.Armed = true })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snap, ok := s.WaitUntil(ctx, time.Second, func(s Snapshot) bool { return s.Armed })
	if !ok {
		t.Fatalf("expected predicate to already hold")
	}
	if !snap.Armed {
		t.Fatalf("expected armed snapshot")
	}
}

func TestWaitUntilSatisfiedByUpdate(t *testing.T) {
	s := NewState()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	var ok bool
	go func() {
		_, ok = s.WaitUntil(ctx, time.Second, func(s Snapshot) bool { return s.InAir })
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	s.Mutate(func(snap *Snapshot) { snap.HaveInAir = true; snap.InAir = true })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitUntil did not return after update")
	}
	if !ok {
		t.Fatalf("expected predicate to be satisfied")
	}
}

func TestWaitUntilTimesOut(t *testing.T) {
	s := NewState()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, ok := s.WaitUntil(ctx, 30*time.Millisecond, func(s Snapshot) bool { return s.Armed })
	if ok {
		t.Fatalf("expected timeout, got satisfied")
	}
}
