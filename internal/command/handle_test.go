package command

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHandleLifecycleCompletes(t *testing.T) {
	h := New("goto", time.Second, nil)
	if h.Status() != StatusPending {
		t.Fatalf("expected initial status Pending, got %v", h.Status())
	}

	h.MarkRunning()
	if !h.IsRunning() {
		t.Fatal("expected IsRunning after MarkRunning")
	}

	h.Complete()
	if !h.IsComplete() || !h.Succeeded() {
		t.Fatalf("expected completed+succeeded, got status=%v err=%v", h.Status(), h.Error())
	}
	if h.IsRunning() {
		t.Fatal("is_complete should imply not running")
	}
}

func TestHandleStatusNeverChangesOnceTerminal(t *testing.T) {
	h := New("goto", time.Second, nil)
	h.Complete()
	h.Fail(errors.New("late failure"))

	if h.Status() != StatusCompleted {
		t.Fatalf("expected terminal status to stick at Completed, got %v", h.Status())
	}
	if h.Error() != nil {
		t.Fatalf("expected no error to be attached after the state was already terminal, got %v", h.Error())
	}
}

func TestHandleCancelIdempotence(t *testing.T) {
	var cancelCalls int
	h := New("goto", time.Second, func(ctx context.Context) error { cancelCalls++; return nil })

	first := h.Cancel(context.Background(), true)
	second := h.Cancel(context.Background(), true)

	if !first {
		t.Fatal("expected first cancel to succeed")
	}
	if second {
		t.Fatal("expected second cancel to be a no-op")
	}
	if cancelCalls != 1 {
		t.Fatalf("expected cancel action to run exactly once, ran %d times", cancelCalls)
	}
	if h.Status() != StatusCancelled {
		t.Fatalf("expected Cancelled status, got %v", h.Status())
	}
}

func TestHandleCancelAttachesCancelActionError(t *testing.T) {
	cancelErr := errors.New("hold failed")
	h := New("goto", time.Second, func(ctx context.Context) error { return cancelErr })

	h.Cancel(context.Background(), true)

	if h.Status() != StatusCancelled {
		t.Fatalf("expected Cancelled status, got %v", h.Status())
	}
	if !errors.Is(h.Error(), cancelErr) {
		t.Fatalf("expected the cancel action's error to be attached, got %v", h.Error())
	}
}

func TestCancelWithoutExecutingLeavesResolutionToCaller(t *testing.T) {
	var cancelCalls int
	h := New("goto", time.Second, func(ctx context.Context) error { cancelCalls++; return nil })

	h.Cancel(context.Background(), false)
	if cancelCalls != 0 {
		t.Fatal("expected Cancel(ctx, false) not to run the cancel action itself")
	}
	if h.Status() == StatusCancelled {
		t.Fatal("expected the handle to stay unresolved until ResolveCancellation runs")
	}

	h.ResolveCancellation(context.Background())
	if cancelCalls != 1 {
		t.Fatalf("expected ResolveCancellation to run the cancel action once, ran %d times", cancelCalls)
	}
	if h.Status() != StatusCancelled {
		t.Fatalf("expected Cancelled status, got %v", h.Status())
	}
}

func TestHandleCancelOnTerminalHandleIsNoop(t *testing.T) {
	h := New("goto", time.Second, nil)
	h.Complete()

	if h.Cancel(context.Background(), true) {
		t.Fatal("expected cancel on an already-terminal handle to return false")
	}
}

func TestHandleWaitReturnsOnCompletion(t *testing.T) {
	h := New("goto", time.Second, nil)

	go func() {
		time.Sleep(10 * time.Millisecond)
		h.Complete()
	}()

	result := h.Wait(context.Background(), time.Second)
	if result.Status != StatusCompleted {
		t.Fatalf("expected Completed result, got %v", result.Status)
	}
}

func TestHandleWaitTimesOutWithoutResolvingTheHandle(t *testing.T) {
	h := New("goto", 0, nil)

	result := h.Wait(context.Background(), 20*time.Millisecond)
	if result.Status != StatusPending {
		t.Fatalf("expected the handle to remain Pending after Wait's own timeout, got %v", result.Status)
	}
	if h.IsComplete() {
		t.Fatal("Wait's timeout must not itself resolve the handle")
	}
}

func TestHandleProgressSnapshotIsIndependent(t *testing.T) {
	h := New("goto", time.Second, nil)
	h.SetProgress(map[string]any{"distance": 10.0})

	snap := h.Progress()
	snap["distance"] = 999.0

	if h.Progress()["distance"] != 10.0 {
		t.Fatal("expected Progress() to return a defensive copy")
	}
}
